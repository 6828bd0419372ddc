package goserde

import "sort"

// The datum reader and writer are generic over a small closed set of value
// shapes rather than concrete Go types: record-like, list-like, map-like, enum
// symbols, fixed blobs, and boxed primitives (plain Go values). A Model plugs
// a concrete in-memory representation into those shapes. GenericModel is the
// bundled choice; code generation or reflection layers supply their own.

// RecordValue is a record-shaped container under construction. Slots are
// addressed by the reader schema's field indexes.
type RecordValue interface {
	SetField(i int, v any)
	FieldAt(i int) any
	// Value returns the completed value handed back to the caller.
	Value() any
}

// ListValue is a sequence under construction.
type ListValue interface {
	Append(v any)
	Value() any
}

// MapValue is a string-keyed container under construction.
type MapValue interface {
	Put(k string, v any)
	Value() any
}

// RecordView exposes an existing record-shaped value for writing.
type RecordView interface {
	// SchemaName is the full name of the value's record type, used for
	// union-branch matching; may be empty when the representation has none.
	SchemaName() string
	FieldByName(name string) (any, bool)
}

// ListView exposes an existing sequence for writing.
type ListView interface {
	Len() int
	Index(i int) any
}

// MapView exposes an existing string-keyed container for writing. Keys must
// return a stable order so output is deterministic.
type MapView interface {
	Keys() []string
	Get(k string) any
}

// Model maps schema nodes onto an in-memory representation. The New*/Make*
// half serves reads (reuse, when non-nil, is a previous result that may be
// overwritten in place; that is an optimization, never an obligation). The As* half
// serves writes and union-branch shape tests, reporting ok=false on a shape
// mismatch.
type Model interface {
	NewRecord(s *Schema, reuse any) RecordValue
	NewList(s *Schema, sizeHint int, reuse any) ListValue
	NewMap(s *Schema, reuse any) MapValue
	MakeEnum(s *Schema, symbol string) any
	MakeFixed(s *Schema, b []byte) any

	AsRecord(v any) (RecordView, bool)
	AsList(v any) (ListView, bool)
	AsMap(v any) (MapView, bool)
	AsEnum(v any) (string, bool)
	AsFixed(v any) ([]byte, bool)
}

// Record is the generic record representation: a schema plus one slot per
// field in the schema's declaration order.
type Record struct {
	schema *Schema
	values []any
}

// NewRecord returns an empty record shaped by s (which must be a record
// schema).
func NewRecord(s *Schema) *Record {
	return &Record{schema: s, values: make([]any, len(s.Fields()))}
}

func (r *Record) Schema() *Schema { return r.schema }

// Get returns the named field's value.
func (r *Record) Get(name string) (any, bool) {
	f, ok := r.schema.Field(name)
	if !ok {
		return nil, false
	}
	return r.values[f.Index()], true
}

// Set stores the named field's value, reporting whether the field exists.
func (r *Record) Set(name string, v any) bool {
	f, ok := r.schema.Field(name)
	if !ok {
		return false
	}
	r.values[f.Index()] = v
	return true
}

// At returns the field value at declaration index i.
func (r *Record) At(i int) any { return r.values[i] }

// SetAt stores the field value at declaration index i.
func (r *Record) SetAt(i int, v any) { r.values[i] = v }

// EnumSymbol is the generic enum representation.
type EnumSymbol string

// GenericModel is the bundled Model: *Record for records, []any for arrays,
// map[string]any for maps, EnumSymbol for enums, []byte for bytes and fixed,
// and plain Go scalars (bool, int32, int64, float32, float64, string) for the
// remaining primitives.
var GenericModel Model = genericModel{}

type genericModel struct{}

func (genericModel) NewRecord(s *Schema, reuse any) RecordValue {
	if r, ok := reuse.(*Record); ok && r.schema == s {
		return r
	}
	return NewRecord(s)
}

func (genericModel) NewList(s *Schema, sizeHint int, reuse any) ListValue {
	if prev, ok := reuse.([]any); ok {
		return &genericList{items: prev[:0]}
	}
	return &genericList{items: make([]any, 0, sizeHint)}
}

func (genericModel) NewMap(s *Schema, reuse any) MapValue {
	if prev, ok := reuse.(map[string]any); ok {
		clear(prev)
		return genericMap(prev)
	}
	return genericMap(map[string]any{})
}

func (genericModel) MakeEnum(s *Schema, symbol string) any { return EnumSymbol(symbol) }
func (genericModel) MakeFixed(s *Schema, b []byte) any     { return b }

func (genericModel) AsRecord(v any) (RecordView, bool) {
	r, ok := v.(*Record)
	if !ok {
		return nil, false
	}
	return r, true
}

func (genericModel) AsList(v any) (ListView, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	return &genericList{items: items}, true
}

func (genericModel) AsMap(v any) (MapView, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return genericMap(m), true
}

func (genericModel) AsEnum(v any) (string, bool) {
	switch s := v.(type) {
	case EnumSymbol:
		return string(s), true
	case string:
		return s, true
	default:
		return "", false
	}
}

func (genericModel) AsFixed(v any) ([]byte, bool) {
	b, ok := v.([]byte)
	return b, ok
}

// Record doubles as the build-side container and the write-side view.
func (r *Record) SetField(i int, v any) { r.values[i] = v }
func (r *Record) FieldAt(i int) any     { return r.values[i] }
func (r *Record) Value() any            { return r }

func (r *Record) SchemaName() string { return r.schema.FullName() }
func (r *Record) FieldByName(name string) (any, bool) {
	return r.Get(name)
}

type genericList struct{ items []any }

func (l *genericList) Append(v any)    { l.items = append(l.items, v) }
func (l *genericList) Value() any      { return l.items }
func (l *genericList) Len() int        { return len(l.items) }
func (l *genericList) Index(i int) any { return l.items[i] }

type genericMap map[string]any

func (m genericMap) Put(k string, v any) { m[k] = v }
func (m genericMap) Value() any          { return map[string]any(m) }
func (m genericMap) Get(k string) any    { return m[k] }

func (m genericMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
