package goserde

import (
	"strings"
)

// Type tags a schema node with its physical kind.
type Type int

const (
	TypeNull Type = iota
	TypeBoolean
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeBytes
	TypeString
	TypeFixed
	TypeEnum
	TypeArray
	TypeMap
	TypeUnion
	TypeRecord
)

var typeNames = [...]string{
	TypeNull:    "null",
	TypeBoolean: "boolean",
	TypeInt:     "int",
	TypeLong:    "long",
	TypeFloat:   "float",
	TypeDouble:  "double",
	TypeBytes:   "bytes",
	TypeString:  "string",
	TypeFixed:   "fixed",
	TypeEnum:    "enum",
	TypeArray:   "array",
	TypeMap:     "map",
	TypeUnion:   "union",
	TypeRecord:  "record",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// IsNamed reports whether the type carries a full name (record, enum, fixed).
func (t Type) IsNamed() bool { return t == TypeRecord || t == TypeEnum || t == TypeFixed }

// IsPrimitive reports whether the type is one of the eight primitive kinds.
func (t Type) IsPrimitive() bool { return t >= TypeNull && t <= TypeString }

// Order is a record field's comparison directive. It never affects codec order.
type Order int

const (
	OrderAscending Order = iota
	OrderDescending
	OrderIgnore
)

func (o Order) String() string {
	switch o {
	case OrderDescending:
		return "descending"
	case OrderIgnore:
		return "ignore"
	default:
		return "ascending"
	}
}

// Name is a possibly-namespaced type name.
type Name struct {
	Name      string
	Namespace string
}

// Full returns the dotted full name.
func (n Name) Full() string {
	if n.Namespace == "" {
		return n.Name
	}
	return n.Namespace + "." + n.Name
}

// LogicalType refines the interpretation of a physical schema type (for
// example decimal over bytes). Wire bytes are unchanged; conversion is the
// concern of a LogicalRegistry layered on top.
type LogicalType struct {
	Name      string
	Precision int // decimal only
	Scale     int // decimal only
}

// Field is one record member.
type Field struct {
	name       string
	schema     *Schema
	def        any // parsed default value; nil only meaningful with hasDef
	hasDef     bool
	aliases    []string
	order      Order
	doc        string
	pos        int // declaration index within the record
}

func (f *Field) Name() string      { return f.name }
func (f *Field) Schema() *Schema   { return f.schema }
func (f *Field) Aliases() []string { return f.aliases }
func (f *Field) Order() Order      { return f.order }
func (f *Field) Doc() string       { return f.doc }
func (f *Field) Index() int        { return f.pos }

// Default returns the declared default value and whether one exists. The value
// uses the generic representation the default would decode to.
func (f *Field) Default() (any, bool) { return f.def, f.hasDef }

// Schema is one immutable node of a parsed schema tree. Named types may form
// cycles through shared pointers; identity for named types is their full name.
// A Schema is safe for concurrent use by any number of codec operations.
type Schema struct {
	typ     Type
	name    Name     // record, enum, fixed
	aliases []string // named types only, full names
	doc     string

	fields     []*Field       // record
	fieldIndex map[string]int // field name -> position

	symbols     []string       // enum
	symbolIndex map[string]int // symbol -> position
	enumDefault string         // enum, "" when absent

	size int // fixed

	items    *Schema   // array
	values   *Schema   // map
	branches []*Schema // union

	logical *LogicalType

	// resolved marks a named placeholder as filled in; used to reject
	// dangling forward references at end of parse.
	resolved bool
}

func (s *Schema) Type() Type { return s.typ }

// Name returns the simple name for named types, the type name otherwise.
func (s *Schema) Name() string {
	if s.typ.IsNamed() {
		return s.name.Name
	}
	return s.typ.String()
}

// FullName returns the namespace-qualified name for named types, the type name
// otherwise.
func (s *Schema) FullName() string {
	if s.typ.IsNamed() {
		return s.name.Full()
	}
	return s.typ.String()
}

func (s *Schema) Namespace() string  { return s.name.Namespace }
func (s *Schema) Aliases() []string  { return s.aliases }
func (s *Schema) Doc() string        { return s.doc }
func (s *Schema) Logical() *LogicalType { return s.logical }

// Fields returns the record's fields in declaration order.
func (s *Schema) Fields() []*Field { return s.fields }

// Field looks a record field up by name.
func (s *Schema) Field(name string) (*Field, bool) {
	i, ok := s.fieldIndex[name]
	if !ok {
		return nil, false
	}
	return s.fields[i], true
}

// Symbols returns the enum's symbols in declaration order.
func (s *Schema) Symbols() []string { return s.symbols }

// SymbolIndex returns the declaration position of an enum symbol.
func (s *Schema) SymbolIndex(symbol string) (int, bool) {
	i, ok := s.symbolIndex[symbol]
	return i, ok
}

// EnumDefault returns the enum's default symbol, if declared.
func (s *Schema) EnumDefault() (string, bool) { return s.enumDefault, s.enumDefault != "" }

// Size returns the fixed type's byte length.
func (s *Schema) Size() int { return s.size }

// Items returns the array element schema.
func (s *Schema) Items() *Schema { return s.items }

// Values returns the map value schema (keys are always strings).
func (s *Schema) Values() *Schema { return s.values }

// Branches returns the union's branch schemas in declaration order.
func (s *Schema) Branches() []*Schema { return s.branches }

// BranchKey returns the name identifying s when it is a union branch: the
// primitive or container kind name, or the full name for named types. This is
// the single-key union convention used by the JSON value format.
func (s *Schema) BranchKey() string { return s.FullName() }

// Branch finds the union branch whose BranchKey equals key.
func (s *Schema) Branch(key string) (int, *Schema, bool) {
	for i, b := range s.branches {
		if b.BranchKey() == key {
			return i, b, true
		}
	}
	return 0, nil, false
}

// NullBranch returns the index of the union's null branch, or -1.
func (s *Schema) NullBranch() int {
	for i, b := range s.branches {
		if b.typ == TypeNull {
			return i
		}
	}
	return -1
}

// String renders the schema in parsing canonical form.
func (s *Schema) String() string { return s.Canonical() }

// hasAlias reports whether full is among the schema's alias full names.
func (s *Schema) hasAlias(full string) bool {
	for _, a := range s.aliases {
		if a == full {
			return true
		}
	}
	return false
}

// Equal reports structural equality for unnamed types and full-name equality
// for named types, ignoring aliases, defaults, docs, and logical annotations.
func Equal(a, b *Schema) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.typ != b.typ {
		return false
	}
	if a.typ.IsNamed() {
		return a.FullName() == b.FullName()
	}
	switch a.typ {
	case TypeArray:
		return Equal(a.items, b.items)
	case TypeMap:
		return Equal(a.values, b.values)
	case TypeUnion:
		if len(a.branches) != len(b.branches) {
			return false
		}
		for i := range a.branches {
			if !Equal(a.branches[i], b.branches[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// primitive singletons shared by every parse.
var primitiveSchemas = func() map[string]*Schema {
	m := make(map[string]*Schema, 8)
	for _, t := range []Type{TypeNull, TypeBoolean, TypeInt, TypeLong, TypeFloat, TypeDouble, TypeBytes, TypeString} {
		m[t.String()] = &Schema{typ: t, resolved: true}
	}
	return m
}()

// PrimitiveSchema returns the shared schema node for a primitive type name.
func PrimitiveSchema(name string) (*Schema, bool) {
	s, ok := primitiveSchemas[name]
	return s, ok
}

// validName checks one undotted name segment.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		alpha := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if i == 0 {
			if !alpha {
				return false
			}
			continue
		}
		if !alpha && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func validFullName(s string) bool {
	for _, seg := range strings.Split(s, ".") {
		if !validName(seg) {
			return false
		}
	}
	return true
}
