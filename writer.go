package goserde

import (
	"math"
)

// WriteOpt bundles datum writer options.
type WriteOpt struct {
	// Model interprets the in-memory representation; GenericModel when nil.
	Model Model
	// Logical, when set, converts refined values back to raw form before the
	// physical write.
	Logical *LogicalRegistry
}

// DatumWriter encodes whole values by walking the writer schema, extracting
// the matching piece of the value through the Model, and pushing primitives
// into an Encoder.
type DatumWriter struct {
	schema  *Schema
	model   Model
	logical *LogicalRegistry
}

// NewDatumWriter returns a writer encoding values under s.
func NewDatumWriter(s *Schema, opts ...WriteOpt) *DatumWriter {
	dw := &DatumWriter{schema: s, model: GenericModel}
	for _, o := range opts {
		if o.Model != nil {
			dw.model = o.Model
		}
		if o.Logical != nil {
			dw.logical = o.Logical
		}
	}
	return dw
}

// Write encodes one whole value and flushes the encoder.
func (dw *DatumWriter) Write(v any, e Encoder) error {
	if err := dw.write(v, dw.schema, e); err != nil {
		return err
	}
	return e.Flush()
}

func (dw *DatumWriter) write(v any, s *Schema, e Encoder) error {
	if lt := s.Logical(); lt != nil {
		if conv, ok := dw.logical.Lookup(lt.Name); ok {
			raw, err := conv.Encode(s, v)
			if err != nil {
				return err
			}
			v = raw
		}
	}
	switch s.Type() {
	case TypeNull:
		if v != nil {
			return writeMismatch(s, v)
		}
		return e.WriteNull()
	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return writeMismatch(s, v)
		}
		return e.WriteBoolean(b)
	case TypeInt:
		i, ok := asInt32(v)
		if !ok {
			return writeMismatch(s, v)
		}
		return e.WriteInt(i)
	case TypeLong:
		l, ok := asInt64(v)
		if !ok {
			return writeMismatch(s, v)
		}
		return e.WriteLong(l)
	case TypeFloat:
		switch f := v.(type) {
		case float32:
			return e.WriteFloat(f)
		default:
			if l, ok := asInt64(v); ok {
				return e.WriteFloat(float32(l))
			}
			return writeMismatch(s, v)
		}
	case TypeDouble:
		switch f := v.(type) {
		case float64:
			return e.WriteDouble(f)
		case float32:
			return e.WriteDouble(float64(f))
		default:
			if l, ok := asInt64(v); ok {
				return e.WriteDouble(float64(l))
			}
			return writeMismatch(s, v)
		}
	case TypeString:
		str, ok := v.(string)
		if !ok {
			return writeMismatch(s, v)
		}
		return e.WriteString(str)
	case TypeBytes:
		b, ok := v.([]byte)
		if !ok {
			return writeMismatch(s, v)
		}
		return e.WriteBytes(b)
	case TypeFixed:
		b, ok := dw.model.AsFixed(v)
		if !ok {
			return writeMismatch(s, v)
		}
		if len(b) != s.Size() {
			return issuef("/", CodeSizeMismatch,
				"fixed %s requires %d bytes, value has %d", s.FullName(), s.Size(), len(b))
		}
		return e.WriteFixed(b)
	case TypeEnum:
		sym, ok := dw.model.AsEnum(v)
		if !ok {
			return writeMismatch(s, v)
		}
		i, ok := s.SymbolIndex(sym)
		if !ok {
			return issuef("/", CodeInvalidEnum, "%q is not a symbol of %s", sym, s.FullName())
		}
		return e.WriteEnum(s, i)
	case TypeUnion:
		return dw.writeUnion(v, s, e)
	case TypeArray:
		return dw.writeArray(v, s, e)
	case TypeMap:
		return dw.writeMap(v, s, e)
	case TypeRecord:
		return dw.writeRecord(v, s, e)
	}
	return writeMismatch(s, v)
}

// writeUnion tests branches in declared order; the first structural match
// wins and its index leads the encoded value.
func (dw *DatumWriter) writeUnion(v any, s *Schema, e Encoder) error {
	for i, b := range s.Branches() {
		if !dw.matches(b, v) {
			continue
		}
		if err := e.WriteUnionIndex(s, i); err != nil {
			return err
		}
		return dw.write(v, b, e)
	}
	return issuef("/", CodeUnknownBranch, "value of type %T matches no union branch", v)
}

func (dw *DatumWriter) matches(b *Schema, v any) bool {
	switch b.Type() {
	case TypeNull:
		return v == nil
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeInt:
		_, ok := asInt32(v)
		return ok
	case TypeLong:
		_, ok := asInt64(v)
		return ok
	case TypeFloat:
		_, ok := v.(float32)
		return ok
	case TypeDouble:
		_, ok := v.(float64)
		return ok
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeBytes:
		_, ok := v.([]byte)
		return ok
	case TypeFixed:
		fb, ok := dw.model.AsFixed(v)
		return ok && len(fb) == b.Size()
	case TypeEnum:
		sym, ok := dw.model.AsEnum(v)
		if !ok {
			return false
		}
		_, member := b.SymbolIndex(sym)
		return member
	case TypeArray:
		_, ok := dw.model.AsList(v)
		return ok
	case TypeMap:
		if _, isRec := dw.model.AsRecord(v); isRec {
			return false
		}
		_, ok := dw.model.AsMap(v)
		return ok
	case TypeRecord:
		view, ok := dw.model.AsRecord(v)
		if !ok {
			return false
		}
		name := view.SchemaName()
		return name == "" || name == b.FullName() || b.hasAlias(name)
	}
	return false
}

func (dw *DatumWriter) writeArray(v any, s *Schema, e Encoder) error {
	view, ok := dw.model.AsList(v)
	if !ok {
		return writeMismatch(s, v)
	}
	if err := e.WriteArrayStart(view.Len()); err != nil {
		return err
	}
	for i := 0; i < view.Len(); i++ {
		if err := dw.write(view.Index(i), s.Items(), e); err != nil {
			return err
		}
	}
	return e.WriteArrayEnd()
}

func (dw *DatumWriter) writeMap(v any, s *Schema, e Encoder) error {
	view, ok := dw.model.AsMap(v)
	if !ok {
		return writeMismatch(s, v)
	}
	keys := view.Keys()
	if err := e.WriteMapStart(len(keys)); err != nil {
		return err
	}
	for _, k := range keys {
		if err := e.WriteMapKey(k); err != nil {
			return err
		}
		if err := dw.write(view.Get(k), s.Values(), e); err != nil {
			return err
		}
	}
	return e.WriteMapEnd()
}

// writeRecord emits fields in schema declaration order, the only order the
// binary form admits. A value missing a field falls back to the field's
// default; a field with neither is an error.
func (dw *DatumWriter) writeRecord(v any, s *Schema, e Encoder) error {
	view, ok := dw.model.AsRecord(v)
	if !ok {
		return writeMismatch(s, v)
	}
	if err := e.WriteRecordStart(s); err != nil {
		return err
	}
	for _, f := range s.Fields() {
		fv, ok := view.FieldByName(f.Name())
		if !ok {
			dv, has := f.Default()
			if !has {
				return issuef("/"+f.Name(), CodeRequired,
					"value carries no field %q and the schema declares no default", f.Name())
			}
			built, err := buildDefault(dw.model, dw.logical, f.Schema(), dv)
			if err != nil {
				return err
			}
			fv = built
		}
		if err := e.WriteFieldName(f); err != nil {
			return err
		}
		if err := dw.write(fv, f.Schema(), e); err != nil {
			return err
		}
	}
	return e.WriteRecordEnd(s)
}

func writeMismatch(s *Schema, v any) error {
	return Issues{{
		Path: "/", Code: CodeInvalidType,
		Message: "value does not fit the schema",
		Params:  map[string]any{"schema": s.FullName(), "got": typeName(v)},
		Offset:  -1,
	}}
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case *Record:
		return "record"
	case EnumSymbol:
		return "enum"
	default:
		return anyTypeName(v)
	}
}

func anyTypeName(v any) string {
	switch v.(type) {
	case bool:
		return "bool"
	case int, int32, int64:
		return "integer"
	case float32, float64:
		return "number"
	case string:
		return "string"
	case []byte:
		return "bytes"
	case []any:
		return "array"
	case map[string]any:
		return "map"
	default:
		return "unknown"
	}
}

func asInt32(v any) (int32, bool) {
	switch n := v.(type) {
	case int32:
		return n, true
	case int:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, false
		}
		return int32(n), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	default:
		return 0, false
	}
}
