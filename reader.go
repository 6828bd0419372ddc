package goserde

import (
	gojson "github.com/goccy/go-json"
)

// ReadOpt bundles datum reader options.
type ReadOpt struct {
	// Model supplies the in-memory representation; GenericModel when nil.
	Model Model
	// Logical, when set, converts logical-typed values after the raw read.
	Logical *LogicalRegistry
}

// DatumReader materializes whole values by walking the writer schema, asking
// the resolution engine how each node maps onto the reader schema, and pulling
// primitives off a Decoder. One DatumReader may serve many sequential reads;
// each read owns its Decoder exclusively.
type DatumReader struct {
	writer  *Schema
	reader  *Schema
	model   Model
	logical *LogicalRegistry
	res     *resolver
}

// NewDatumReader returns a reader resolving writer-encoded data into reader's
// shape. A nil reader means "read as written".
func NewDatumReader(writer, reader *Schema, opts ...ReadOpt) *DatumReader {
	if reader == nil {
		reader = writer
	}
	dr := &DatumReader{writer: writer, reader: reader, model: GenericModel, res: newResolver()}
	for _, o := range opts {
		if o.Model != nil {
			dr.model = o.Model
		}
		if o.Logical != nil {
			dr.logical = o.Logical
		}
	}
	return dr
}

// Read decodes one whole value. reuse, when non-nil, is a previous result
// whose storage may be overwritten in place; treat it as consumed either way.
func (dr *DatumReader) Read(reuse any, d Decoder) (any, error) {
	return dr.read(reuse, dr.writer, dr.reader, d)
}

func (dr *DatumReader) read(reuse any, w, r *Schema, d Decoder) (any, error) {
	// The writer union's concrete branch is what the data physically holds;
	// resolve that branch against the reader.
	if w.Type() == TypeUnion {
		i, err := d.ReadUnionIndex(w)
		if err != nil {
			return nil, err
		}
		return dr.read(reuse, w.Branches()[i], r, d)
	}
	if r.Type() == TypeUnion {
		rb, err := unionBranch(r, w)
		if err != nil {
			return nil, err
		}
		return dr.read(reuse, w, rb, d)
	}

	v, err := dr.readResolved(reuse, w, r, d)
	if err != nil {
		return nil, err
	}
	if lt := r.Logical(); lt != nil {
		if conv, ok := dr.logical.Lookup(lt.Name); ok {
			return conv.Decode(r, v)
		}
	}
	return v, nil
}

func (dr *DatumReader) readResolved(reuse any, w, r *Schema, d Decoder) (any, error) {
	switch w.Type() {
	case TypeNull:
		if r.Type() != TypeNull {
			return nil, incompatible(w, r)
		}
		return nil, d.ReadNull()
	case TypeBoolean:
		if r.Type() != TypeBoolean {
			return nil, incompatible(w, r)
		}
		return d.ReadBoolean()
	case TypeInt:
		v, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		switch r.Type() {
		case TypeInt:
			return v, nil
		case TypeLong:
			return int64(v), nil
		case TypeFloat:
			return float32(v), nil
		case TypeDouble:
			return float64(v), nil
		}
		return nil, incompatible(w, r)
	case TypeLong:
		v, err := d.ReadLong()
		if err != nil {
			return nil, err
		}
		switch r.Type() {
		case TypeLong:
			return v, nil
		case TypeFloat:
			return float32(v), nil
		case TypeDouble:
			return float64(v), nil
		}
		return nil, incompatible(w, r)
	case TypeFloat:
		v, err := d.ReadFloat()
		if err != nil {
			return nil, err
		}
		switch r.Type() {
		case TypeFloat:
			return v, nil
		case TypeDouble:
			return float64(v), nil
		}
		return nil, incompatible(w, r)
	case TypeDouble:
		if r.Type() != TypeDouble {
			return nil, incompatible(w, r)
		}
		return d.ReadDouble()
	case TypeString:
		v, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		switch r.Type() {
		case TypeString:
			return v, nil
		case TypeBytes:
			return []byte(v), nil
		}
		return nil, incompatible(w, r)
	case TypeBytes:
		v, err := d.ReadBytes()
		if err != nil {
			return nil, err
		}
		switch r.Type() {
		case TypeBytes:
			return v, nil
		case TypeString:
			return string(v), nil
		}
		return nil, incompatible(w, r)
	case TypeFixed:
		if r.Type() != TypeFixed {
			return nil, incompatible(w, r)
		}
		if w.Size() != r.Size() {
			return nil, issuef("/", CodeSizeMismatch,
				"fixed size %d (writer) vs %d (reader)", w.Size(), r.Size())
		}
		b, err := d.ReadFixed(w.Size())
		if err != nil {
			return nil, err
		}
		return dr.model.MakeFixed(r, b), nil
	case TypeEnum:
		if r.Type() != TypeEnum {
			return nil, incompatible(w, r)
		}
		i, err := d.ReadEnum(w)
		if err != nil {
			return nil, err
		}
		ri := dr.res.enum(w, r)[i]
		if ri < 0 {
			return nil, issuef("/", CodeInvalidEnum,
				"symbol %q of %s is not readable as %s and the reader declares no default",
				w.Symbols()[i], w.FullName(), r.FullName())
		}
		return dr.model.MakeEnum(r, r.Symbols()[ri]), nil
	case TypeArray:
		if r.Type() != TypeArray {
			return nil, incompatible(w, r)
		}
		return dr.readArray(reuse, w, r, d)
	case TypeMap:
		if r.Type() != TypeMap {
			return nil, incompatible(w, r)
		}
		return dr.readMap(reuse, w, r, d)
	case TypeRecord:
		if r.Type() != TypeRecord {
			return nil, incompatible(w, r)
		}
		return dr.readRecord(reuse, w, r, d)
	}
	return nil, incompatible(w, r)
}

// sizeHint caps a decoder-reported run count before it becomes an allocation
// size. A corrupt header can claim an arbitrarily large run; items that
// actually exist still grow the list one Append at a time, and a short stream
// fails with the usual truncation error.
func sizeHint(n int64) int {
	const limit = 1024
	switch {
	case n < 0:
		return 0
	case n > limit:
		return limit
	}
	return int(n)
}

func (dr *DatumReader) readArray(reuse any, w, r *Schema, d Decoder) (any, error) {
	n, err := d.ReadArrayStart()
	if err != nil {
		return nil, err
	}
	lst := dr.model.NewList(r, sizeHint(n), reuse)
	for n > 0 {
		for i := int64(0); i < n; i++ {
			v, err := dr.read(nil, w.Items(), r.Items(), d)
			if err != nil {
				return nil, err
			}
			lst.Append(v)
		}
		if n, err = d.ReadArrayNext(); err != nil {
			return nil, err
		}
	}
	return lst.Value(), nil
}

func (dr *DatumReader) readMap(reuse any, w, r *Schema, d Decoder) (any, error) {
	n, err := d.ReadMapStart()
	if err != nil {
		return nil, err
	}
	m := dr.model.NewMap(r, reuse)
	for n > 0 {
		for i := int64(0); i < n; i++ {
			k, err := d.ReadMapKey()
			if err != nil {
				return nil, err
			}
			v, err := dr.read(nil, w.Values(), r.Values(), d)
			if err != nil {
				return nil, err
			}
			m.Put(k, v)
		}
		if n, err = d.ReadMapNext(); err != nil {
			return nil, err
		}
	}
	return m.Value(), nil
}

// readRecord walks writer fields in writer declaration order, since that order
// drives the physical stream, while the plan decides which reader slot each
// value lands in and which writer values are skipped outright.
func (dr *DatumReader) readRecord(reuse any, w, r *Schema, d Decoder) (any, error) {
	plan, err := dr.res.record(w, r)
	if err != nil {
		return nil, err
	}
	rec := dr.model.NewRecord(r, reuse)
	if err := d.ReadRecordStart(w); err != nil {
		return nil, err
	}
	for wi, wf := range w.Fields() {
		ri := plan.toReader[wi]
		present, err := d.ReadField(wf)
		if err != nil {
			return nil, err
		}
		if !present {
			if ri < 0 {
				continue
			}
			rf := r.Fields()[ri]
			dv, ok := rf.Default()
			if !ok {
				return nil, issuef("/"+wf.Name(), CodeRequired,
					"field %q absent from input and has no default", wf.Name())
			}
			val, err := buildDefault(dr.model, dr.logical, rf.Schema(), dv)
			if err != nil {
				return nil, err
			}
			rec.SetField(ri, val)
			continue
		}
		if ri < 0 {
			if err := d.Skip(wf.Schema()); err != nil {
				return nil, err
			}
			continue
		}
		v, err := dr.read(rec.FieldAt(ri), wf.Schema(), r.Fields()[ri].Schema(), d)
		if err != nil {
			return nil, err
		}
		rec.SetField(ri, v)
	}
	for _, ri := range plan.defaulted {
		rf := r.Fields()[ri]
		dv, _ := rf.Default()
		val, err := buildDefault(dr.model, dr.logical, rf.Schema(), dv)
		if err != nil {
			return nil, err
		}
		rec.SetField(ri, val)
	}
	if err := d.ReadRecordEnd(w); err != nil {
		return nil, err
	}
	return rec.Value(), nil
}

// buildDefault synthesizes a model value from a field's declared default.
// Defaults were validated at schema parse, so the type assertions here hold.
func buildDefault(model Model, reg *LogicalRegistry, s *Schema, dv any) (any, error) {
	build := func() (any, error) {
		switch s.Type() {
		case TypeNull:
			return nil, nil
		case TypeBoolean:
			return dv.(bool), nil
		case TypeInt:
			n, err := dv.(gojson.Number).Int64()
			if err != nil {
				return nil, issuef("/", CodeBadDefault, "default %v is not an int", dv)
			}
			return int32(n), nil
		case TypeLong:
			n, err := dv.(gojson.Number).Int64()
			if err != nil {
				return nil, issuef("/", CodeBadDefault, "default %v is not a long", dv)
			}
			return n, nil
		case TypeFloat:
			f, err := dv.(gojson.Number).Float64()
			if err != nil {
				return nil, issuef("/", CodeBadDefault, "default %v is not a float", dv)
			}
			return float32(f), nil
		case TypeDouble:
			f, err := dv.(gojson.Number).Float64()
			if err != nil {
				return nil, issuef("/", CodeBadDefault, "default %v is not a double", dv)
			}
			return f, nil
		case TypeString:
			return dv.(string), nil
		case TypeBytes:
			b, _ := latin1Bytes(dv.(string))
			return b, nil
		case TypeFixed:
			b, _ := latin1Bytes(dv.(string))
			return model.MakeFixed(s, b), nil
		case TypeEnum:
			return model.MakeEnum(s, dv.(string)), nil
		case TypeUnion:
			// Defaults always describe the first branch.
			return buildDefault(model, reg, s.Branches()[0], dv)
		case TypeArray:
			lst := model.NewList(s, 0, nil)
			for _, el := range dv.([]any) {
				v, err := buildDefault(model, reg, s.Items(), el)
				if err != nil {
					return nil, err
				}
				lst.Append(v)
			}
			return lst.Value(), nil
		case TypeMap:
			m := model.NewMap(s, nil)
			for k, el := range dv.(map[string]any) {
				v, err := buildDefault(model, reg, s.Values(), el)
				if err != nil {
					return nil, err
				}
				m.Put(k, v)
			}
			return m.Value(), nil
		case TypeRecord:
			obj := dv.(map[string]any)
			rec := model.NewRecord(s, nil)
			for i, f := range s.Fields() {
				fv, present := obj[f.Name()]
				if !present {
					fv, _ = f.Default()
				}
				v, err := buildDefault(model, reg, f.Schema(), fv)
				if err != nil {
					return nil, err
				}
				rec.SetField(i, v)
			}
			return rec.Value(), nil
		}
		return nil, issuef("/", CodeBadDefault, "cannot build default for %s", s.Type())
	}
	v, err := build()
	if err != nil {
		return nil, err
	}
	if lt := s.Logical(); lt != nil {
		if conv, ok := reg.Lookup(lt.Name); ok {
			return conv.Decode(s, v)
		}
	}
	return v, nil
}

func incompatible(w, r *Schema) error {
	return Issues{{
		Path: "/", Code: CodeIncompatible,
		Message: "writer and reader schemas are incompatible here",
		Params:  map[string]any{"writer": w.FullName(), "reader": r.FullName()},
		Offset:  -1,
	}}
}
