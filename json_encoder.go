package goserde

import (
	"fmt"
	"io"
	"math"
	"strconv"

	gojson "github.com/goccy/go-json"
)

// JSONEncoder writes the textual value format: record keys in schema-declared
// order, unions as single-key objects, bytes and fixed as strings of code
// points 0–255, non-finite numbers as their special strings.
type JSONEncoder struct {
	w      io.Writer
	frames []jsonFrame
	err    error // sticky
}

type jsonFrameKind int

const (
	frameObject jsonFrameKind = iota
	frameArray
	frameUnion
)

type jsonFrame struct {
	kind jsonFrameKind
	n    int  // values (array) or keys (object) written so far
	open bool // object: a key was written, its value is pending
}

// NewJSONEncoder returns an encoder writing to w.
func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) emit(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

// beginValue places any separator a value needs in the current context.
func (e *JSONEncoder) beginValue() {
	if len(e.frames) == 0 {
		return
	}
	top := &e.frames[len(e.frames)-1]
	switch top.kind {
	case frameArray:
		if top.n > 0 {
			e.emit(",")
		}
		top.n++
	case frameObject:
		// The comma was placed with the key.
		top.open = false
	case frameUnion:
		// Single value inside the wrapper; nothing to separate.
	}
}

// endValue closes any union wrappers waiting on this value.
func (e *JSONEncoder) endValue() {
	for len(e.frames) > 0 && e.frames[len(e.frames)-1].kind == frameUnion {
		e.frames = e.frames[:len(e.frames)-1]
		e.emit("}")
	}
}

func (e *JSONEncoder) scalar(text string) error {
	e.beginValue()
	e.emit(text)
	e.endValue()
	return e.err
}

func (e *JSONEncoder) key(k string) {
	if len(e.frames) == 0 {
		e.err = fmt.Errorf("goserde: json key outside an object")
		return
	}
	top := &e.frames[len(e.frames)-1]
	if top.n > 0 {
		e.emit(",")
	}
	top.n++
	top.open = true
	e.emit(quoteJSON(k))
	e.emit(":")
}

func (e *JSONEncoder) WriteNull() error          { return e.scalar("null") }
func (e *JSONEncoder) WriteBoolean(v bool) error { return e.scalar(strconv.FormatBool(v)) }
func (e *JSONEncoder) WriteInt(v int32) error    { return e.scalar(strconv.FormatInt(int64(v), 10)) }
func (e *JSONEncoder) WriteLong(v int64) error   { return e.scalar(strconv.FormatInt(v, 10)) }

func (e *JSONEncoder) WriteFloat(v float32) error {
	return e.scalar(floatText(float64(v), 32))
}

func (e *JSONEncoder) WriteDouble(v float64) error {
	return e.scalar(floatText(v, 64))
}

func (e *JSONEncoder) WriteBytes(v []byte) error  { return e.scalar(latin1Quote(v)) }
func (e *JSONEncoder) WriteFixed(v []byte) error  { return e.scalar(latin1Quote(v)) }
func (e *JSONEncoder) WriteString(v string) error { return e.scalar(quoteJSON(v)) }

func (e *JSONEncoder) WriteEnum(s *Schema, index int) error {
	return e.scalar(quoteJSON(s.Symbols()[index]))
}

// WriteUnionIndex opens the single-key wrapper object for non-null branches;
// the wrapper closes itself once the branch value completes.
func (e *JSONEncoder) WriteUnionIndex(s *Schema, index int) error {
	branch := s.Branches()[index]
	if branch.Type() == TypeNull {
		// The branch value's own WriteNull emits the bare null.
		return e.err
	}
	e.beginValue()
	e.emit("{")
	e.emit(quoteJSON(branch.BranchKey()))
	e.emit(":")
	e.frames = append(e.frames, jsonFrame{kind: frameUnion})
	return e.err
}

func (e *JSONEncoder) WriteArrayStart(n int) error {
	e.beginValue()
	e.emit("[")
	e.frames = append(e.frames, jsonFrame{kind: frameArray})
	return e.err
}

func (e *JSONEncoder) WriteArrayEnd() error {
	e.emit("]")
	e.pop()
	e.endValue()
	return e.err
}

func (e *JSONEncoder) WriteMapStart(n int) error {
	e.beginValue()
	e.emit("{")
	e.frames = append(e.frames, jsonFrame{kind: frameObject})
	return e.err
}

func (e *JSONEncoder) WriteMapKey(k string) error {
	e.key(k)
	return e.err
}

func (e *JSONEncoder) WriteMapEnd() error {
	e.emit("}")
	e.pop()
	e.endValue()
	return e.err
}

func (e *JSONEncoder) WriteRecordStart(s *Schema) error {
	e.beginValue()
	e.emit("{")
	e.frames = append(e.frames, jsonFrame{kind: frameObject})
	return e.err
}

func (e *JSONEncoder) WriteFieldName(f *Field) error {
	e.key(f.Name())
	return e.err
}

func (e *JSONEncoder) WriteRecordEnd(s *Schema) error {
	e.emit("}")
	e.pop()
	e.endValue()
	return e.err
}

func (e *JSONEncoder) Flush() error { return e.err }

func (e *JSONEncoder) pop() {
	if len(e.frames) > 0 {
		e.frames = e.frames[:len(e.frames)-1]
	}
}

func floatText(v float64, bits int) string {
	switch {
	case math.IsNaN(v):
		return `"NaN"`
	case math.IsInf(v, 1):
		return `"Infinity"`
	case math.IsInf(v, -1):
		return `"-Infinity"`
	default:
		return strconv.FormatFloat(v, 'g', -1, bits)
	}
}

// quoteJSON renders a JSON string literal with full escaping.
func quoteJSON(s string) string {
	b, err := gojson.Marshal(s)
	if err != nil {
		// Strings always marshal; keep the signature clean.
		return `""`
	}
	return string(b)
}

// latin1Quote renders raw bytes as a JSON string of code points 0–255.
func latin1Quote(v []byte) string {
	const hex = "0123456789abcdef"
	out := make([]byte, 0, len(v)+2)
	out = append(out, '"')
	for _, b := range v {
		switch {
		case b == '"' || b == '\\':
			out = append(out, '\\', b)
		case b >= 0x20 && b < 0x80:
			out = append(out, b)
		default:
			out = append(out, '\\', 'u', '0', '0', hex[b>>4], hex[b&0xF])
		}
	}
	return string(append(out, '"'))
}
