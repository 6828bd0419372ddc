package goserde

import (
	"encoding/binary"
	"io"
	"math"
)

// BinaryEncoder writes the compact binary wire format to an io.Writer.
// Arrays and maps are emitted as a single run followed by the zero terminator.
type BinaryEncoder struct {
	w       io.Writer
	scratch [10]byte
}

// NewBinaryEncoder returns an encoder writing to w.
func NewBinaryEncoder(w io.Writer) *BinaryEncoder {
	return &BinaryEncoder{w: w}
}

func (e *BinaryEncoder) write(b []byte) error {
	_, err := e.w.Write(b)
	return err
}

func (e *BinaryEncoder) WriteNull() error { return nil }

func (e *BinaryEncoder) WriteBoolean(v bool) error {
	e.scratch[0] = 0
	if v {
		e.scratch[0] = 1
	}
	return e.write(e.scratch[:1])
}

func (e *BinaryEncoder) WriteLong(v int64) error {
	n := binary.PutVarint(e.scratch[:], v)
	return e.write(e.scratch[:n])
}

func (e *BinaryEncoder) WriteInt(v int32) error { return e.WriteLong(int64(v)) }

func (e *BinaryEncoder) WriteFloat(v float32) error {
	binary.LittleEndian.PutUint32(e.scratch[:4], math.Float32bits(v))
	return e.write(e.scratch[:4])
}

func (e *BinaryEncoder) WriteDouble(v float64) error {
	binary.LittleEndian.PutUint64(e.scratch[:8], math.Float64bits(v))
	return e.write(e.scratch[:8])
}

func (e *BinaryEncoder) WriteBytes(v []byte) error {
	if err := e.WriteLong(int64(len(v))); err != nil {
		return err
	}
	return e.write(v)
}

func (e *BinaryEncoder) WriteString(v string) error {
	if err := e.WriteLong(int64(len(v))); err != nil {
		return err
	}
	return e.write([]byte(v))
}

func (e *BinaryEncoder) WriteFixed(v []byte) error { return e.write(v) }

func (e *BinaryEncoder) WriteEnum(s *Schema, index int) error {
	return e.WriteInt(int32(index))
}

func (e *BinaryEncoder) WriteUnionIndex(s *Schema, index int) error {
	return e.WriteLong(int64(index))
}

func (e *BinaryEncoder) WriteArrayStart(n int) error {
	if n == 0 {
		return nil
	}
	return e.WriteLong(int64(n))
}

func (e *BinaryEncoder) WriteArrayEnd() error { return e.WriteLong(0) }

func (e *BinaryEncoder) WriteMapStart(n int) error {
	if n == 0 {
		return nil
	}
	return e.WriteLong(int64(n))
}

func (e *BinaryEncoder) WriteMapKey(k string) error { return e.WriteString(k) }

func (e *BinaryEncoder) WriteMapEnd() error { return e.WriteLong(0) }

// Record values carry no delimiters; fields follow in declaration order.
func (e *BinaryEncoder) WriteRecordStart(s *Schema) error { return nil }
func (e *BinaryEncoder) WriteFieldName(f *Field) error    { return nil }
func (e *BinaryEncoder) WriteRecordEnd(s *Schema) error   { return nil }

func (e *BinaryEncoder) Flush() error { return nil }
