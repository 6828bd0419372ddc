package goserde

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// BinaryDecoder reads the compact binary wire format from an in-memory buffer.
// It is a plain cursor: no lookahead, no schema state beyond what each call
// passes in.
type BinaryDecoder struct {
	buf []byte
	pos int
}

// NewBinaryDecoder returns a decoder positioned at the start of buf. The
// buffer is not copied and must stay immutable for the decoder's lifetime.
func NewBinaryDecoder(buf []byte) *BinaryDecoder {
	return &BinaryDecoder{buf: buf}
}

// Pos returns the current byte offset, mainly for error reporting.
func (d *BinaryDecoder) Pos() int { return d.pos }

func (d *BinaryDecoder) remaining() int { return len(d.buf) - d.pos }

func (d *BinaryDecoder) take(n int) ([]byte, error) {
	if d.remaining() < n {
		return nil, d.formatErr(CodeTruncated, "stream ends mid-value")
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *BinaryDecoder) formatErr(code, msg string) error {
	return Issues{{Path: "/", Code: code, Message: msg, Offset: int64(d.pos)}}
}

func (d *BinaryDecoder) errAtf(code, format string, args ...any) error {
	iss := issuef("/", code, format, args...)
	iss[0].Offset = int64(d.pos)
	return iss
}

func (d *BinaryDecoder) ReadNull() error { return nil }

func (d *BinaryDecoder) ReadBoolean() (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, d.formatErr(CodeParseError, "boolean byte must be 0 or 1")
	}
}

// ReadLong decodes a zig-zag base-128 varint, least-significant group first.
func (d *BinaryDecoder) ReadLong() (int64, error) {
	v, n := binary.Varint(d.buf[d.pos:])
	if n == 0 {
		return 0, d.formatErr(CodeTruncated, "stream ends mid-varint")
	}
	if n < 0 {
		return 0, d.formatErr(CodeInvalidVarint, "varint exceeds 10 bytes")
	}
	d.pos += n
	return v, nil
}

func (d *BinaryDecoder) ReadInt() (int32, error) {
	v, err := d.ReadLong()
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, d.formatErr(CodeInvalidVarint, "int value out of 32-bit range")
	}
	return int32(v), nil
}

func (d *BinaryDecoder) ReadFloat() (float32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

func (d *BinaryDecoder) ReadDouble() (float64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

func (d *BinaryDecoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadLong()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, d.formatErr(CodeParseError, "negative byte length")
	}
	b, err := d.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func (d *BinaryDecoder) ReadString() (string, error) {
	n, err := d.ReadLong()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", d.formatErr(CodeParseError, "negative string length")
	}
	b, err := d.take(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", d.formatErr(CodeInvalidUTF8, "string is not valid UTF-8")
	}
	return string(b), nil
}

func (d *BinaryDecoder) ReadFixed(size int) ([]byte, error) {
	b, err := d.take(size)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, b)
	return out, nil
}

func (d *BinaryDecoder) ReadEnum(s *Schema) (int, error) {
	v, err := d.ReadInt()
	if err != nil {
		return 0, err
	}
	if v < 0 || int(v) >= len(s.Symbols()) {
		return 0, d.errAtf(CodeIndexOutOfRange, "enum index %d out of range for %s", v, s.FullName())
	}
	return int(v), nil
}

func (d *BinaryDecoder) ReadUnionIndex(s *Schema) (int, error) {
	v, err := d.ReadLong()
	if err != nil {
		return 0, err
	}
	if v < 0 || int(v) >= len(s.Branches()) {
		return 0, d.errAtf(CodeIndexOutOfRange, "union index %d out of range", v)
	}
	return int(v), nil
}

// readBlockCount normalizes a run header: a negative count means "the count is
// its magnitude, followed by the run's byte size"; the size only matters for
// skipping, so a read discards it.
func (d *BinaryDecoder) readBlockCount() (int64, error) {
	n, err := d.ReadLong()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		if _, err := d.ReadLong(); err != nil {
			return 0, err
		}
		n = -n
	}
	return n, nil
}

func (d *BinaryDecoder) ReadArrayStart() (int64, error) { return d.readBlockCount() }
func (d *BinaryDecoder) ReadArrayNext() (int64, error)  { return d.readBlockCount() }
func (d *BinaryDecoder) ReadMapStart() (int64, error)   { return d.readBlockCount() }
func (d *BinaryDecoder) ReadMapNext() (int64, error)    { return d.readBlockCount() }

func (d *BinaryDecoder) ReadMapKey() (string, error) { return d.ReadString() }

// Record values carry no delimiters in the binary form; field calls exist for
// symmetry with the textual decoder and always report the field as present.
func (d *BinaryDecoder) ReadRecordStart(s *Schema) error     { return nil }
func (d *BinaryDecoder) ReadField(f *Field) (bool, error)    { return true, nil }
func (d *BinaryDecoder) ReadRecordEnd(s *Schema) error       { return nil }

// Skip consumes exactly the bytes a read of s would. Runs written with a byte
// size jump in one step; plain runs skip item by item.
func (d *BinaryDecoder) Skip(s *Schema) error {
	switch s.Type() {
	case TypeNull:
		return nil
	case TypeBoolean:
		_, err := d.take(1)
		return err
	case TypeInt, TypeLong:
		_, err := d.ReadLong()
		return err
	case TypeFloat:
		_, err := d.take(4)
		return err
	case TypeDouble:
		_, err := d.take(8)
		return err
	case TypeBytes, TypeString:
		n, err := d.ReadLong()
		if err != nil {
			return err
		}
		if n < 0 {
			return d.formatErr(CodeParseError, "negative length")
		}
		_, err = d.take(int(n))
		return err
	case TypeFixed:
		_, err := d.take(s.Size())
		return err
	case TypeEnum:
		_, err := d.ReadEnum(s)
		return err
	case TypeUnion:
		i, err := d.ReadUnionIndex(s)
		if err != nil {
			return err
		}
		return d.Skip(s.Branches()[i])
	case TypeRecord:
		for _, f := range s.Fields() {
			if err := d.Skip(f.Schema()); err != nil {
				return err
			}
		}
		return nil
	case TypeArray:
		return d.skipBlocks(func() error { return d.Skip(s.Items()) })
	case TypeMap:
		return d.skipBlocks(func() error {
			if err := d.Skip(primitiveSchemas["string"]); err != nil {
				return err
			}
			return d.Skip(s.Values())
		})
	default:
		return issuef("/", CodeInvalidType, "cannot skip %s", s.Type())
	}
}

func (d *BinaryDecoder) skipBlocks(skipItem func() error) error {
	for {
		n, err := d.ReadLong()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if n < 0 {
			size, err := d.ReadLong()
			if err != nil {
				return err
			}
			if size < 0 {
				return d.formatErr(CodeParseError, "negative block size")
			}
			if _, err := d.take(int(size)); err != nil {
				return err
			}
			continue
		}
		for i := int64(0); i < n; i++ {
			if err := skipItem(); err != nil {
				return err
			}
		}
	}
}
