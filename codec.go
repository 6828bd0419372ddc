package goserde

// Decoder pulls primitive values and structural markers off an encoded stream.
// The datum reader drives it by walking the writer schema, so implementations
// stay schema-oblivious except where the wire form itself needs schema context
// (enum and union indexes, record field lookup in the textual form).
//
// A Decoder backs exactly one in-flight read and is not safe for concurrent
// use. After a format error the stream position is undefined.
type Decoder interface {
	ReadNull() error
	ReadBoolean() (bool, error)
	ReadInt() (int32, error)
	ReadLong() (int64, error)
	ReadFloat() (float32, error)
	ReadDouble() (float64, error)
	ReadBytes() ([]byte, error)
	ReadString() (string, error)
	ReadFixed(size int) ([]byte, error)

	// ReadEnum returns the symbol's declaration index, range-checked against s.
	ReadEnum(s *Schema) (int, error)
	// ReadUnionIndex returns the branch actually present in the data.
	ReadUnionIndex(s *Schema) (int, error)

	// Arrays and maps are consumed in runs: Start returns the first run's item
	// count, Next each following run's; a zero count ends the container.
	ReadArrayStart() (int64, error)
	ReadArrayNext() (int64, error)
	ReadMapStart() (int64, error)
	ReadMapNext() (int64, error)
	ReadMapKey() (string, error)

	// ReadRecordStart enters a record value. ReadField positions the decoder
	// at the given writer field; callers iterate writer fields in declaration
	// order, which the binary form requires and the textual form tolerates.
	// present=false means the input carries no value for the field (textual
	// form only) and the caller decides between a default and an error.
	ReadRecordStart(s *Schema) error
	ReadField(f *Field) (present bool, err error)
	ReadRecordEnd(s *Schema) error

	// Skip consumes exactly the value a read of s would, without building it.
	Skip(s *Schema) error
}

// Encoder is the write-side mirror of Decoder.
//
// An Encoder backs exactly one in-flight write and is not safe for concurrent
// use.
type Encoder interface {
	WriteNull() error
	WriteBoolean(v bool) error
	WriteInt(v int32) error
	WriteLong(v int64) error
	WriteFloat(v float32) error
	WriteDouble(v float64) error
	WriteBytes(v []byte) error
	WriteString(v string) error
	WriteFixed(v []byte) error

	WriteEnum(s *Schema, index int) error
	// WriteUnionIndex commits to a branch; the branch's value must follow.
	WriteUnionIndex(s *Schema, index int) error

	WriteArrayStart(n int) error
	WriteArrayEnd() error
	WriteMapStart(n int) error
	WriteMapKey(k string) error
	WriteMapEnd() error

	WriteRecordStart(s *Schema) error
	WriteFieldName(f *Field) error
	WriteRecordEnd(s *Schema) error

	// Flush forces any buffered output to the underlying sink.
	Flush() error
}
