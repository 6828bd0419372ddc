package logical_test

import (
	"bytes"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goserde "github.com/reoring/goserde"
	"github.com/reoring/goserde/logical"
)

// roundTrip encodes v under s with the full registry and reads it back.
func roundTrip(t *testing.T, s *goserde.Schema, v any) any {
	t.Helper()
	reg := logical.NewRegistry()
	var buf bytes.Buffer
	dw := goserde.NewDatumWriter(s, goserde.WriteOpt{Logical: reg})
	require.NoError(t, dw.Write(v, goserde.NewBinaryEncoder(&buf)))
	dr := goserde.NewDatumReader(s, nil, goserde.ReadOpt{Logical: reg})
	got, err := dr.Read(nil, goserde.NewBinaryDecoder(buf.Bytes()))
	require.NoError(t, err)
	return got
}

func TestUUID(t *testing.T) {
	s := goserde.MustParseSchema(`{"type":"string","logicalType":"uuid"}`)
	id := uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	got := roundTrip(t, s, id)
	assert.Equal(t, id, got)

	_, err := logical.UUID{}.Decode(s, "not-a-uuid")
	require.Error(t, err)
	assert.True(t, goserde.IsResolutionError(err))
}

func TestTimestampMillis(t *testing.T) {
	s := goserde.MustParseSchema(`{"type":"long","logicalType":"timestamp-millis"}`)
	at := time.Date(2024, 5, 17, 10, 30, 0, 250_000_000, time.UTC)
	got := roundTrip(t, s, at)
	assert.Equal(t, at, got)
}

func TestTimestampMicros(t *testing.T) {
	s := goserde.MustParseSchema(`{"type":"long","logicalType":"timestamp-micros"}`)
	at := time.Date(1969, 12, 31, 23, 59, 59, 999_999_000, time.UTC)
	got := roundTrip(t, s, at)
	assert.Equal(t, at, got)
}

func TestDate(t *testing.T) {
	s := goserde.MustParseSchema(`{"type":"int","logicalType":"date"}`)
	day := time.Date(2001, 9, 9, 0, 0, 0, 0, time.UTC)
	got := roundTrip(t, s, day)
	assert.Equal(t, day, got)

	// Day zero is the epoch itself.
	v, err := logical.Date{}.Decode(s, int32(0))
	require.NoError(t, err)
	assert.Equal(t, time.Unix(0, 0).UTC(), v)

	// A pre-epoch instant inside a day belongs to that day, not the next one.
	noon := time.Date(1969, 12, 31, 12, 0, 0, 0, time.UTC)
	enc, err := logical.Date{}.Encode(s, noon)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), enc)
	assert.Equal(t, time.Date(1969, 12, 31, 0, 0, 0, 0, time.UTC), roundTrip(t, s, noon))
}

func TestTimeOfDay(t *testing.T) {
	millis := goserde.MustParseSchema(`{"type":"int","logicalType":"time-millis"}`)
	d := 11*time.Hour + 22*time.Minute + 333*time.Millisecond
	assert.Equal(t, d, roundTrip(t, millis, d))

	micros := goserde.MustParseSchema(`{"type":"long","logicalType":"time-micros"}`)
	d = 23*time.Hour + 59*time.Minute + 59*time.Second + 999999*time.Microsecond
	assert.Equal(t, d, roundTrip(t, micros, d))
}

func TestDecimal_Bytes(t *testing.T) {
	s := goserde.MustParseSchema(`{"type":"bytes","logicalType":"decimal","precision":10,"scale":2}`)
	cases := []*big.Rat{
		big.NewRat(0, 1),
		big.NewRat(123456, 100),  // 1234.56
		big.NewRat(-123456, 100), // -1234.56
		big.NewRat(-1, 100),      // -0.01
		big.NewRat(5, 1),
	}
	for _, v := range cases {
		got := roundTrip(t, s, v)
		assert.Equal(t, 0, v.Cmp(got.(*big.Rat)), "value %s", v)
	}

	// Values the scale cannot carry are rejected on encode.
	_, err := logical.Decimal{}.Encode(s, big.NewRat(1, 1000))
	require.Error(t, err)
}

func TestDecimal_Wire(t *testing.T) {
	s := goserde.MustParseSchema(`{"type":"bytes","logicalType":"decimal","precision":4,"scale":2}`)
	// -0.01 is the single byte 0xff in two's complement.
	raw, err := logical.Decimal{}.Encode(s, big.NewRat(-1, 100))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff}, raw)

	// 1.28 scales to 128, which needs a leading zero to stay positive.
	raw, err = logical.Decimal{}.Encode(s, big.NewRat(128, 100))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x80}, raw)

	back, err := logical.Decimal{}.Decode(s, []byte{0x00, 0x80})
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewRat(128, 100).Cmp(back.(*big.Rat)))
}

func TestDecimal_Fixed(t *testing.T) {
	s := goserde.MustParseSchema(`{"type":"fixed","name":"Dec","size":4,"logicalType":"decimal","precision":9,"scale":0}`)
	raw, err := logical.Decimal{}.Encode(s, big.NewRat(-2, 1))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xfe}, raw)

	back, err := logical.Decimal{}.Decode(s, raw.([]byte))
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewRat(-2, 1).Cmp(back.(*big.Rat)))

	got := roundTrip(t, s, big.NewRat(1000000, 1))
	assert.Equal(t, 0, big.NewRat(1000000, 1).Cmp(got.(*big.Rat)))
}

func TestRegistry_UnregisteredNamePassesThrough(t *testing.T) {
	s := goserde.MustParseSchema(`{"type":"string","logicalType":"ksuid"}`)
	reg := logical.NewRegistry()
	var buf bytes.Buffer
	dw := goserde.NewDatumWriter(s, goserde.WriteOpt{Logical: reg})
	require.NoError(t, dw.Write("raw-value", goserde.NewBinaryEncoder(&buf)))
	dr := goserde.NewDatumReader(s, nil, goserde.ReadOpt{Logical: reg})
	got, err := dr.Read(nil, goserde.NewBinaryDecoder(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "raw-value", got)
}
