// Package logical provides ready-made converters for the standard logical
// types: decimal, uuid, date, time-millis, time-micros, timestamp-millis and
// timestamp-micros. Each converter maps the raw physical value produced by a
// codec to a richer Go representation and back.
//
// Converters are plain values; register the ones you need, or start from
// NewRegistry which preloads all of them:
//
//	reg := logical.NewRegistry()
//	dr, err := goserde.NewDatumReader(w, r, goserde.ReadOpt{Logical: reg})
package logical

import (
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/reoring/goserde"
)

// NewRegistry returns a registry with every converter in this package
// registered.
func NewRegistry() *goserde.LogicalRegistry {
	return goserde.NewLogicalRegistry(
		Decimal{},
		UUID{},
		Date{},
		TimeMillis{},
		TimeMicros{},
		TimestampMillis{},
		TimestampMicros{},
	)
}

func convErr(code, msg string) error {
	return goserde.Issues{{Code: code, Message: msg}}
}

// Decimal converts between the two's-complement big-endian unscaled integer
// carried by bytes or fixed schemas and *big.Rat. The schema's scale gives
// the power of ten dividing the unscaled value.
type Decimal struct{}

func (Decimal) LogicalName() string { return "decimal" }

func (Decimal) Decode(s *goserde.Schema, v any) (any, error) {
	raw, ok := v.([]byte)
	if !ok {
		return nil, convErr(goserde.CodeInvalidType, "decimal expects a byte value")
	}
	unscaled := new(big.Int)
	if len(raw) > 0 {
		unscaled.SetBytes(raw)
		if raw[0]&0x80 != 0 {
			// Undo the two's-complement wraparound for negative values.
			shift := new(big.Int).Lsh(big.NewInt(1), uint(len(raw))*8)
			unscaled.Sub(unscaled, shift)
		}
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(s.Logical().Scale)), nil)
	return new(big.Rat).SetFrac(unscaled, denom), nil
}

func (Decimal) Encode(s *goserde.Schema, v any) (any, error) {
	rat, ok := v.(*big.Rat)
	if !ok {
		return nil, convErr(goserde.CodeInvalidType, "decimal expects a *big.Rat value")
	}
	scale := s.Logical().Scale
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
	scaled := new(big.Rat).Mul(rat, new(big.Rat).SetInt(denom))
	if !scaled.IsInt() {
		return nil, convErr(goserde.CodeInvalidType, "value does not fit in scale "+strconv.Itoa(scale))
	}
	unscaled := scaled.Num()
	raw := twosComplement(unscaled)
	if s.Type() == goserde.TypeFixed {
		if len(raw) > s.Size() {
			return nil, convErr(goserde.CodeSizeMismatch, "decimal overflows fixed size")
		}
		padded := make([]byte, s.Size())
		fill := byte(0)
		if unscaled.Sign() < 0 {
			fill = 0xff
		}
		for i := range padded[:s.Size()-len(raw)] {
			padded[i] = fill
		}
		copy(padded[s.Size()-len(raw):], raw)
		return padded, nil
	}
	return raw, nil
}

// twosComplement renders n as a minimal-length two's-complement big-endian
// byte slice. Zero encodes as a single zero byte.
func twosComplement(n *big.Int) []byte {
	if n.Sign() == 0 {
		return []byte{0}
	}
	if n.Sign() > 0 {
		raw := n.Bytes()
		if raw[0]&0x80 != 0 {
			return append([]byte{0}, raw...)
		}
		return raw
	}
	// Find the smallest width whose sign bit survives.
	width := (n.BitLen() + 8) / 8
	if width == 0 {
		width = 1
	}
	shift := new(big.Int).Lsh(big.NewInt(1), uint(width)*8)
	raw := new(big.Int).Add(n, shift).Bytes()
	if len(raw) < width {
		padded := make([]byte, width)
		for i := range padded[:width-len(raw)] {
			padded[i] = 0xff
		}
		copy(padded[width-len(raw):], raw)
		raw = padded
	}
	for len(raw) > 1 && raw[0] == 0xff && raw[1]&0x80 != 0 {
		raw = raw[1:]
	}
	return raw
}

// UUID converts between the RFC 4122 string form carried by string schemas
// and uuid.UUID.
type UUID struct{}

func (UUID) LogicalName() string { return "uuid" }

func (UUID) Decode(_ *goserde.Schema, v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, convErr(goserde.CodeInvalidType, "uuid expects a string value")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, convErr(goserde.CodeInvalidType, "malformed uuid: "+err.Error())
	}
	return id, nil
}

func (UUID) Encode(_ *goserde.Schema, v any) (any, error) {
	switch id := v.(type) {
	case uuid.UUID:
		return id.String(), nil
	case string:
		if _, err := uuid.Parse(id); err != nil {
			return nil, convErr(goserde.CodeInvalidType, "malformed uuid: "+err.Error())
		}
		return id, nil
	}
	return nil, convErr(goserde.CodeInvalidType, "uuid expects a uuid.UUID value")
}

// Date converts between the day count carried by int schemas and a UTC
// time.Time at midnight.
type Date struct{}

func (Date) LogicalName() string { return "date" }

func (Date) Decode(_ *goserde.Schema, v any) (any, error) {
	days, ok := v.(int32)
	if !ok {
		return nil, convErr(goserde.CodeInvalidType, "date expects an int value")
	}
	return time.Unix(int64(days)*86400, 0).UTC(), nil
}

func (Date) Encode(_ *goserde.Schema, v any) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, convErr(goserde.CodeInvalidType, "date expects a time.Time value")
	}
	secs := t.Unix()
	days := secs / 86400
	// Floor toward earlier days so pre-epoch times inside a day still land on
	// that day, mirroring Decode.
	if secs%86400 != 0 && secs < 0 {
		days--
	}
	return int32(days), nil
}

// TimeMillis converts between milliseconds past midnight carried by int
// schemas and time.Duration.
type TimeMillis struct{}

func (TimeMillis) LogicalName() string { return "time-millis" }

func (TimeMillis) Decode(_ *goserde.Schema, v any) (any, error) {
	ms, ok := v.(int32)
	if !ok {
		return nil, convErr(goserde.CodeInvalidType, "time-millis expects an int value")
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func (TimeMillis) Encode(_ *goserde.Schema, v any) (any, error) {
	d, ok := v.(time.Duration)
	if !ok {
		return nil, convErr(goserde.CodeInvalidType, "time-millis expects a time.Duration value")
	}
	return int32(d / time.Millisecond), nil
}

// TimeMicros converts between microseconds past midnight carried by long
// schemas and time.Duration.
type TimeMicros struct{}

func (TimeMicros) LogicalName() string { return "time-micros" }

func (TimeMicros) Decode(_ *goserde.Schema, v any) (any, error) {
	us, ok := v.(int64)
	if !ok {
		return nil, convErr(goserde.CodeInvalidType, "time-micros expects a long value")
	}
	return time.Duration(us) * time.Microsecond, nil
}

func (TimeMicros) Encode(_ *goserde.Schema, v any) (any, error) {
	d, ok := v.(time.Duration)
	if !ok {
		return nil, convErr(goserde.CodeInvalidType, "time-micros expects a time.Duration value")
	}
	return int64(d / time.Microsecond), nil
}

// TimestampMillis converts between the epoch millisecond count carried by
// long schemas and a UTC time.Time.
type TimestampMillis struct{}

func (TimestampMillis) LogicalName() string { return "timestamp-millis" }

func (TimestampMillis) Decode(_ *goserde.Schema, v any) (any, error) {
	ms, ok := v.(int64)
	if !ok {
		return nil, convErr(goserde.CodeInvalidType, "timestamp-millis expects a long value")
	}
	return time.UnixMilli(ms).UTC(), nil
}

func (TimestampMillis) Encode(_ *goserde.Schema, v any) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, convErr(goserde.CodeInvalidType, "timestamp-millis expects a time.Time value")
	}
	return t.UnixMilli(), nil
}

// TimestampMicros converts between the epoch microsecond count carried by
// long schemas and a UTC time.Time.
type TimestampMicros struct{}

func (TimestampMicros) LogicalName() string { return "timestamp-micros" }

func (TimestampMicros) Decode(_ *goserde.Schema, v any) (any, error) {
	us, ok := v.(int64)
	if !ok {
		return nil, convErr(goserde.CodeInvalidType, "timestamp-micros expects a long value")
	}
	return time.UnixMicro(us).UTC(), nil
}

func (TimestampMicros) Encode(_ *goserde.Schema, v any) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, convErr(goserde.CodeInvalidType, "timestamp-micros expects a time.Time value")
	}
	return t.UnixMicro(), nil
}
