package goserde_test

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	goserde "github.com/reoring/goserde"
)

// ---- Helpers ----

func metricSchema(tb testing.TB) *goserde.Schema {
	tb.Helper()
	s, err := goserde.ParseSchema(`{
		"type": "record",
		"name": "bench.Metric",
		"fields": [
			{"name": "name", "type": "string"},
			{"name": "ts", "type": "long"},
			{"name": "value", "type": "double"},
			{"name": "tags", "type": {"type": "map", "values": "string"}},
			{"name": "samples", "type": {"type": "array", "items": "double"}}
		]
	}`)
	if err != nil {
		tb.Fatalf("schema parse failed: %v", err)
	}
	return s
}

func sampleMetric(s *goserde.Schema, i int) *goserde.Record {
	rec := goserde.NewRecord(s)
	rec.Set("name", fmt.Sprintf("requests.%d", i))
	rec.Set("ts", int64(1700000000000+i))
	rec.Set("value", float64(i)*0.5)
	rec.Set("tags", map[string]any{"host": "app-1", "dc": "eu"})
	rec.Set("samples", []any{0.1, 0.2, 0.3, 0.4})
	return rec
}

func encodeMetricBinary(tb testing.TB, s *goserde.Schema) []byte {
	tb.Helper()
	var buf bytes.Buffer
	if err := goserde.NewDatumWriter(s).Write(sampleMetric(s, 1), goserde.NewBinaryEncoder(&buf)); err != nil {
		tb.Fatalf("encode failed: %v", err)
	}
	return buf.Bytes()
}

func encodeMetricJSON(tb testing.TB, s *goserde.Schema) []byte {
	tb.Helper()
	var buf bytes.Buffer
	if err := goserde.NewDatumWriter(s).Write(sampleMetric(s, 1), goserde.NewJSONEncoder(&buf)); err != nil {
		tb.Fatalf("encode failed: %v", err)
	}
	return buf.Bytes()
}

// ---- Benchmarks ----

func BenchmarkBinaryEncode(b *testing.B) {
	s := metricSchema(b)
	dw := goserde.NewDatumWriter(s)
	rec := sampleMetric(s, 1)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := dw.Write(rec, goserde.NewBinaryEncoder(io.Discard)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBinaryDecode(b *testing.B) {
	s := metricSchema(b)
	wire := encodeMetricBinary(b, s)
	dr := goserde.NewDatumReader(s, nil)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := dr.Read(nil, goserde.NewBinaryDecoder(wire)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBinaryDecode_Reuse(b *testing.B) {
	s := metricSchema(b)
	wire := encodeMetricBinary(b, s)
	dr := goserde.NewDatumReader(s, nil)
	var v any
	var err error
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if v, err = dr.Read(v, goserde.NewBinaryDecoder(wire)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkJSONEncode(b *testing.B) {
	s := metricSchema(b)
	dw := goserde.NewDatumWriter(s)
	rec := sampleMetric(s, 1)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := dw.Write(rec, goserde.NewJSONEncoder(io.Discard)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkJSONDecode(b *testing.B) {
	s := metricSchema(b)
	wire := encodeMetricJSON(b, s)
	dr := goserde.NewDatumReader(s, nil)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := dr.Read(nil, goserde.NewJSONDecoderBytes(wire)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkResolvedDecode(b *testing.B) {
	w := metricSchema(b)
	r, err := goserde.ParseSchema(`{
		"type": "record",
		"name": "bench.Metric",
		"fields": [
			{"name": "name", "type": "string"},
			{"name": "value", "type": "double"},
			{"name": "unit", "type": "string", "default": "count"}
		]
	}`)
	if err != nil {
		b.Fatal(err)
	}
	wire := encodeMetricBinary(b, w)
	dr := goserde.NewDatumReader(w, r)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := dr.Read(nil, goserde.NewBinaryDecoder(wire)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSchemaParse(b *testing.B) {
	text := `{
		"type": "record",
		"name": "bench.Metric",
		"fields": [
			{"name": "name", "type": "string"},
			{"name": "ts", "type": "long"},
			{"name": "value", "type": "double"},
			{"name": "tags", "type": {"type": "map", "values": "string"}},
			{"name": "samples", "type": {"type": "array", "items": "double"}}
		]
	}`
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := goserde.ParseSchema(text); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFingerprint(b *testing.B) {
	s := metricSchema(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Fingerprint64()
	}
}
