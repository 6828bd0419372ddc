package goserde_test

import (
	"bytes"
	"testing"

	goserde "github.com/reoring/goserde"
)

const eventSchemaText = `{
	"type": "record",
	"name": "example.Event",
	"fields": [
		{"name": "id", "type": "string"},
		{"name": "seq", "type": "long"},
		{"name": "kind", "type": {"type": "enum", "name": "Kind", "symbols": ["CREATE", "UPDATE", "DELETE"]}},
		{"name": "payload", "type": ["null", "bytes"], "default": null},
		{"name": "tags", "type": {"type": "array", "items": "string"}},
		{"name": "attrs", "type": {"type": "map", "values": "double"}},
		{"name": "checksum", "type": {"type": "fixed", "name": "Sum", "size": 4}}
	]
}`

func sampleEvent(s *goserde.Schema) *goserde.Record {
	rec := goserde.NewRecord(s)
	rec.Set("id", "evt-1")
	rec.Set("seq", int64(1001))
	rec.Set("kind", goserde.EnumSymbol("UPDATE"))
	rec.Set("payload", []byte{0x00, 0xff})
	rec.Set("tags", []any{"x", "y"})
	rec.Set("attrs", map[string]any{"load": 0.25, "mem": 0.5})
	rec.Set("checksum", []byte{1, 2, 3, 4})
	return rec
}

func assertSampleEvent(t *testing.T, got any) {
	t.Helper()
	rec, ok := got.(*goserde.Record)
	if !ok {
		t.Fatalf("want *Record, got %T", got)
	}
	checks := []struct {
		field string
		want  any
	}{
		{"id", "evt-1"},
		{"seq", int64(1001)},
		{"kind", goserde.EnumSymbol("UPDATE")},
		{"tags", []any{"x", "y"}},
	}
	for _, c := range checks {
		v, _ := rec.Get(c.field)
		switch want := c.want.(type) {
		case []any:
			lst := v.([]any)
			if len(lst) != len(want) {
				t.Fatalf("%s: %v", c.field, v)
			}
			for i := range want {
				if lst[i] != want[i] {
					t.Fatalf("%s[%d]: %v", c.field, i, lst[i])
				}
			}
		default:
			if v != c.want {
				t.Fatalf("%s: got %v, want %v", c.field, v, c.want)
			}
		}
	}
	payload, _ := rec.Get("payload")
	if !bytes.Equal(payload.([]byte), []byte{0x00, 0xff}) {
		t.Fatalf("payload: %x", payload)
	}
	attrs, _ := rec.Get("attrs")
	if m := attrs.(map[string]any); m["load"] != 0.25 || m["mem"] != 0.5 {
		t.Fatalf("attrs: %v", attrs)
	}
	sum, _ := rec.Get("checksum")
	if !bytes.Equal(sum.([]byte), []byte{1, 2, 3, 4}) {
		t.Fatalf("checksum: %x", sum)
	}
}

func TestRoundTrip_Binary(t *testing.T) {
	s := goserde.MustParseSchema(eventSchemaText)
	var buf bytes.Buffer
	dw := goserde.NewDatumWriter(s)
	if err := dw.Write(sampleEvent(s), goserde.NewBinaryEncoder(&buf)); err != nil {
		t.Fatal(err)
	}
	dr := goserde.NewDatumReader(s, nil)
	got, err := dr.Read(nil, goserde.NewBinaryDecoder(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	assertSampleEvent(t, got)
}

func TestRoundTrip_JSON(t *testing.T) {
	s := goserde.MustParseSchema(eventSchemaText)
	var buf bytes.Buffer
	dw := goserde.NewDatumWriter(s)
	if err := dw.Write(sampleEvent(s), goserde.NewJSONEncoder(&buf)); err != nil {
		t.Fatal(err)
	}
	dr := goserde.NewDatumReader(s, nil)
	got, err := dr.Read(nil, goserde.NewJSONDecoderBytes(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	assertSampleEvent(t, got)
}

func TestRoundTrip_JSONFieldOrderIsDeclared(t *testing.T) {
	s := goserde.MustParseSchema(`{
		"type": "record", "name": "R",
		"fields": [
			{"name": "z", "type": "int"},
			{"name": "a", "type": "int"},
			{"name": "m", "type": "int"}
		]
	}`)
	rec := goserde.NewRecord(s)
	rec.Set("z", int32(1))
	rec.Set("a", int32(2))
	rec.Set("m", int32(3))
	var buf bytes.Buffer
	if err := goserde.NewDatumWriter(s).Write(rec, goserde.NewJSONEncoder(&buf)); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), `{"z":1,"a":2,"m":3}`; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestRoundTrip_UnionJSON(t *testing.T) {
	s := goserde.MustParseSchema(`{
		"type": "record", "name": "R",
		"fields": [{"name": "v", "type": ["null", "long", "string"]}]
	}`)
	cases := []struct {
		set  any
		wire string
	}{
		{nil, `{"v":null}`},
		{int64(12), `{"v":{"long":12}}`},
		{"s", `{"v":{"string":"s"}}`},
	}
	for _, c := range cases {
		rec := goserde.NewRecord(s)
		rec.Set("v", c.set)
		var buf bytes.Buffer
		if err := goserde.NewDatumWriter(s).Write(rec, goserde.NewJSONEncoder(&buf)); err != nil {
			t.Fatal(err)
		}
		if buf.String() != c.wire {
			t.Fatalf("got %s, want %s", buf.String(), c.wire)
		}
		got, err := goserde.NewDatumReader(s, nil).Read(nil, goserde.NewJSONDecoderBytes(buf.Bytes()))
		if err != nil {
			t.Fatal(err)
		}
		v, _ := got.(*goserde.Record).Get("v")
		if v != c.set {
			t.Fatalf("round trip: got %v, want %v", v, c.set)
		}
	}
}

func TestRoundTrip_Reuse(t *testing.T) {
	s := goserde.MustParseSchema(eventSchemaText)
	dw := goserde.NewDatumWriter(s)
	dr := goserde.NewDatumReader(s, nil)

	var first bytes.Buffer
	if err := dw.Write(sampleEvent(s), goserde.NewBinaryEncoder(&first)); err != nil {
		t.Fatal(err)
	}
	got, err := dr.Read(nil, goserde.NewBinaryDecoder(first.Bytes()))
	if err != nil {
		t.Fatal(err)
	}

	second := sampleEvent(s)
	second.Set("id", "evt-2")
	second.Set("seq", int64(1002))
	var buf bytes.Buffer
	if err := dw.Write(second, goserde.NewBinaryEncoder(&buf)); err != nil {
		t.Fatal(err)
	}
	reused, err := dr.Read(got, goserde.NewBinaryDecoder(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if reused != got {
		t.Fatal("reuse must keep the record allocation")
	}
	id, _ := reused.(*goserde.Record).Get("id")
	if id != "evt-2" {
		t.Fatalf("id: %v", id)
	}
}

func TestRoundTrip_DeeplyNested(t *testing.T) {
	s := goserde.MustParseSchema(`{
		"type": "record", "name": "Tree",
		"fields": [
			{"name": "label", "type": "string"},
			{"name": "children", "type": {"type": "array", "items": "Tree"}}
		]
	}`)
	leaf := func(label string) *goserde.Record {
		r := goserde.NewRecord(s)
		r.Set("label", label)
		r.Set("children", []any{})
		return r
	}
	root := goserde.NewRecord(s)
	root.Set("label", "root")
	root.Set("children", []any{leaf("l"), leaf("r")})

	var buf bytes.Buffer
	if err := goserde.NewDatumWriter(s).Write(root, goserde.NewBinaryEncoder(&buf)); err != nil {
		t.Fatal(err)
	}
	got, err := goserde.NewDatumReader(s, nil).Read(nil, goserde.NewBinaryDecoder(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	children, _ := got.(*goserde.Record).Get("children")
	kids := children.([]any)
	if len(kids) != 2 {
		t.Fatalf("children: %v", kids)
	}
	label, _ := kids[1].(*goserde.Record).Get("label")
	if label != "r" {
		t.Fatalf("label: %v", label)
	}
}

func TestWriter_MissingFieldUsesDefault(t *testing.T) {
	s := goserde.MustParseSchema(`{
		"type": "record", "name": "R",
		"fields": [{"name": "a", "type": "int", "default": 5}]
	}`)
	// A view that knows no fields at all still encodes via defaults.
	var buf bytes.Buffer
	dw := goserde.NewDatumWriter(s, goserde.WriteOpt{Model: sparseModel{goserde.GenericModel}})
	if err := dw.Write(emptyView{}, goserde.NewJSONEncoder(&buf)); err != nil {
		t.Fatal(err)
	}
	if buf.String() != `{"a":5}` {
		t.Fatalf("got %s", buf.String())
	}
}

// emptyView is a record view with no fields, standing in for caller models
// that omit optional data.
type emptyView struct{}

func (emptyView) SchemaName() string             { return "" }
func (emptyView) FieldByName(string) (any, bool) { return nil, false }

// sparseModel layers emptyView recognition over an existing model.
type sparseModel struct{ goserde.Model }

func (m sparseModel) AsRecord(v any) (goserde.RecordView, bool) {
	if ev, ok := v.(emptyView); ok {
		return ev, true
	}
	return m.Model.AsRecord(v)
}

func TestWriter_TypeMismatch(t *testing.T) {
	s := goserde.MustParseSchema(`"int"`)
	var buf bytes.Buffer
	err := goserde.NewDatumWriter(s).Write("oops", goserde.NewBinaryEncoder(&buf))
	if err == nil || !goserde.IsResolutionError(err) {
		t.Fatalf("mismatch: %v", err)
	}
}
