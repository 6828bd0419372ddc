package goserde_test

import (
	"strings"
	"testing"

	goserde "github.com/reoring/goserde"
)

func TestParseSchema_Primitives(t *testing.T) {
	cases := []struct {
		text string
		want goserde.Type
	}{
		{`"null"`, goserde.TypeNull},
		{`"boolean"`, goserde.TypeBoolean},
		{`"int"`, goserde.TypeInt},
		{`"long"`, goserde.TypeLong},
		{`"float"`, goserde.TypeFloat},
		{`"double"`, goserde.TypeDouble},
		{`"bytes"`, goserde.TypeBytes},
		{`"string"`, goserde.TypeString},
		{`{"type":"int"}`, goserde.TypeInt},
	}
	for _, c := range cases {
		s, err := goserde.ParseSchema(c.text)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.text, err)
		}
		if s.Type() != c.want {
			t.Fatalf("%s: want %v, got %v", c.text, c.want, s.Type())
		}
	}
}

func TestParseSchema_Record(t *testing.T) {
	s, err := goserde.ParseSchema(`{
		"type": "record",
		"name": "Person",
		"namespace": "example",
		"doc": "a person",
		"fields": [
			{"name": "name", "type": "string"},
			{"name": "age", "type": "int", "default": 0},
			{"name": "nick", "type": ["null", "string"], "default": null, "aliases": ["handle"]}
		]
	}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.FullName() != "example.Person" {
		t.Fatalf("want example.Person, got %q", s.FullName())
	}
	if s.Doc() != "a person" {
		t.Fatalf("doc not kept: %q", s.Doc())
	}
	if len(s.Fields()) != 3 {
		t.Fatalf("want 3 fields, got %d", len(s.Fields()))
	}
	age, ok := s.Field("age")
	if !ok {
		t.Fatal("field age missing")
	}
	if _, has := age.Default(); !has {
		t.Fatal("age default missing")
	}
	nick, _ := s.Field("nick")
	if got := nick.Aliases(); len(got) != 1 || got[0] != "handle" {
		t.Fatalf("nick aliases: %v", got)
	}
	if dv, has := nick.Default(); !has || dv != nil {
		t.Fatalf("nick default should be present null, got %v %v", dv, has)
	}
}

func TestParseSchema_NamespaceInheritance(t *testing.T) {
	s := goserde.MustParseSchema(`{
		"type": "record",
		"name": "outer.A",
		"fields": [
			{"name": "b", "type": {"type": "record", "name": "B", "fields": []}},
			{"name": "c", "type": {"type": "fixed", "name": "other.C", "size": 2}}
		]
	}`)
	b, _ := s.Field("b")
	if b.Schema().FullName() != "outer.B" {
		t.Fatalf("nested record should inherit namespace, got %q", b.Schema().FullName())
	}
	c, _ := s.Field("c")
	if c.Schema().FullName() != "other.C" {
		t.Fatalf("dotted name overrides namespace, got %q", c.Schema().FullName())
	}
}

func TestParseSchema_RecursiveReference(t *testing.T) {
	s := goserde.MustParseSchema(`{
		"type": "record",
		"name": "Node",
		"fields": [
			{"name": "value", "type": "long"},
			{"name": "next", "type": ["null", "Node"], "default": null}
		]
	}`)
	next, _ := s.Field("next")
	branch := next.Schema().Branches()[1]
	if branch != s {
		t.Fatal("self reference must resolve to the same schema node")
	}
}

func TestParseSchema_ForwardReference(t *testing.T) {
	s := goserde.MustParseSchema(`{
		"type": "record",
		"name": "Pair",
		"fields": [
			{"name": "left", "type": "Leaf"},
			{"name": "right", "type": {"type": "record", "name": "Leaf", "fields": [{"name": "v", "type": "int"}]}}
		]
	}`)
	left, _ := s.Field("left")
	right, _ := s.Field("right")
	if left.Schema() != right.Schema() {
		t.Fatal("forward reference must resolve to the defined node")
	}
	if left.Schema().Type() != goserde.TypeRecord {
		t.Fatalf("forward reference left unfilled: %v", left.Schema().Type())
	}
}

func TestParseSchema_Enum(t *testing.T) {
	s := goserde.MustParseSchema(`{
		"type": "enum",
		"name": "Suit",
		"symbols": ["SPADES", "HEARTS", "DIAMONDS", "CLUBS"],
		"default": "SPADES"
	}`)
	if got := s.Symbols(); len(got) != 4 || got[1] != "HEARTS" {
		t.Fatalf("symbols: %v", got)
	}
	if i, ok := s.SymbolIndex("CLUBS"); !ok || i != 3 {
		t.Fatalf("SymbolIndex(CLUBS) = %d, %v", i, ok)
	}
	if def, ok := s.EnumDefault(); !ok || def != "SPADES" {
		t.Fatalf("enum default: %q %v", def, ok)
	}
}

func TestParseSchema_Errors(t *testing.T) {
	cases := []struct {
		name string
		text string
		code string
	}{
		{"not json", `{`, goserde.CodeSchemaParse},
		{"unknown type", `"wat"`, goserde.CodeUnknownName},
		{"bad name", `{"type":"record","name":"9lives","fields":[]}`, goserde.CodeSchemaParse},
		{"missing fields", `{"type":"record","name":"R"}`, goserde.CodeSchemaParse},
		{"duplicate field", `{"type":"record","name":"R","fields":[{"name":"a","type":"int"},{"name":"a","type":"int"}]}`, goserde.CodeDuplicateName},
		{"duplicate definition", `{"type":"record","name":"R","fields":[
			{"name":"a","type":{"type":"enum","name":"E","symbols":["X"]}},
			{"name":"b","type":{"type":"enum","name":"E","symbols":["Y"]}}]}`, goserde.CodeDuplicateName},
		{"duplicate symbol", `{"type":"enum","name":"E","symbols":["A","A"]}`, goserde.CodeDuplicateName},
		{"enum default not member", `{"type":"enum","name":"E","symbols":["A"],"default":"B"}`, goserde.CodeBadDefault},
		{"fixed without size", `{"type":"fixed","name":"F"}`, goserde.CodeSchemaParse},
		{"negative fixed size", `{"type":"fixed","name":"F","size":-1}`, goserde.CodeSchemaParse},
		{"union duplicate branch", `["int","int"]`, goserde.CodeUnionAmbiguous},
		{"union duplicate named branch", `[{"type":"fixed","name":"F","size":1},"F"]`, goserde.CodeUnionAmbiguous},
		{"union two nulls", `["null","int","null"]`, goserde.CodeUnionAmbiguous},
		{"union nested union", `["int",["string","long"]]`, goserde.CodeUnionAmbiguous},
		{"unresolved forward ref", `{"type":"record","name":"R","fields":[{"name":"x","type":"Missing"}]}`, goserde.CodeUnknownName},
		{"default type mismatch", `{"type":"record","name":"R","fields":[{"name":"a","type":"int","default":"no"}]}`, goserde.CodeBadDefault},
		{"union default wrong branch", `{"type":"record","name":"R","fields":[{"name":"a","type":["null","int"],"default":7}]}`, goserde.CodeBadDefault},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := goserde.ParseSchema(c.text)
			if err == nil {
				t.Fatal("expected error")
			}
			if !goserde.IsSchemaError(err) {
				t.Fatalf("expected a schema error, got %v", err)
			}
			iss, _ := goserde.AsIssues(err)
			found := false
			for _, is := range iss {
				if is.Code == c.code {
					found = true
				}
			}
			if !found {
				t.Fatalf("want code %s, got %v", c.code, err)
			}
		})
	}
}

func TestParseSchema_LogicalTypes(t *testing.T) {
	s := goserde.MustParseSchema(`{"type":"bytes","logicalType":"decimal","precision":9,"scale":2}`)
	lt := s.Logical()
	if lt == nil || lt.Name != "decimal" || lt.Precision != 9 || lt.Scale != 2 {
		t.Fatalf("decimal logical: %+v", lt)
	}

	// Malformed decimal parameters drop the annotation rather than failing
	// the schema.
	s = goserde.MustParseSchema(`{"type":"bytes","logicalType":"decimal","precision":0}`)
	if s.Logical() != nil {
		t.Fatalf("zero precision should drop the annotation, got %+v", s.Logical())
	}
	s = goserde.MustParseSchema(`{"type":"bytes","logicalType":"decimal","precision":3,"scale":4}`)
	if s.Logical() != nil {
		t.Fatalf("scale above precision should drop the annotation, got %+v", s.Logical())
	}

	// Unknown logical names ride along on the physical type.
	s = goserde.MustParseSchema(`{"type":"string","logicalType":"ksuid"}`)
	if s.Type() != goserde.TypeString || s.Logical().Name != "ksuid" {
		t.Fatalf("unknown logical: %v %+v", s.Type(), s.Logical())
	}

	// A logical name on the wrong physical type is ignored, not an error.
	s = goserde.MustParseSchema(`{"type":"string","logicalType":"date"}`)
	if s.Logical() != nil {
		t.Fatalf("date on string should be dropped, got %+v", s.Logical())
	}
}

func TestSchemaEqual(t *testing.T) {
	a := goserde.MustParseSchema(`{"type":"array","items":"int"}`)
	b := goserde.MustParseSchema(`{"type":"array","items":{"type":"int"}}`)
	if !goserde.Equal(a, b) {
		t.Fatal("structurally identical arrays must be equal")
	}
	c := goserde.MustParseSchema(`{"type":"array","items":"long"}`)
	if goserde.Equal(a, c) {
		t.Fatal("different item types must not be equal")
	}
	r1 := goserde.MustParseSchema(`{"type":"record","name":"R","fields":[{"name":"a","type":"int"}]}`)
	r2 := goserde.MustParseSchema(`{"type":"record","name":"R","fields":[{"name":"b","type":"string"}]}`)
	if !goserde.Equal(r1, r2) {
		t.Fatal("named schemas compare by full name")
	}
}

func TestCanonical(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{`"int"`, `"int"`},
		{`{"type":"int"}`, `"int"`},
		{`{"type":"array","items":"string","extra":true}`, `{"type":"array","items":"string"}`},
		{
			`{"type":"record","namespace":"x","name":"R","doc":"d","fields":[{"name":"a","type":"int","default":1,"doc":"f"}]}`,
			`{"name":"x.R","type":"record","fields":[{"name":"a","type":"int"}]}`,
		},
		{
			`{"type":"enum","name":"E","symbols":["A","B"],"default":"A"}`,
			`{"name":"E","type":"enum","symbols":["A","B"]}`,
		},
		{
			`{"type":"fixed","name":"F","size":16,"aliases":["G"]}`,
			`{"name":"F","type":"fixed","size":16}`,
		},
		{`["null","int"]`, `["null","int"]`},
	}
	for _, c := range cases {
		s := goserde.MustParseSchema(c.text)
		if got := s.Canonical(); got != c.want {
			t.Fatalf("canonical(%s):\n want %s\n  got %s", c.text, c.want, got)
		}
	}
}

func TestCanonical_NamedReference(t *testing.T) {
	s := goserde.MustParseSchema(`{
		"type": "record",
		"name": "Node",
		"fields": [{"name": "next", "type": ["null", "Node"]}]
	}`)
	want := `{"name":"Node","type":"record","fields":[{"name":"next","type":["null","Node"]}]}`
	if got := s.Canonical(); got != want {
		t.Fatalf("recursive canonical:\n want %s\n  got %s", want, got)
	}
}

func TestFingerprint_Stability(t *testing.T) {
	a := goserde.MustParseSchema(`{"type":"record","name":"R","fields":[{"name":"a","type":"int","doc":"x"}]}`)
	b := goserde.MustParseSchema(`{"fields":[{"type":"int","name":"a"}],"type":"record","name":"R"}`)
	if a.Fingerprint64() != b.Fingerprint64() {
		t.Fatal("fingerprint must ignore attribute order and docs")
	}
	if a.FingerprintCRC64() != b.FingerprintCRC64() {
		t.Fatal("CRC fingerprint must ignore attribute order and docs")
	}
	c := goserde.MustParseSchema(`{"type":"record","name":"R","fields":[{"name":"a","type":"long"}]}`)
	if a.Fingerprint64() == c.Fingerprint64() {
		t.Fatal("different schemas must not collide here")
	}
}

func TestFingerprintCRC64_KnownValues(t *testing.T) {
	// Reference values for the 64-bit fingerprint of one-word canonical forms.
	cases := []struct {
		text string
		want uint64
	}{
		{`"null"`, 0x63dd24e7cc258f8a},
		{`"int"`, 0x7275d51a3f395c8f},
		{`"string"`, 0x8f014872634503c7},
	}
	for _, c := range cases {
		if got := goserde.MustParseSchema(c.text).FingerprintCRC64(); got != c.want {
			t.Fatalf("crc64(%s) = %#x, want %#x", c.text, got, c.want)
		}
	}
}

func TestParseSchemaYAML(t *testing.T) {
	s, err := goserde.ParseSchemaYAML(`
type: record
name: Event
fields:
  - name: id
    type: string
  - name: count
    type: int
    default: 0
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.FullName() != "Event" || len(s.Fields()) != 2 {
		t.Fatalf("yaml parse: %s with %d fields", s.FullName(), len(s.Fields()))
	}
	js := goserde.MustParseSchema(`{"type":"record","name":"Event","fields":[{"name":"id","type":"string"},{"name":"count","type":"int","default":0}]}`)
	if s.Canonical() != js.Canonical() {
		t.Fatal("yaml and json forms must agree")
	}
}

func TestIssues_ErrorText(t *testing.T) {
	_, err := goserde.ParseSchema(`{"type":"enum","name":"E","symbols":["A","A"]}`)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), goserde.CodeDuplicateName) {
		t.Fatalf("error text should carry the code: %v", err)
	}
}
