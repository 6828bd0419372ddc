package goserde

import (
	"strconv"
	"strings"
)

// Canonical renders the schema's parsing canonical form: full names, reserved
// keys only, fixed key order, no whitespace. Aliases, defaults, docs, field
// order directives, and logical annotations are all stripped. Two schemas with
// the same canonical form encode and decode identically.
//
// A named type is written in full at its first occurrence and referenced by
// full name afterwards, which keeps the output finite for recursive schemas.
func (s *Schema) Canonical() string {
	var b strings.Builder
	writeCanonical(&b, s, map[string]bool{})
	return b.String()
}

func writeCanonical(b *strings.Builder, s *Schema, env map[string]bool) {
	switch s.typ {
	case TypeUnion:
		b.WriteByte('[')
		for i, br := range s.branches {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, br, env)
		}
		b.WriteByte(']')
	case TypeArray:
		b.WriteString(`{"type":"array","items":`)
		writeCanonical(b, s.items, env)
		b.WriteByte('}')
	case TypeMap:
		b.WriteString(`{"type":"map","values":`)
		writeCanonical(b, s.values, env)
		b.WriteByte('}')
	case TypeRecord, TypeEnum, TypeFixed:
		full := s.FullName()
		if env[full] {
			writeQuoted(b, full)
			return
		}
		env[full] = true
		b.WriteString(`{"name":`)
		writeQuoted(b, full)
		b.WriteString(`,"type":"`)
		b.WriteString(s.typ.String())
		b.WriteByte('"')
		switch s.typ {
		case TypeRecord:
			b.WriteString(`,"fields":[`)
			for i, f := range s.fields {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteString(`{"name":`)
				writeQuoted(b, f.name)
				b.WriteString(`,"type":`)
				writeCanonical(b, f.schema, env)
				b.WriteByte('}')
			}
			b.WriteByte(']')
		case TypeEnum:
			b.WriteString(`,"symbols":[`)
			for i, sym := range s.symbols {
				if i > 0 {
					b.WriteByte(',')
				}
				writeQuoted(b, sym)
			}
			b.WriteByte(']')
		case TypeFixed:
			b.WriteString(`,"size":`)
			b.WriteString(strconv.Itoa(s.size))
		}
		b.WriteByte('}')
	default:
		writeQuoted(b, s.typ.String())
	}
}

// writeQuoted emits a JSON string. Names and symbols are restricted to
// [A-Za-z0-9_.] so no escaping is ever needed.
func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')
	b.WriteString(s)
	b.WriteByte('"')
}
