// Package goserde is a schema-driven data serialization engine. A declarative
// schema describes typed, nested data (records, enums, arrays, maps, unions,
// fixed blobs, primitives, and logical refinements such as decimals or
// timestamps); goserde encodes values under that schema to a compact binary
// wire format or to JSON text, and decodes them back.
//
// Its centerpiece is schema resolution: data written under one schema (the
// writer schema) can be read back under a different, evolved schema (the
// reader schema), with field reordering, added/removed/renamed fields (via
// aliases), primitive promotion, and union-branch matching handled per value
// while never trusting more than the current token.
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations under internal/.
// - Place logical-type conversions under logical/.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	s := goserde.MustParseSchema(def)
//	var buf bytes.Buffer
//	enc := goserde.NewBinaryEncoder(&buf)
//	err := goserde.NewDatumWriter(s).Write(value, enc)
//
//	dec := goserde.NewBinaryDecoder(buf.Bytes())
//	out, err := goserde.NewDatumReader(s, readerSchema).Read(nil, dec)
package goserde
