package goserde

import (
	"bytes"
	"fmt"
	"strings"

	gojson "github.com/goccy/go-json"
)

// ParseSchema parses a schema definition from its JSON text form. The result
// is immutable and may be shared freely across concurrent codec operations.
//
// Named types (record, enum, fixed) are registered in a per-parse lookup table
// keyed by full name; later references, forward references, and self-references
// all resolve to the same shared node, so recursive schemas parse into cyclic
// pointer graphs rather than infinite trees.
func ParseSchema(text string) (*Schema, error) {
	dec := gojson.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, Issues{{Path: "/", Code: CodeSchemaParse, Message: "malformed schema text", Cause: err, Offset: -1}}
	}
	p := &schemaParser{names: map[string]*Schema{}}
	s, err := p.parseType(raw, "", "/")
	if err != nil {
		return nil, err
	}
	for full, n := range p.names {
		if !n.resolved {
			return nil, issuef("/", CodeUnknownName, "undefined type %q", full)
		}
	}
	return s, nil
}

// MustParseSchema is ParseSchema panicking on error; intended for fixtures and
// package-level schema constants.
func MustParseSchema(text string) *Schema {
	s, err := ParseSchema(text)
	if err != nil {
		panic(err)
	}
	return s
}

type schemaParser struct {
	names map[string]*Schema
}

func (p *schemaParser) parseType(v any, ns, path string) (*Schema, error) {
	switch t := v.(type) {
	case string:
		return p.parseTypeName(t, ns, path)
	case []any:
		return p.parseUnion(t, ns, path)
	case map[string]any:
		return p.parseComplex(t, ns, path)
	default:
		return nil, issuef(path, CodeSchemaParse, "expected type name, union array, or object, got %T", v)
	}
}

func (p *schemaParser) parseTypeName(name, ns, path string) (*Schema, error) {
	if s, ok := primitiveSchemas[name]; ok {
		return s, nil
	}
	if !validFullName(name) {
		return nil, issuef(path, CodeSchemaParse, "invalid type name %q", name)
	}
	full := qualify(name, ns)
	if s, ok := p.names[full]; ok {
		return s, nil
	}
	// Forward reference: hand out a placeholder now and fill it when the
	// definition appears. Unfilled placeholders fail the whole parse.
	ph := &Schema{name: splitFull(full)}
	p.names[full] = ph
	return ph, nil
}

func (p *schemaParser) parseUnion(branches []any, ns, path string) (*Schema, error) {
	if len(branches) == 0 {
		return nil, issueAt(path, CodeSchemaParse, "union must have at least one branch")
	}
	u := &Schema{typ: TypeUnion, resolved: true}
	nulls := 0
	seen := map[string]bool{}
	for i, raw := range branches {
		bp := fmt.Sprintf("%s[%d]", path, i)
		b, err := p.parseType(raw, ns, bp)
		if err != nil {
			return nil, err
		}
		if b.typ == TypeUnion {
			return nil, issueAt(bp, CodeUnionAmbiguous, "union may not immediately contain another union")
		}
		if b.typ == TypeNull {
			nulls++
			if nulls > 1 {
				return nil, issueAt(bp, CodeUnionAmbiguous, "union may contain at most one null branch")
			}
		}
		key := b.BranchKey()
		if seen[key] {
			return nil, issuef(bp, CodeUnionAmbiguous, "duplicate union branch %q", key)
		}
		seen[key] = true
		u.branches = append(u.branches, b)
	}
	return u, nil
}

func (p *schemaParser) parseComplex(obj map[string]any, ns, path string) (*Schema, error) {
	rawType, ok := obj["type"]
	if !ok {
		return nil, issueAt(path, CodeSchemaParse, `missing "type"`)
	}
	if arr, ok := rawType.([]any); ok {
		return p.parseUnion(arr, ns, path)
	}
	tn, ok := rawType.(string)
	if !ok {
		// e.g. {"type": {"type": "array", ...}}, a nested definition.
		return p.parseType(rawType, ns, path)
	}

	switch tn {
	case "record", "error":
		return p.parseRecord(obj, ns, path)
	case "enum":
		return p.parseEnum(obj, ns, path)
	case "fixed":
		return p.parseFixed(obj, ns, path)
	case "array":
		items, ok := obj["items"]
		if !ok {
			return nil, issueAt(path, CodeSchemaParse, `array requires "items"`)
		}
		el, err := p.parseType(items, ns, path+"/items")
		if err != nil {
			return nil, err
		}
		s := &Schema{typ: TypeArray, items: el, resolved: true}
		attachLogical(s, obj)
		return s, nil
	case "map":
		values, ok := obj["values"]
		if !ok {
			return nil, issueAt(path, CodeSchemaParse, `map requires "values"`)
		}
		vs, err := p.parseType(values, ns, path+"/values")
		if err != nil {
			return nil, err
		}
		s := &Schema{typ: TypeMap, values: vs, resolved: true}
		attachLogical(s, obj)
		return s, nil
	default:
		base, err := p.parseTypeName(tn, ns, path)
		if err != nil {
			return nil, err
		}
		if _, isPrim := primitiveSchemas[tn]; isPrim {
			if lt := logicalOf(obj, base.typ); lt != nil {
				// Logical annotation on a primitive needs its own node; the
				// bare primitive singletons stay annotation-free.
				return &Schema{typ: base.typ, logical: lt, resolved: true}, nil
			}
		}
		return base, nil
	}
}

func (p *schemaParser) parseRecord(obj map[string]any, ns, path string) (*Schema, error) {
	s, full, err := p.beginNamed(TypeRecord, obj, ns, path)
	if err != nil {
		return nil, err
	}
	rawFields, ok := obj["fields"].([]any)
	if !ok {
		return nil, issueAt(path, CodeSchemaParse, `record requires a "fields" array`)
	}
	fieldNS := s.name.Namespace
	fields := make([]*Field, 0, len(rawFields))
	index := make(map[string]int, len(rawFields))
	for i, rf := range rawFields {
		fp := fmt.Sprintf("%s/fields/%d", path, i)
		fobj, ok := rf.(map[string]any)
		if !ok {
			return nil, issueAt(fp, CodeSchemaParse, "field must be an object")
		}
		f, err := p.parseField(fobj, fieldNS, fp)
		if err != nil {
			return nil, err
		}
		if _, dup := index[f.name]; dup {
			return nil, issuef(fp, CodeDuplicateName, "duplicate field %q in record %q", f.name, full)
		}
		f.pos = i
		index[f.name] = i
		fields = append(fields, f)
	}
	s.fields = fields
	s.fieldIndex = index
	return s, nil
}

func (p *schemaParser) parseField(obj map[string]any, ns, path string) (*Field, error) {
	name, ok := obj["name"].(string)
	if !ok || !validName(name) {
		return nil, issueAt(path, CodeSchemaParse, "field requires a valid name")
	}
	rawType, ok := obj["type"]
	if !ok {
		return nil, issuef(path, CodeSchemaParse, "field %q requires a type", name)
	}
	fs, err := p.parseType(rawType, ns, path+"/type")
	if err != nil {
		return nil, err
	}
	f := &Field{name: name, schema: fs}
	if doc, ok := obj["doc"].(string); ok {
		f.doc = doc
	}
	if rawOrder, ok := obj["order"]; ok {
		os, _ := rawOrder.(string)
		switch os {
		case "ascending":
			f.order = OrderAscending
		case "descending":
			f.order = OrderDescending
		case "ignore":
			f.order = OrderIgnore
		default:
			return nil, issuef(path, CodeSchemaParse, "invalid order %q on field %q", os, name)
		}
	}
	if rawAliases, ok := obj["aliases"]; ok {
		f.aliases, err = stringList(rawAliases, path+"/aliases")
		if err != nil {
			return nil, err
		}
	}
	if dv, ok := obj["default"]; ok {
		// The default must itself be admissible under the field schema;
		// checked now so codec operations never see a bad default.
		if err := checkDefault(fs, dv, path+"/default"); err != nil {
			return nil, err
		}
		f.def = dv
		f.hasDef = true
	}
	return f, nil
}

func (p *schemaParser) parseEnum(obj map[string]any, ns, path string) (*Schema, error) {
	s, full, err := p.beginNamed(TypeEnum, obj, ns, path)
	if err != nil {
		return nil, err
	}
	rawSymbols, ok := obj["symbols"].([]any)
	if !ok {
		return nil, issueAt(path, CodeSchemaParse, `enum requires a "symbols" array`)
	}
	symbols := make([]string, 0, len(rawSymbols))
	index := make(map[string]int, len(rawSymbols))
	for i, rs := range rawSymbols {
		sym, ok := rs.(string)
		if !ok || !validName(sym) {
			return nil, issuef(path, CodeSchemaParse, "invalid enum symbol in %q", full)
		}
		if _, dup := index[sym]; dup {
			return nil, issuef(path, CodeDuplicateName, "duplicate enum symbol %q in %q", sym, full)
		}
		index[sym] = i
		symbols = append(symbols, sym)
	}
	s.symbols = symbols
	s.symbolIndex = index
	if dv, ok := obj["default"]; ok {
		sym, ok := dv.(string)
		if !ok {
			return nil, issuef(path, CodeBadDefault, "enum default must be a string in %q", full)
		}
		if _, member := index[sym]; !member {
			return nil, issuef(path, CodeBadDefault, "enum default %q is not a symbol of %q", sym, full)
		}
		s.enumDefault = sym
	}
	return s, nil
}

func (p *schemaParser) parseFixed(obj map[string]any, ns, path string) (*Schema, error) {
	s, full, err := p.beginNamed(TypeFixed, obj, ns, path)
	if err != nil {
		return nil, err
	}
	num, ok := obj["size"].(gojson.Number)
	if !ok {
		return nil, issuef(path, CodeSchemaParse, `fixed %q requires an integer "size"`, full)
	}
	size, err2 := num.Int64()
	if err2 != nil || size < 0 {
		return nil, issuef(path, CodeSchemaParse, "invalid fixed size %q", num.String())
	}
	s.size = int(size)
	attachLogical(s, obj)
	return s, nil
}

// beginNamed resolves the name/namespace/aliases attributes, registers the node
// in the lookup table before its body parses (enabling self-reference), and
// fills an outstanding forward-reference placeholder when one exists.
func (p *schemaParser) beginNamed(t Type, obj map[string]any, ns, path string) (*Schema, string, error) {
	rawName, ok := obj["name"].(string)
	if !ok {
		return nil, "", issuef(path, CodeSchemaParse, `%s requires a "name"`, t)
	}
	if nsAttr, ok := obj["namespace"].(string); ok && !strings.Contains(rawName, ".") {
		ns = nsAttr
	}
	if !validFullName(rawName) {
		return nil, "", issuef(path, CodeSchemaParse, "invalid name %q", rawName)
	}
	full := qualify(rawName, ns)
	name := splitFull(full)

	s := p.names[full]
	if s == nil {
		s = &Schema{}
		p.names[full] = s
	} else if s.resolved {
		return nil, "", issuef(path, CodeDuplicateName, "type %q defined twice", full)
	}
	s.typ = t
	s.name = name
	s.resolved = true
	if doc, ok := obj["doc"].(string); ok {
		s.doc = doc
	}
	if rawAliases, ok := obj["aliases"]; ok {
		list, err := stringList(rawAliases, path+"/aliases")
		if err != nil {
			return nil, "", err
		}
		for i, a := range list {
			list[i] = qualify(a, name.Namespace)
		}
		s.aliases = list
	}
	if lt := logicalOf(obj, t); lt != nil {
		s.logical = lt
	}
	return s, full, nil
}

// attachLogical copies a recognized logical annotation onto a freshly built
// unnamed node.
func attachLogical(s *Schema, obj map[string]any) {
	if lt := logicalOf(obj, s.typ); lt != nil {
		s.logical = lt
	}
}

// logicalOf extracts a logicalType annotation. Annotations that do not apply
// to the physical type are ignored rather than rejected, so schemas written by
// newer peers keep parsing.
func logicalOf(obj map[string]any, t Type) *LogicalType {
	name, ok := obj["logicalType"].(string)
	if !ok {
		return nil
	}
	switch name {
	case "decimal":
		if t != TypeBytes && t != TypeFixed {
			return nil
		}
		lt := &LogicalType{Name: name}
		if n, ok := obj["precision"].(gojson.Number); ok {
			if v, err := n.Int64(); err == nil {
				lt.Precision = int(v)
			}
		}
		if n, ok := obj["scale"].(gojson.Number); ok {
			if v, err := n.Int64(); err == nil {
				lt.Scale = int(v)
			}
		}
		if lt.Precision <= 0 || lt.Scale < 0 || lt.Scale > lt.Precision {
			return nil
		}
		return lt
	case "uuid":
		if t != TypeString {
			return nil
		}
	case "date", "time-millis":
		if t != TypeInt {
			return nil
		}
	case "time-micros", "timestamp-millis", "timestamp-micros":
		if t != TypeLong {
			return nil
		}
	default:
		// Unknown refinements ride along untyped; raw codec behavior never
		// depends on them.
	}
	return &LogicalType{Name: name}
}

// checkDefault verifies a field default is admissible under its schema. Union
// defaults are checked against the first branch, matching the convention of
// the schema text format.
func checkDefault(s *Schema, dv any, path string) error {
	switch s.typ {
	case TypeNull:
		if dv != nil {
			return issueAt(path, CodeBadDefault, "default for null must be null")
		}
	case TypeBoolean:
		if _, ok := dv.(bool); !ok {
			return issueAt(path, CodeBadDefault, "default must be a boolean")
		}
	case TypeInt, TypeLong:
		n, ok := dv.(gojson.Number)
		if !ok {
			return issueAt(path, CodeBadDefault, "default must be an integer")
		}
		if _, err := n.Int64(); err != nil {
			return issueAt(path, CodeBadDefault, "default must be an integer")
		}
	case TypeFloat, TypeDouble:
		if n, ok := dv.(gojson.Number); ok {
			if _, err := n.Float64(); err == nil {
				return nil
			}
		}
		return issueAt(path, CodeBadDefault, "default must be a number")
	case TypeBytes, TypeString:
		if _, ok := dv.(string); !ok {
			return issueAt(path, CodeBadDefault, "default must be a string")
		}
	case TypeFixed:
		str, ok := dv.(string)
		if !ok || len([]rune(str)) != s.size {
			return issuef(path, CodeBadDefault, "default must be a %d-character string", s.size)
		}
	case TypeEnum:
		sym, ok := dv.(string)
		if !ok {
			return issueAt(path, CodeBadDefault, "default must be an enum symbol")
		}
		if _, member := s.symbolIndex[sym]; !member {
			return issuef(path, CodeBadDefault, "default %q is not a declared symbol", sym)
		}
	case TypeArray:
		arr, ok := dv.([]any)
		if !ok {
			return issueAt(path, CodeBadDefault, "default must be an array")
		}
		for i, el := range arr {
			if err := checkDefault(s.items, el, fmt.Sprintf("%s/%d", path, i)); err != nil {
				return err
			}
		}
	case TypeMap:
		m, ok := dv.(map[string]any)
		if !ok {
			return issueAt(path, CodeBadDefault, "default must be an object")
		}
		for k, el := range m {
			if err := checkDefault(s.values, el, path+"/"+k); err != nil {
				return err
			}
		}
	case TypeUnion:
		if len(s.branches) == 0 {
			return issueAt(path, CodeBadDefault, "union has no branches")
		}
		return checkDefault(s.branches[0], dv, path)
	case TypeRecord:
		m, ok := dv.(map[string]any)
		if !ok {
			return issueAt(path, CodeBadDefault, "default must be an object")
		}
		for _, f := range s.fields {
			fv, present := m[f.name]
			if !present {
				if _, has := f.Default(); has {
					continue
				}
				return issuef(path, CodeBadDefault, "default is missing field %q", f.name)
			}
			if err := checkDefault(f.schema, fv, path+"/"+f.name); err != nil {
				return err
			}
		}
	}
	return nil
}

func stringList(v any, path string) ([]string, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, issueAt(path, CodeSchemaParse, "expected an array of strings")
	}
	out := make([]string, 0, len(arr))
	for _, el := range arr {
		s, ok := el.(string)
		if !ok {
			return nil, issueAt(path, CodeSchemaParse, "expected an array of strings")
		}
		out = append(out, s)
	}
	return out, nil
}

func qualify(name, ns string) string {
	if strings.Contains(name, ".") || ns == "" {
		return name
	}
	return ns + "." + name
}

func splitFull(full string) Name {
	if i := strings.LastIndex(full, "."); i >= 0 {
		return Name{Name: full[i+1:], Namespace: full[:i]}
	}
	return Name{Name: full}
}
