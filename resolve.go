package goserde

// The resolution engine reconciles a writer schema (what the data physically
// carries) with a reader schema (what the caller wants back). Plans are
// computed lazily the first time a node pair is visited and cached per datum
// reader, so incompatibilities surface at the node where the data first
// touches them, never as a batch pre-pass.

// recordPlan maps one writer record onto one reader record.
type recordPlan struct {
	// toReader[i] is the reader field index fed by writer field i, or -1 when
	// the writer field has no reader counterpart and its value is skipped.
	toReader []int
	// defaulted lists reader field indexes with no writer source, each backed
	// by a declared default.
	defaulted []int
}

type schemaPair struct{ w, r *Schema }

type resolver struct {
	records map[schemaPair]*recordPlan
	enums   map[schemaPair][]int
}

func newResolver() *resolver {
	return &resolver{
		records: map[schemaPair]*recordPlan{},
		enums:   map[schemaPair][]int{},
	}
}

// promotable reports whether a writer primitive may widen into a reader
// primitive: int→long→float→double, plus string↔bytes.
func promotable(w, r Type) bool {
	switch w {
	case TypeInt:
		return r == TypeLong || r == TypeFloat || r == TypeDouble
	case TypeLong:
		return r == TypeFloat || r == TypeDouble
	case TypeFloat:
		return r == TypeDouble
	case TypeString:
		return r == TypeBytes
	case TypeBytes:
		return r == TypeString
	}
	return false
}

// fieldMatch pairs a writer field with a reader field by exact name or by
// aliases on either side.
func fieldMatch(wf, rf *Field) bool {
	if wf.Name() == rf.Name() {
		return true
	}
	for _, a := range wf.Aliases() {
		if a == rf.Name() {
			return true
		}
		for _, ra := range rf.Aliases() {
			if a == ra {
				return true
			}
		}
	}
	for _, ra := range rf.Aliases() {
		if ra == wf.Name() {
			return true
		}
	}
	return false
}

// record returns the cached or freshly computed plan for a writer/reader
// record pair.
func (rv *resolver) record(w, r *Schema) (*recordPlan, error) {
	key := schemaPair{w, r}
	if p, ok := rv.records[key]; ok {
		return p, nil
	}
	p, err := planRecord(w, r)
	if err != nil {
		return nil, err
	}
	rv.records[key] = p
	return p, nil
}

func planRecord(w, r *Schema) (*recordPlan, error) {
	wFields := w.Fields()
	rFields := r.Fields()
	p := &recordPlan{toReader: make([]int, len(wFields))}
	for i := range p.toReader {
		p.toReader[i] = -1
	}
	matched := make([]bool, len(rFields))
	for wi, wf := range wFields {
		for ri, rf := range rFields {
			if !fieldMatch(wf, rf) {
				continue
			}
			if p.toReader[wi] >= 0 || matched[ri] {
				// A name landing on one field while an alias lands on
				// another is never guessed at.
				return nil, issuef("/"+rf.Name(), CodeAmbiguousMatch,
					"field %q matches more than one counterpart between %s and %s",
					rf.Name(), w.FullName(), r.FullName())
			}
			p.toReader[wi] = ri
			matched[ri] = true
		}
	}
	for ri, rf := range rFields {
		if matched[ri] {
			continue
		}
		if _, ok := rf.Default(); !ok {
			return nil, issuef("/"+rf.Name(), CodeRequired,
				"reader field %q has no writer counterpart and no default", rf.Name())
		}
		p.defaulted = append(p.defaulted, ri)
	}
	return p, nil
}

// enum returns, per writer symbol index, the reader symbol index: direct
// matches by name, the reader's default symbol otherwise, -1 when the reader
// has no way to represent the symbol (an error only if the symbol shows up).
func (rv *resolver) enum(w, r *Schema) []int {
	key := schemaPair{w, r}
	if m, ok := rv.enums[key]; ok {
		return m
	}
	fallback := -1
	if def, ok := r.EnumDefault(); ok {
		fallback, _ = r.SymbolIndex(def)
	}
	m := make([]int, len(w.Symbols()))
	for i, sym := range w.Symbols() {
		if ri, ok := r.SymbolIndex(sym); ok {
			m[i] = ri
		} else {
			m[i] = fallback
		}
	}
	rv.enums[key] = m
	return m
}

// unionBranch selects the reader branch for a concrete writer schema: first
// the branch whose name (or alias) matches a named writer type, then the first
// structurally compatible branch.
func unionBranch(r *Schema, w *Schema) (*Schema, error) {
	if w.Type().IsNamed() {
		for _, b := range r.Branches() {
			if b.Type() != w.Type() {
				continue
			}
			if b.FullName() == w.FullName() || b.hasAlias(w.FullName()) {
				return b, nil
			}
		}
	}
	for _, b := range r.Branches() {
		if compatible(w, b) {
			return b, nil
		}
	}
	return nil, issuef("/", CodeIncompatible,
		"no reader union branch accepts writer type %s", w.FullName())
}

// compatible is the shallow structural test used for union branch selection;
// deeper mismatches surface when the branch is actually read.
func compatible(w, r *Schema) bool {
	if promotable(w.Type(), r.Type()) {
		return true
	}
	if w.Type() != r.Type() {
		return false
	}
	switch w.Type() {
	case TypeArray:
		return compatible(w.Items(), r.Items())
	case TypeMap:
		return compatible(w.Values(), r.Values())
	case TypeFixed:
		return w.Size() == r.Size()
	default:
		return true
	}
}
