package goserde

// LogicalConverter layers a value conversion over a logical type: Decode turns
// the raw codec value into the refined representation after a read, Encode
// turns the refined representation back into the raw value before a write.
// Raw codec correctness never depends on a converter being present.
type LogicalConverter interface {
	// LogicalName is the logicalType annotation this converter serves.
	LogicalName() string
	Decode(s *Schema, v any) (any, error)
	Encode(s *Schema, v any) (any, error)
}

// LogicalRegistry maps logical type names to converters. Registries are plain
// caller-owned values passed into datum readers and writers. There is no
// ambient global registry, so independent registries can coexist.
type LogicalRegistry struct {
	convs map[string]LogicalConverter
}

// NewLogicalRegistry returns a registry holding the given converters.
func NewLogicalRegistry(convs ...LogicalConverter) *LogicalRegistry {
	r := &LogicalRegistry{convs: make(map[string]LogicalConverter, len(convs))}
	for _, c := range convs {
		r.Register(c)
	}
	return r
}

// Register adds or replaces the converter for its logical name.
func (r *LogicalRegistry) Register(c LogicalConverter) {
	r.convs[c.LogicalName()] = c
}

// Lookup returns the converter for a logical name.
func (r *LogicalRegistry) Lookup(name string) (LogicalConverter, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.convs[name]
	return c, ok
}
