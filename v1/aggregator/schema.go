package aggregator

import "fmt"

// Definition declares one metric ahead of use.
type Definition struct {
	Name string
	Kind Kind
	Tags []Tag

	// Unit applies to KindTimingCount only.
	Unit Unit
}

// Identity returns the identity the definition registers.
func (d Definition) Identity() Identity {
	return NewIdentity(d.Name, d.Tags...)
}

// Schema is a validated list of definitions. Declaring every metric in one
// place turns kind conflicts into a startup error instead of a runtime one.
type Schema struct {
	defs []Definition
}

// NewSchema validates that no name is declared with two kinds.
func NewSchema(defs ...Definition) (*Schema, error) {
	kinds := make(map[string]Kind, len(defs))
	for _, d := range defs {
		if d.Name == "" {
			return nil, ErrInvalidName
		}
		if d.Kind < KindCounter || d.Kind > KindTimingCount {
			return nil, fmt.Errorf("%w: %s has %s", ErrInvalidBinding, d.Name, d.Kind)
		}
		if existing, ok := kinds[d.Name]; ok && existing != d.Kind {
			return nil, &KindMismatchError{Name: d.Name, Registered: existing, Requested: d.Kind}
		}
		kinds[d.Name] = d.Kind
	}
	return &Schema{defs: defs}, nil
}

// MustSchema is like NewSchema but panics on an invalid definition list.
func MustSchema(defs ...Definition) *Schema {
	s, err := NewSchema(defs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Definitions returns the declared metrics in declaration order.
func (s *Schema) Definitions() []Definition {
	return append([]Definition(nil), s.defs...)
}

// Register creates every declared metric in r and returns the handles in
// declaration order.
func (s *Schema) Register(r *Registry) ([]Aggregator, error) {
	out := make([]Aggregator, 0, len(s.defs))
	for _, d := range s.defs {
		agg, err := r.getOrCreate(d.Identity(), d.Kind, d.Unit)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", d.Name, err)
		}
		out = append(out, agg)
	}
	return out, nil
}
