package fieldspec

import (
	"sort"
	"strings"

	"mercator-hq/parley/pkg/fieldspec/graph"
)

// Option configures Spec finalization.
type Option func(*options)

type options struct {
	tieBreak graph.TieBreak
}

// WithTieBreak selects the ordering policy among fields with no mutual
// ordering constraint. The default is graph.TieBreakLexicographic.
func WithTieBreak(tb graph.TieBreak) Option {
	return func(o *options) {
		o.tieBreak = tb
	}
}

// Spec is a finalized, immutable set of dynamic fields with a cached
// execution order.
type Spec struct {
	fields   map[string]FieldSpec
	graph    *graph.Graph
	order    []string
	tieBreak graph.TieBreak
}

// New finalizes fields into a Spec. It rejects empty field names, fields that
// require themselves, and cyclic requirements (as *CycleError).
func New(fields map[string]FieldSpec, opts ...Option) (*Spec, error) {
	o := &options{tieBreak: graph.TieBreakLexicographic}
	for _, opt := range opts {
		opt(o)
	}

	copied := make(map[string]FieldSpec, len(fields))
	requires := make(map[string][]string, len(fields))
	hints := make(map[string]int, len(fields))

	for name, fs := range fields {
		if strings.TrimSpace(name) == "" {
			return nil, &SpecError{Message: "field name must not be empty"}
		}
		for _, req := range fs.Requires {
			if strings.TrimSpace(req) == "" {
				return nil, &SpecError{Field: name, Message: "requires contains an empty field name"}
			}
		}

		fs.Requires = append([]string(nil), fs.Requires...)
		fs.InfluencedBy = append([]string(nil), fs.InfluencedBy...)
		if fs.Validate == nil {
			fs.Validate = acceptAll
		}

		copied[name] = fs
		requires[name] = fs.Requires
		hints[name] = len(fs.InfluencedBy)
	}

	g := graph.New(requires, hints)
	if cycles := g.Cycles(); len(cycles) > 0 {
		return nil, &CycleError{Cycles: cycles}
	}

	order, err := g.Sort(o.tieBreak)
	if err != nil {
		return nil, &SpecError{Message: "failed to order fields", Cause: err}
	}

	return &Spec{
		fields:   copied,
		graph:    g,
		order:    order,
		tieBreak: o.tieBreak,
	}, nil
}

// MustNew is like New but panics on error. Intended for package-level specs.
func MustNew(fields map[string]FieldSpec, opts ...Option) *Spec {
	spec, err := New(fields, opts...)
	if err != nil {
		panic(err)
	}
	return spec
}

// Order returns the dynamic fields in execution order.
func (s *Spec) Order() []string {
	return append([]string(nil), s.order...)
}

// Field returns the declaration of a dynamic field.
func (s *Spec) Field(name string) (FieldSpec, bool) {
	fs, ok := s.fields[name]
	return fs, ok
}

// Fields returns a copy of the declarations keyed by field name.
func (s *Spec) Fields() map[string]FieldSpec {
	fields := make(map[string]FieldSpec, len(s.fields))
	for name, fs := range s.fields {
		fields[name] = fs
	}
	return fields
}

// IsDynamic reports whether name is one of the spec's fields.
func (s *Spec) IsDynamic(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// Dynamic returns the dynamic field names, sorted.
func (s *Spec) Dynamic() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of dynamic fields.
func (s *Spec) Len() int {
	return len(s.fields)
}

// TieBreak returns the ordering policy the spec was finalized with.
func (s *Spec) TieBreak() graph.TieBreak {
	return s.tieBreak
}

// Graph returns the requires graph.
func (s *Spec) Graph() *graph.Graph {
	return s.graph
}
