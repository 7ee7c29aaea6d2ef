package validation

import (
	"context"
	"time"

	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/fieldspec"
)

// unexplainedProblem replaces the empty diagnostics of a validator that
// rejected a value without saying why.
const unexplainedProblem = "value rejected without a reason"

// Engine validates payloads against a Spec.
type Engine struct {
	spec     *fieldspec.Spec
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers hooks notified as fields are processed.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// New creates an Engine for spec.
func New(spec *fieldspec.Spec, opts ...Option) *Engine {
	e := &Engine{
		spec:     spec,
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Spec returns the engine's field specification.
func (e *Engine) Spec() *fieldspec.Spec {
	return e.spec
}

// Validate runs one validation call over input. The input map is not
// modified. The returned error is non-nil only when a validator fails, in
// which case it is a *ValidatorError.
func (e *Engine) Validate(ctx context.Context, input map[string]any) (*feedback.CallResult, error) {
	working := make(map[string]any, len(input))
	for name, v := range input {
		if !e.spec.IsDynamic(name) {
			working[name] = v
		}
	}

	results := make(map[string]feedback.Outcome, e.spec.Len())
	rejected := false

	for _, name := range e.spec.Order() {
		fs, _ := e.spec.Field(name)

		built := buildContext(name, fs, working)
		if len(built.missing) > 0 {
			results[name] = feedback.RequiresValid(built.missing...)
			rejected = true
			e.observer.FieldUnmet(ctx, name, built.missing)
			continue
		}

		raw := input[name]
		fctx := e.observer.FieldStart(ctx, name)
		start := time.Now()
		outcome, err := fs.Validate(fctx, raw, built.ctx)
		e.observer.FieldDone(fctx, name, outcome, err, time.Since(start))
		if err != nil {
			return nil, &ValidatorError{Field: name, Results: results, Err: err}
		}

		if !outcome.Actionable() {
			outcome = outcome.WithProblems(unexplainedProblem)
		}
		outcome = diffNormalization(raw, outcome)

		if outcome.Valid {
			if normalized, ok := outcome.NormalizedValue(); ok {
				working[name] = normalized
			} else {
				working[name] = raw
			}
		} else {
			rejected = true
		}
		results[name] = outcome
	}

	if rejected {
		return feedback.Rejected(results), nil
	}
	return feedback.Accepted(working), nil
}
