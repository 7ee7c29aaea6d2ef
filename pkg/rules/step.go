package rules

import (
	"context"

	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/fieldspec"
)

// Problem reported for a required field with no value.
const missingValueProblem = "no value provided"

// Step is one stage of a field validator.
type Step interface {
	Apply(ctx context.Context, value any, fctx fieldspec.Context) (feedback.Outcome, error)
}

// Hinter is implemented by steps that can list acceptable values even when
// no value was supplied.
type Hinter interface {
	Hint(ctx context.Context, fctx fieldspec.Context) (*feedback.ValueHint, error)
}

// StepFunc adapts a function to a Step.
type StepFunc func(ctx context.Context, value any, fctx fieldspec.Context) (feedback.Outcome, error)

// Apply calls f.
func (f StepFunc) Apply(ctx context.Context, value any, fctx fieldspec.Context) (feedback.Outcome, error) {
	return f(ctx, value, fctx)
}

type chain []Step

// Chain composes steps. Each step receives the value normalized by the
// previous ones. The first invalid outcome or error stops the chain.
func Chain(steps ...Step) Step {
	return chain(steps)
}

func (c chain) Apply(ctx context.Context, value any, fctx fieldspec.Context) (feedback.Outcome, error) {
	current := value
	normalized := false
	for _, step := range c {
		out, err := step.Apply(ctx, current, fctx)
		if err != nil {
			return feedback.Outcome{}, err
		}
		if !out.Valid {
			return out, nil
		}
		if v, ok := out.NormalizedValue(); ok {
			current = v
			normalized = true
		}
	}
	if normalized {
		return feedback.Normalized(current), nil
	}
	return feedback.Valid(), nil
}

// Hint returns the hint of the first step that can produce one.
func (c chain) Hint(ctx context.Context, fctx fieldspec.Context) (*feedback.ValueHint, error) {
	for _, step := range c {
		if h, ok := step.(Hinter); ok {
			return h.Hint(ctx, fctx)
		}
	}
	return nil, nil
}

// Field turns steps into a field validator. An absent value is rejected
// when required, with acceptable values attached if any step can list them,
// and accepted otherwise without running the steps.
func Field(required bool, steps ...Step) fieldspec.ValidateFunc {
	c := chain(steps)
	return func(ctx context.Context, value any, fctx fieldspec.Context) (feedback.Outcome, error) {
		if value != nil {
			return c.Apply(ctx, value, fctx)
		}
		if !required {
			return feedback.Valid(), nil
		}
		out := feedback.Invalid(missingValueProblem)
		hint, err := c.Hint(ctx, fctx)
		if err != nil {
			return feedback.Outcome{}, err
		}
		if hint != nil {
			out.Hint = hint
		}
		return out, nil
	}
}
