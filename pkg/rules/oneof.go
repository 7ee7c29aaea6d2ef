package rules

import (
	"context"
	"fmt"
	"strings"

	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/fieldspec"
	"mercator-hq/parley/pkg/validation"
)

type oneOf struct {
	values     []any
	exhaustive bool
}

// OneOf returns a step that matches the value against a fixed list. String
// matching ignores case and surrounding space, and the listed spelling
// becomes the normalized value. With exhaustive set, unlisted values are
// rejected with the list as allowed values; otherwise the list only serves
// as suggestions.
func OneOf(values []any, exhaustive bool) Step {
	return &oneOf{values: values, exhaustive: exhaustive}
}

func (o *oneOf) Apply(_ context.Context, value any, _ fieldspec.Context) (feedback.Outcome, error) {
	return matchOutcome(value, o.values, o.exhaustive), nil
}

func (o *oneOf) Hint(context.Context, fieldspec.Context) (*feedback.ValueHint, error) {
	return &feedback.ValueHint{Values: o.values, Exhaustive: o.exhaustive}, nil
}

func matchOutcome(value any, candidates []any, exhaustive bool) feedback.Outcome {
	if match, ok := matchCandidate(value, candidates); ok {
		return feedback.Normalized(match)
	}
	if !exhaustive {
		return feedback.Valid()
	}
	if len(candidates) == 0 {
		return feedback.Invalid("no values are currently available").WithAllowedValues()
	}
	return feedback.Invalid(fmt.Sprintf("%v is not one of the allowed values", value)).
		WithAllowedValues(candidates...)
}

func matchCandidate(value any, candidates []any) (any, bool) {
	for _, c := range candidates {
		if validation.Equal(value, c) {
			return c, true
		}
	}
	s, ok := value.(string)
	if !ok {
		return nil, false
	}
	s = strings.TrimSpace(s)
	for _, c := range candidates {
		if cs, ok := c.(string); ok && strings.EqualFold(s, cs) {
			return c, true
		}
	}
	return nil, false
}
