package tool

import (
	"context"
	"time"

	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/validation"
)

type observersKey struct{}

// ObserveFields returns a context under which the tool's engine reports
// per-field events to o, in addition to any observers already attached.
func ObserveFields(ctx context.Context, o validation.Observer) context.Context {
	existing, _ := ctx.Value(observersKey{}).(validation.Observers)
	next := make(validation.Observers, 0, len(existing)+1)
	next = append(next, existing...)
	next = append(next, o)
	return context.WithValue(ctx, observersKey{}, next)
}

// contextObserver forwards engine events to the observers attached to the
// call's context.
type contextObserver struct{}

func observersFrom(ctx context.Context) validation.Observers {
	os, _ := ctx.Value(observersKey{}).(validation.Observers)
	return os
}

func (contextObserver) FieldStart(ctx context.Context, field string) context.Context {
	return observersFrom(ctx).FieldStart(ctx, field)
}

func (contextObserver) FieldDone(ctx context.Context, field string, outcome feedback.Outcome, err error, elapsed time.Duration) {
	observersFrom(ctx).FieldDone(ctx, field, outcome, err, elapsed)
}

func (contextObserver) FieldUnmet(ctx context.Context, field string, missing []string) {
	observersFrom(ctx).FieldUnmet(ctx, field, missing)
}
