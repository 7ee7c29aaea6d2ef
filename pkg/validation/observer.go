package validation

import (
	"context"
	"time"

	"mercator-hq/parley/pkg/feedback"
)

// Observer receives per-field events from an Engine. FieldStart may return a
// derived context (for example one carrying a tracing span) that is passed to
// the validator and to FieldDone.
type Observer interface {
	FieldStart(ctx context.Context, field string) context.Context
	FieldDone(ctx context.Context, field string, outcome feedback.Outcome, err error, elapsed time.Duration)
	FieldUnmet(ctx context.Context, field string, missing []string)
}

// NopObserver ignores all events.
type NopObserver struct{}

// FieldStart implements Observer.
func (NopObserver) FieldStart(ctx context.Context, _ string) context.Context { return ctx }

// FieldDone implements Observer.
func (NopObserver) FieldDone(context.Context, string, feedback.Outcome, error, time.Duration) {}

// FieldUnmet implements Observer.
func (NopObserver) FieldUnmet(context.Context, string, []string) {}

// Observers fans events out to several observers in order.
type Observers []Observer

// FieldStart implements Observer.
func (os Observers) FieldStart(ctx context.Context, field string) context.Context {
	for _, o := range os {
		ctx = o.FieldStart(ctx, field)
	}
	return ctx
}

// FieldDone implements Observer.
func (os Observers) FieldDone(ctx context.Context, field string, outcome feedback.Outcome, err error, elapsed time.Duration) {
	for _, o := range os {
		o.FieldDone(ctx, field, outcome, err, elapsed)
	}
}

// FieldUnmet implements Observer.
func (os Observers) FieldUnmet(ctx context.Context, field string, missing []string) {
	for _, o := range os {
		o.FieldUnmet(ctx, field, missing)
	}
}
