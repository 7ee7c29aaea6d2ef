package tool

import (
	"context"
	"time"

	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/telemetry/metrics"
)

// WithMetrics records call and field metrics.
func WithMetrics(collector *metrics.Collector) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (*feedback.CallResult, error) {
			name := call.Tool.Name()
			ctx = ObserveFields(ctx, fieldMetrics{collector: collector, tool: name})

			start := time.Now()
			result, err := next(ctx, call)

			status := metrics.StatusError
			if err == nil {
				status = string(result.Status)
			}
			if call.Replayed {
				collector.RecordReplay(name)
			}
			collector.RecordCall(name, status, time.Since(start))
			return result, err
		}
	}
}

type fieldMetrics struct {
	collector *metrics.Collector
	tool      string
}

func (m fieldMetrics) FieldStart(ctx context.Context, _ string) context.Context {
	return ctx
}

func (m fieldMetrics) FieldDone(_ context.Context, field string, outcome feedback.Outcome, err error, elapsed time.Duration) {
	m.collector.RecordValidatorDuration(m.tool, field, elapsed)
	switch {
	case err != nil:
		m.collector.RecordValidatorError(m.tool, field)
	case outcome.Valid:
		m.collector.RecordFieldOutcome(m.tool, field, metrics.OutcomeValid)
	default:
		m.collector.RecordFieldOutcome(m.tool, field, metrics.OutcomeInvalid)
	}
}

func (m fieldMetrics) FieldUnmet(_ context.Context, field string, _ []string) {
	m.collector.RecordFieldOutcome(m.tool, field, metrics.OutcomeUnmet)
}
