package tool

import (
	"context"
	"time"

	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WithTracing opens a span per call and a child span per field.
func WithTracing(tracer *tracing.Tracer) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (*feedback.CallResult, error) {
			ctx, span := tracer.Start(ctx, tracing.SpanCall, tracing.CallAttributes(call.Tool.Name(), call.ID))
			defer span.End()

			ctx = ObserveFields(ctx, fieldSpans{tracer: tracer})
			result, err := next(ctx, call)
			if err != nil {
				tracing.SetError(span, err)
				return result, err
			}
			if call.Replayed {
				tracing.SetReplayed(span)
			}
			tracing.SetCallResult(span, string(result.Status), result.InvalidFields())
			return result, nil
		}
	}
}

type fieldSpans struct {
	tracer *tracing.Tracer
}

func (s fieldSpans) FieldStart(ctx context.Context, field string) context.Context {
	ctx, _ = s.tracer.Start(ctx, tracing.SpanField, trace.WithAttributes(attribute.String(tracing.AttrField, field)))
	return ctx
}

func (s fieldSpans) FieldDone(ctx context.Context, _ string, outcome feedback.Outcome, err error, _ time.Duration) {
	span := trace.SpanFromContext(ctx)
	defer span.End()
	if err != nil {
		tracing.SetError(span, err)
		return
	}
	result := "invalid"
	if outcome.Valid {
		result = "valid"
	}
	tracing.SetFieldOutcome(span, result, len(outcome.Problems))
}

func (s fieldSpans) FieldUnmet(ctx context.Context, field string, missing []string) {
	_, span := s.tracer.Start(ctx, tracing.SpanField, trace.WithAttributes(attribute.String(tracing.AttrField, field)))
	tracing.SetFieldUnmet(span, missing)
	span.End()
}
