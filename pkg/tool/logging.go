package tool

import (
	"context"
	"time"

	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/telemetry/logging"
	"mercator-hq/parley/pkg/telemetry/tracing"
)

// WithLogging logs every call at info level and every field at debug level.
// With logValues set, the call arguments are logged too (subject to the
// logger's redaction).
func WithLogging(logger *logging.Logger, logValues bool) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (*feedback.CallResult, error) {
			ctx = logging.WithCallID(ctx, call.ID)
			ctx = logging.WithTool(ctx, call.Tool.Name())
			if id := tracing.TraceID(ctx); id != "" {
				ctx = logging.WithTraceID(ctx, id)
			}
			if logValues {
				logger.DebugContext(ctx, "tool call received", "args", call.Args)
			}
			ctx = ObserveFields(ctx, fieldLogger{logger: logger})

			start := time.Now()
			result, err := next(ctx, call)
			elapsed := time.Since(start).Milliseconds()

			if err != nil {
				logger.ErrorContext(ctx, "tool call failed", "error", err, "duration_ms", elapsed)
				return result, err
			}

			args := []any{"status", string(result.Status), "duration_ms", elapsed}
			if call.Replayed {
				args = append(args, "replayed", true)
			}
			if !result.IsAccepted() {
				args = append(args, "invalid_fields", result.InvalidFields())
			}
			logger.InfoContext(ctx, "tool call completed", args...)
			return result, nil
		}
	}
}

type fieldLogger struct {
	logger *logging.Logger
}

func (l fieldLogger) FieldStart(ctx context.Context, field string) context.Context {
	return logging.WithField(ctx, field)
}

func (l fieldLogger) FieldDone(ctx context.Context, _ string, outcome feedback.Outcome, err error, elapsed time.Duration) {
	if err != nil {
		l.logger.WarnContext(ctx, "validator failed", "error", err, "duration_us", elapsed.Microseconds())
		return
	}
	l.logger.DebugContext(ctx, "field validated",
		"valid", outcome.Valid,
		"problems", len(outcome.Problems),
		"duration_us", elapsed.Microseconds(),
	)
}

func (l fieldLogger) FieldUnmet(ctx context.Context, field string, missing []string) {
	l.logger.DebugContext(logging.WithField(ctx, field), "field requirements unmet", "missing", missing)
}
