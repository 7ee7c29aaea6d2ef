// Package telemetry bundles parley's observability components.
//
// # Components
//
//   - logging: structured slog logging with call context
//   - metrics: Prometheus metrics for calls and field outcomes
//   - tracing: OpenTelemetry spans per call and per validator
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	tel, err := telemetry.New(&cfg.Telemetry, version)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	tel.Logger().Info("serving", "tools", n)
//	ctx, span := tel.Tracer().Start(ctx, tracing.SpanCall)
//	defer span.End()
package telemetry
