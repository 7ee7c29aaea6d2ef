// Package tracing provides OpenTelemetry tracing for tool calls.
//
// A Tracer is a noop when tracing is disabled. Otherwise spans are exported
// over OTLP gRPC and sampled by trace ID ratio, respecting the parent's
// decision. Each call gets a "parley.call" span and each validator run a
// "parley.field" child span.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, tracing.SpanCall)
//	defer span.End()
package tracing
