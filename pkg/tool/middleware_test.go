package tool

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"

	"mercator-hq/parley/pkg/config"
	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/telemetry/logging"
	"mercator-hq/parley/pkg/telemetry/metrics"
	"mercator-hq/parley/pkg/telemetry/tracing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestWithIdempotency(t *testing.T) {
	var calls atomic.Int32
	cache, err := NewReplayCache(8)
	if err != nil {
		t.Fatal(err)
	}

	var replayed []bool
	spy := func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (*feedback.CallResult, error) {
			res, err := next(ctx, call)
			replayed = append(replayed, call.Replayed)
			return res, err
		}
	}
	tl := MustNew("book_flight", "", routeSpec(t, &calls), WithMiddleware(spy, WithIdempotency(cache)))

	first, _ := tl.Invoke(context.Background(), map[string]any{"departure": "LHR", "arrival": "JFK", "n": 2})
	second, _ := tl.Invoke(context.Background(), map[string]any{"n": 2.0, "arrival": "JFK", "departure": "LHR"})

	if calls.Load() != 1 {
		t.Errorf("expected one validator run, got %d", calls.Load())
	}
	if first != second {
		t.Error("expected the cached result to be returned")
	}
	if len(replayed) != 2 || replayed[0] || !replayed[1] {
		t.Errorf("replayed flags = %v", replayed)
	}

	_, _ = tl.Invoke(context.Background(), map[string]any{"departure": "JFK", "arrival": "LAX"})
	if calls.Load() != 2 || cache.Len() != 2 {
		t.Errorf("different args must miss: calls=%d len=%d", calls.Load(), cache.Len())
	}

	// A rebuilt tool with the same name must not see the old entries.
	rebuilt := MustNew("book_flight", "", routeSpec(t, &calls), WithMiddleware(WithIdempotency(cache)))
	_, _ = rebuilt.Invoke(context.Background(), map[string]any{"departure": "LHR", "arrival": "JFK", "n": 2})
	if calls.Load() != 3 {
		t.Errorf("expected a fresh run for the rebuilt tool, got %d runs", calls.Load())
	}

	cache.Purge()
	if cache.Len() != 0 {
		t.Error("Purge() left entries")
	}
}

func TestWithIdempotency_UnencodableArgsBypass(t *testing.T) {
	var calls atomic.Int32
	cache, _ := NewReplayCache(8)
	tl := MustNew("t", "", routeSpec(t, &calls), WithMiddleware(WithIdempotency(cache)))

	args := map[string]any{"departure": "LHR", "arrival": "JFK", "cb": func() {}}
	_, _ = tl.Invoke(context.Background(), args)
	_, _ = tl.Invoke(context.Background(), args)
	if calls.Load() != 2 || cache.Len() != 0 {
		t.Errorf("expected no caching, calls=%d len=%d", calls.Load(), cache.Len())
	}
}

func TestWithMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "parley"}, reg)
	cache, _ := NewReplayCache(4)

	tl := MustNew("book_flight", "", routeSpec(t, nil), WithMiddleware(WithMetrics(collector), WithIdempotency(cache)))
	_, _ = tl.Invoke(context.Background(), map[string]any{"departure": "LHR", "arrival": "JFK"})
	_, _ = tl.Invoke(context.Background(), map[string]any{"departure": "LHR", "arrival": "JFK"})
	_, _ = tl.Invoke(context.Background(), map[string]any{"departure": "SFO", "arrival": "JFK"})

	expected := `
# HELP parley_calls_total Total number of tool calls by status
# TYPE parley_calls_total counter
parley_calls_total{status="accepted",tool="book_flight"} 2
parley_calls_total{status="rejected",tool="book_flight"} 1
# HELP parley_replays_total Total number of calls answered from the idempotency cache
# TYPE parley_replays_total counter
parley_replays_total{tool="book_flight"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "parley_calls_total", "parley_replays_total"); err != nil {
		t.Error(err)
	}

	// The replayed call runs no validators.
	expected = `
# HELP parley_field_outcomes_total Total number of field outcomes by kind
# TYPE parley_field_outcomes_total counter
parley_field_outcomes_total{field="arrival",outcome="unmet",tool="book_flight"} 1
parley_field_outcomes_total{field="arrival",outcome="valid",tool="book_flight"} 1
parley_field_outcomes_total{field="departure",outcome="invalid",tool="book_flight"} 1
parley_field_outcomes_total{field="departure",outcome="valid",tool="book_flight"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "parley_field_outcomes_total"); err != nil {
		t.Error(err)
	}
}

func TestWithTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := tracing.NewWithExporter(&config.TracingConfig{SampleRatio: 1, ServiceName: "test"}, "test", exporter)
	if err != nil {
		t.Fatal(err)
	}

	tl := MustNew("book_flight", "", routeSpec(t, nil), WithMiddleware(WithTracing(tracer)))
	_, _ = tl.Invoke(context.Background(), map[string]any{"departure": "XXX", "arrival": "JFK"})

	spans := exporter.GetSpans()
	if len(spans) != 3 {
		t.Fatalf("expected call span and two field spans, got %d", len(spans))
	}
	call := spans[len(spans)-1]
	if call.Name != tracing.SpanCall {
		t.Fatalf("last span = %s, want %s", call.Name, tracing.SpanCall)
	}
	for _, s := range spans[:2] {
		if s.Name != tracing.SpanField || s.Parent.SpanID() != call.SpanContext.SpanID() {
			t.Errorf("span %s is not a field child of the call", s.Name)
		}
	}
	attrs := map[string]string{}
	for _, kv := range call.Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs[tracing.AttrStatus] != "rejected" || attrs[tracing.AttrTool] != "book_flight" {
		t.Errorf("unexpected call attributes %v", attrs)
	}
}

func TestWithLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := logging.New(logging.Config{Level: "debug", Format: "json", Redact: true, Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	tl := MustNew("book_flight", "", routeSpec(t, nil), WithMiddleware(WithLogging(logger, true)))
	_, _ = tl.Invoke(context.Background(), map[string]any{"departure": "LHR", "arrival": "LAX", "email": "a@b.io"})

	var entries []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var e map[string]any
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad log line %q: %v", sc.Text(), err)
		}
		entries = append(entries, e)
	}

	if len(entries) != 4 {
		t.Fatalf("expected received, two field lines and completion, got %d", len(entries))
	}
	last := entries[len(entries)-1]
	if last["msg"] != "tool call completed" || last["status"] != "rejected" || last["tool"] != "book_flight" {
		t.Errorf("unexpected completion entry %v", last)
	}
	if last["call_id"] == "" || last["call_id"] != entries[0]["call_id"] {
		t.Error("call_id must be stable across the call's log lines")
	}
	if entries[1]["field"] != "departure" {
		t.Errorf("expected field context on field lines, got %v", entries[1])
	}
	if strings.Contains(buf.String(), "a@b.io") {
		t.Error("argument values must be redacted")
	}
}
