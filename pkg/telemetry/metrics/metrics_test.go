package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/parley/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		DurationBuckets: []float64{0.001, 0.01, 0.1, 1},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
	if !collector.Enabled() {
		t.Error("expected collector enabled")
	}
}

func TestCollector_NewCollectorDefaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	collector := NewCollector(cfg, nil)

	if collector.Registry() == nil {
		t.Fatal("expected a registry to be created")
	}
	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("expected default namespace, got %q", cfg.Namespace)
	}
}

func TestCollector_RecordCall(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	tests := []struct {
		name   string
		tool   string
		status string
	}{
		{"accepted call", "book_flight", StatusAccepted},
		{"rejected call", "book_flight", StatusRejected},
		{"errored call", "search", StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector.RecordCall(tt.tool, tt.status, 2*time.Millisecond)

			got := testutil.ToFloat64(collector.callMetrics.callsTotal.WithLabelValues(tt.tool, tt.status))
			if got != 1 {
				t.Errorf("expected 1 call, got %v", got)
			}
		})
	}

	if n := testutil.CollectAndCount(collector.callMetrics.callDuration); n != 2 {
		t.Errorf("expected 2 duration series, got %d", n)
	}
}

func TestCollector_RecordLimited(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordLimited("book_flight", "requests_per_second")
	collector.RecordLimited("book_flight", "requests_per_second")
	collector.RecordLimited("book_flight", "max_concurrent")

	if got := testutil.ToFloat64(collector.callMetrics.limitedTotal.WithLabelValues("book_flight", "requests_per_second")); got != 2 {
		t.Errorf("expected 2 limited calls, got %v", got)
	}
	if n := testutil.CollectAndCount(collector.callMetrics.limitedTotal); n != 2 {
		t.Errorf("expected 2 series, got %d", n)
	}
}

func TestCollector_FieldMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordFieldOutcome("book_flight", "date", OutcomeValid)
	collector.RecordFieldOutcome("book_flight", "date", OutcomeValid)
	collector.RecordFieldOutcome("book_flight", "passengers", OutcomeUnmet)
	collector.RecordValidatorError("book_flight", "departure")
	collector.RecordValidatorDuration("book_flight", "date", time.Millisecond)

	if got := testutil.ToFloat64(collector.fieldMetrics.outcomesTotal.WithLabelValues("book_flight", "date", OutcomeValid)); got != 2 {
		t.Errorf("expected 2 valid outcomes, got %v", got)
	}
	if got := testutil.ToFloat64(collector.fieldMetrics.outcomesTotal.WithLabelValues("book_flight", "passengers", OutcomeUnmet)); got != 1 {
		t.Errorf("expected 1 unmet outcome, got %v", got)
	}
	if got := testutil.ToFloat64(collector.fieldMetrics.errorsTotal.WithLabelValues("book_flight", "departure")); got != 1 {
		t.Errorf("expected 1 validator error, got %v", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordCall("t", StatusAccepted, time.Millisecond)
	collector.RecordReplay("t")
	collector.RecordFieldOutcome("t", "f", OutcomeValid)

	if got := testutil.ToFloat64(collector.callMetrics.callsTotal.WithLabelValues("t", StatusAccepted)); got != 0 {
		t.Errorf("disabled collector recorded %v calls", got)
	}
	if got := testutil.ToFloat64(collector.callMetrics.replaysTotal.WithLabelValues("t")); got != 0 {
		t.Errorf("disabled collector recorded %v replays", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordReplay("book_flight")
	collector.SetToolsRegistered(3)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`test_replays_total{tool="book_flight"} 1`,
		`test_tools_registered 3`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in exposition:\n%s", want, body)
		}
	}
}
