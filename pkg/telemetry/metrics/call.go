package metrics

import (
	"time"

	"mercator-hq/parley/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CallMetrics tracks tool-call level metrics.
type CallMetrics struct {
	callsTotal      *prometheus.CounterVec
	callDuration    *prometheus.HistogramVec
	replaysTotal    *prometheus.CounterVec
	limitedTotal    *prometheus.CounterVec
	toolsRegistered prometheus.Gauge
}

// NewCallMetrics creates and registers call metrics with the provided registry.
func NewCallMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CallMetrics {
	cm := &CallMetrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "calls_total",
				Help:      "Total number of tool calls by status",
			},
			[]string{"tool", "status"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "call_duration_seconds",
				Help:      "Duration of tool calls in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"tool"},
		),
		replaysTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "replays_total",
				Help:      "Total number of calls answered from the idempotency cache",
			},
			[]string{"tool"},
		),
		limitedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "limited_calls_total",
				Help:      "Total number of calls refused by a call limit",
			},
			[]string{"tool", "limit"},
		),
		toolsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tools_registered",
				Help:      "Number of tools currently served",
			},
		),
	}

	registry.MustRegister(
		cm.callsTotal,
		cm.callDuration,
		cm.replaysTotal,
		cm.limitedTotal,
		cm.toolsRegistered,
	)

	return cm
}

// RecordCall records a completed call.
func (cm *CallMetrics) RecordCall(tool, status string, duration time.Duration) {
	cm.callsTotal.WithLabelValues(tool, status).Inc()
	cm.callDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordReplay records a cached replay.
func (cm *CallMetrics) RecordReplay(tool string) {
	cm.replaysTotal.WithLabelValues(tool).Inc()
}

// RecordLimited records a call refused by limit.
func (cm *CallMetrics) RecordLimited(tool, limit string) {
	cm.limitedTotal.WithLabelValues(tool, limit).Inc()
}

// SetToolsRegistered sets the served tool gauge.
func (cm *CallMetrics) SetToolsRegistered(n int) {
	cm.toolsRegistered.Set(float64(n))
}
