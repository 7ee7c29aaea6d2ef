package metrics

import (
	"time"

	"mercator-hq/parley/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// FieldMetrics tracks per-field validation metrics.
type FieldMetrics struct {
	outcomesTotal     *prometheus.CounterVec
	validatorDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
}

// NewFieldMetrics creates and registers field metrics with the provided registry.
func NewFieldMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *FieldMetrics {
	fm := &FieldMetrics{
		outcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "field_outcomes_total",
				Help:      "Total number of field outcomes by kind",
			},
			[]string{"tool", "field", "outcome"},
		),
		validatorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validator_duration_seconds",
				Help:      "Duration of individual field validators in seconds",
				// Validators are usually in-process checks or a single lookup.
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
			},
			[]string{"tool", "field"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validator_errors_total",
				Help:      "Total number of validators that failed with an error",
			},
			[]string{"tool", "field"},
		),
	}

	registry.MustRegister(
		fm.outcomesTotal,
		fm.validatorDuration,
		fm.errorsTotal,
	)

	return fm
}

// RecordOutcome records one field outcome.
func (fm *FieldMetrics) RecordOutcome(tool, field, outcome string) {
	fm.outcomesTotal.WithLabelValues(tool, field, outcome).Inc()
}

// RecordDuration records validator latency.
func (fm *FieldMetrics) RecordDuration(tool, field string, duration time.Duration) {
	fm.validatorDuration.WithLabelValues(tool, field).Observe(duration.Seconds())
}

// RecordError records a validator error.
func (fm *FieldMetrics) RecordError(tool, field string) {
	fm.errorsTotal.WithLabelValues(tool, field).Inc()
}
