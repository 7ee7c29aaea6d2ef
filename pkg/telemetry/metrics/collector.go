package metrics

import (
	"time"

	"mercator-hq/parley/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Call status label values.
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// Field outcome label values.
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeUnmet   = "unmet"
)

// Collector owns every parley metric and the registry they live in.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	callMetrics  *CallMetrics
	fieldMetrics *FieldMetrics
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:       cfg,
		registry:     registry,
		callMetrics:  NewCallMetrics(cfg, registry),
		fieldMetrics: NewFieldMetrics(cfg, registry),
	}
}

// Enabled reports whether the collector records anything.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

// RecordCall records a completed tool call.
//
// Parameters:
//   - tool: tool name
//   - status: StatusAccepted, StatusRejected or StatusError
//   - duration: wall time of the call
func (c *Collector) RecordCall(tool, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.callMetrics.RecordCall(tool, status, duration)
}

// RecordReplay records a call answered from the idempotency cache.
func (c *Collector) RecordReplay(tool string) {
	if !c.config.Enabled {
		return
	}
	c.callMetrics.RecordReplay(tool)
}

// RecordLimited records a call refused by a call limit.
//
// Parameters:
//   - tool: tool name
//   - limit: the limit that refused it, e.g. "requests_per_minute"
func (c *Collector) RecordLimited(tool, limit string) {
	if !c.config.Enabled {
		return
	}
	c.callMetrics.RecordLimited(tool, limit)
}

// SetToolsRegistered updates the number of served tools.
func (c *Collector) SetToolsRegistered(n int) {
	if !c.config.Enabled {
		return
	}
	c.callMetrics.SetToolsRegistered(n)
}

// RecordFieldOutcome records the outcome of one dynamic field.
//
// Parameters:
//   - outcome: OutcomeValid, OutcomeInvalid or OutcomeUnmet
func (c *Collector) RecordFieldOutcome(tool, field, outcome string) {
	if !c.config.Enabled {
		return
	}
	c.fieldMetrics.RecordOutcome(tool, field, outcome)
}

// RecordValidatorDuration records time spent inside a field's validator.
func (c *Collector) RecordValidatorDuration(tool, field string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.fieldMetrics.RecordDuration(tool, field, duration)
}

// RecordValidatorError records a validator that returned an error.
func (c *Collector) RecordValidatorError(tool, field string) {
	if !c.config.Enabled {
		return
	}
	c.fieldMetrics.RecordError(tool, field)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
