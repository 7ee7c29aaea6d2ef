// Package metrics provides Prometheus metrics collection for parley.
//
// # Metrics
//
//   - parley_calls_total{tool,status}: tool calls by outcome (accepted, rejected, error)
//   - parley_call_duration_seconds{tool}: end-to-end call latency
//   - parley_field_outcomes_total{tool,field,outcome}: per-field outcomes (valid, invalid, unmet)
//   - parley_validator_duration_seconds{tool,field}: time spent inside a validator
//   - parley_validator_errors_total{tool,field}: validators that failed instead of answering
//   - parley_replays_total{tool}: calls answered from the idempotency cache
//   - parley_tools_registered: tools currently served
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordCall("book_flight", "accepted", 3*time.Millisecond)
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// All Record methods are no-ops when metrics are disabled.
package metrics
