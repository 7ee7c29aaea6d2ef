/*
Package limits caps how often tools may be called.

Limits are configured per tool, with a default for tools not listed, and
per authenticated client across all tools:

	limits:
	  enabled: true
	  default:
	    requests_per_second: 20
	  by_tool:
	    book_flight:
	      requests_per_minute: 60
	      max_concurrent: 4
	  by_client:
	    booking-agent:
	      requests_per_hour: 600

A call refused by a limit fails with a *LimitError before any validator runs.
Refusals are counted in the limited_calls_total metric.

	manager := limits.NewManager(cfg.Limits, limits.WithMetrics(collector))
	registry.Use(manager.Middleware())
*/
package limits
