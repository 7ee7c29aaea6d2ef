package ratelimit

import "time"

// Clock returns the current time. Limiters use time.Now when none is set.
type Clock func() time.Time

// Config contains the limits for a single tool or client. Zero values mean
// no limit.
type Config struct {
	// RequestsPerSecond limits requests per second using token bucket.
	RequestsPerSecond int

	// RequestsPerMinute limits requests per minute using token bucket.
	RequestsPerMinute int

	// RequestsPerHour limits requests per hour using token bucket.
	RequestsPerHour int

	// MaxConcurrent limits simultaneous requests.
	MaxConcurrent int

	// Clock overrides time.Now.
	Clock Clock
}

// Limit names, as reported in CheckResult.Limit and metrics labels.
const (
	LimitPerSecond  = "requests_per_second"
	LimitPerMinute  = "requests_per_minute"
	LimitPerHour    = "requests_per_hour"
	LimitConcurrent = "max_concurrent"
)

// CheckResult contains the result of a rate limit check.
type CheckResult struct {
	// Allowed indicates if the request is permitted.
	Allowed bool

	// Limit names the limit that refused the request.
	Limit string

	// Reason explains why the request was rejected.
	Reason string

	// Capacity is the configured size of the refusing limit.
	Capacity int64

	// RetryAfter suggests how long to wait before retrying.
	RetryAfter time.Duration
}
