package ratelimit

import (
	"sync"
)

// Limiter combines request rate buckets and a concurrency limit for one
// tool or client. A request is admitted only if every configured limit
// admits it, and a refused request consumes nothing.
type Limiter struct {
	mu      sync.Mutex
	buckets []namedBucket

	concurrent *ConcurrentLimiter
	config     Config
}

type namedBucket struct {
	limit  string
	reason string
	bucket *TokenBucket
}

// NewLimiter creates a rate limiter from config. Only non-zero limits are
// enforced.
//
// Example:
//
//	limiter := NewLimiter(Config{
//	    RequestsPerSecond: 10,
//	    RequestsPerMinute: 500,
//	    MaxConcurrent:     4,
//	})
func NewLimiter(config Config) *Limiter {
	l := &Limiter{config: config}

	if config.RequestsPerSecond > 0 {
		// Allow burst up to 2x the per-second rate
		l.buckets = append(l.buckets, namedBucket{LimitPerSecond, "requests per second limit exceeded",
			NewTokenBucket(int64(config.RequestsPerSecond*2), float64(config.RequestsPerSecond), config.Clock)})
	}
	if config.RequestsPerMinute > 0 {
		// Allow burst up to the full minute rate
		l.buckets = append(l.buckets, namedBucket{LimitPerMinute, "requests per minute limit exceeded",
			NewTokenBucket(int64(config.RequestsPerMinute), float64(config.RequestsPerMinute)/60.0, config.Clock)})
	}
	if config.RequestsPerHour > 0 {
		// Allow burst up to 5 minutes worth
		l.buckets = append(l.buckets, namedBucket{LimitPerHour, "requests per hour limit exceeded",
			NewTokenBucket(int64(config.RequestsPerHour/12), float64(config.RequestsPerHour)/3600.0, config.Clock)})
	}
	if config.MaxConcurrent > 0 {
		l.concurrent = NewConcurrentLimiter(config.MaxConcurrent)
	}
	return l
}

// CheckRequest takes one token from every rate bucket, or none if any
// bucket is empty.
func (l *Limiter) CheckRequest() *CheckResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, b := range l.buckets {
		if wait := b.bucket.TimeUntilAvailable(1); wait > 0 {
			return &CheckResult{
				Limit:      b.limit,
				Reason:     b.reason,
				Capacity:   b.bucket.Capacity(),
				RetryAfter: wait,
			}
		}
	}
	for _, b := range l.buckets {
		b.bucket.Take(1)
	}
	return &CheckResult{Allowed: true}
}

// AcquireConcurrent attempts to acquire a concurrency slot.
// A successful call must be paired with ReleaseConcurrent.
func (l *Limiter) AcquireConcurrent() *CheckResult {
	if l.concurrent == nil || l.concurrent.Acquire() {
		return &CheckResult{Allowed: true}
	}
	return &CheckResult{
		Limit:    LimitConcurrent,
		Reason:   "concurrent call limit exceeded",
		Capacity: l.concurrent.Limit(),
	}
}

// ReleaseConcurrent releases a concurrency slot.
func (l *Limiter) ReleaseConcurrent() {
	if l.concurrent != nil {
		l.concurrent.Release()
	}
}

// InFlight returns the number of calls holding a concurrency slot.
func (l *Limiter) InFlight() int64 {
	if l.concurrent == nil {
		return 0
	}
	return l.concurrent.Current()
}

// Reset refills every bucket. In-flight calls are unaffected.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range l.buckets {
		b.bucket.Reset()
	}
}

// Config returns the limiter configuration.
func (l *Limiter) Config() Config {
	return l.config
}
