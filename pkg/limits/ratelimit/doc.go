// Package ratelimit provides the request rate and concurrency limiters
// behind per-tool and per-client call limits.
//
// # Token Bucket
//
// The token bucket allows bursts up to the bucket capacity while
// maintaining an average rate over time:
//
//	bucket := ratelimit.NewTokenBucket(100, 10, nil) // 100 capacity, 10 refill/sec
//	if bucket.Take(1) {
//	    // Request allowed
//	}
//
// # Concurrent Limiter
//
// The concurrent limiter enforces maximum simultaneous requests:
//
//	limiter := ratelimit.NewConcurrentLimiter(50)
//	if limiter.Acquire() {
//	    defer limiter.Release()
//	    // Process request
//	}
//
// # Limiter
//
// Limiter combines per-second, per-minute and per-hour buckets with a
// concurrency limit. All limiters are safe for concurrent use.
package ratelimit
