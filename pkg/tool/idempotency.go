package tool

import (
	"context"
	"encoding/json"
	"strconv"

	"mercator-hq/parley/pkg/feedback"

	"github.com/gowebpki/jcs"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ReplayCache stores whole call results for identical calls. Entries are
// keyed by tool definition and the canonical JSON form of the arguments, so
// key order and number spelling do not matter. Cached results are shared
// and must not be modified.
type ReplayCache struct {
	cache *lru.Cache[string, *feedback.CallResult]
}

// NewReplayCache creates a cache holding up to size results.
func NewReplayCache(size int) (*ReplayCache, error) {
	cache, err := lru.New[string, *feedback.CallResult](size)
	if err != nil {
		return nil, err
	}
	return &ReplayCache{cache: cache}, nil
}

// Len returns the number of cached results.
func (c *ReplayCache) Len() int {
	return c.cache.Len()
}

// Purge drops every cached result.
func (c *ReplayCache) Purge() {
	c.cache.Purge()
}

// WithIdempotency answers repeated identical calls from cache. Calls whose
// arguments cannot be encoded as JSON bypass the cache, and failed calls are
// never cached.
func WithIdempotency(cache *ReplayCache) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (*feedback.CallResult, error) {
			key, ok := replayKey(call)
			if !ok {
				return next(ctx, call)
			}
			if result, hit := cache.cache.Get(key); hit {
				call.Replayed = true
				return result, nil
			}
			result, err := next(ctx, call)
			if err == nil {
				cache.cache.Add(key, result)
			}
			return result, err
		}
	}
}

func replayKey(call *Call) (string, bool) {
	raw, err := json.Marshal(call.Args)
	if err != nil {
		return "", false
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", false
	}
	return call.Tool.Name() + "\x00" + strconv.FormatUint(call.Tool.generation, 10) + "\x00" + string(canonical), true
}
