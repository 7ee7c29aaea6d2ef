package limits

import (
	"context"
	"sync"

	"mercator-hq/parley/pkg/config"
	"mercator-hq/parley/pkg/limits/ratelimit"
	"mercator-hq/parley/pkg/security/auth"
	"mercator-hq/parley/pkg/telemetry/logging"
	"mercator-hq/parley/pkg/telemetry/metrics"
)

// Manager holds one limiter per tool and per client, created on first use.
type Manager struct {
	config  config.LimitsConfig
	metrics *metrics.Collector
	logger  *logging.Logger
	clock   ratelimit.Clock

	mu      sync.Mutex
	tools   map[string]*ratelimit.Limiter
	clients map[string]*ratelimit.Limiter
}

// Option configures a Manager.
type Option func(*Manager)

// WithMetrics counts refused calls on collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(m *Manager) {
		m.metrics = collector
	}
}

// WithLogger sets the manager logger.
func WithLogger(logger *logging.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides time.Now for the rate buckets.
func WithClock(clock ratelimit.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// NewManager creates a limits manager for cfg.
func NewManager(cfg config.LimitsConfig, opts ...Option) *Manager {
	m := &Manager{
		config:  cfg,
		logger:  logging.NewNop(),
		tools:   make(map[string]*ratelimit.Limiter),
		clients: make(map[string]*ratelimit.Limiter),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire admits one call of toolName for the client in ctx, or returns a
// *LimitError. A nil error comes with a release function that must be
// called when the call finishes.
func (m *Manager) Acquire(ctx context.Context, toolName string) (func(), error) {
	if !m.config.Enabled {
		return func() {}, nil
	}

	client := auth.ClientFrom(ctx)
	var held []*ratelimit.Limiter
	release := func() {
		for _, l := range held {
			l.ReleaseConcurrent()
		}
	}

	checks := []struct {
		scope   string
		limiter *ratelimit.Limiter
	}{
		{ScopeTool, m.toolLimiter(toolName)},
		{ScopeClient, m.clientLimiter(client)},
	}
	for _, c := range checks {
		if c.limiter == nil {
			continue
		}
		res := c.limiter.AcquireConcurrent()
		if res.Allowed {
			held = append(held, c.limiter)
			res = c.limiter.CheckRequest()
		}
		if !res.Allowed {
			release()
			return nil, m.refuse(ctx, toolName, client, c.scope, res)
		}
	}
	return release, nil
}

func (m *Manager) refuse(ctx context.Context, toolName, client, scope string, res *ratelimit.CheckResult) error {
	if m.metrics != nil {
		m.metrics.RecordLimited(toolName, res.Limit)
	}
	m.logger.WarnContext(ctx, "call limit exceeded",
		"tool", toolName,
		"client", client,
		"scope", scope,
		"limit", res.Limit,
		"retry_after", res.RetryAfter.String(),
	)
	return &LimitError{
		Tool:       toolName,
		Client:     client,
		Scope:      scope,
		Limit:      res.Limit,
		RetryAfter: res.RetryAfter,
	}
}

// toolLimiter returns the limiter for a tool, or nil when it is unlimited.
func (m *Manager) toolLimiter(name string) *ratelimit.Limiter {
	cl, ok := m.config.ByTool[name]
	if !ok {
		cl = m.config.Default
	}
	return m.limiter(m.tools, name, cl)
}

// clientLimiter returns the limiter for a client, or nil when it is
// unlimited or unauthenticated.
func (m *Manager) clientLimiter(client string) *ratelimit.Limiter {
	if client == "" {
		return nil
	}
	return m.limiter(m.clients, client, m.config.ByClient[client])
}

func (m *Manager) limiter(set map[string]*ratelimit.Limiter, key string, cl config.CallLimits) *ratelimit.Limiter {
	if cl.IsZero() {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := set[key]
	if !ok {
		l = ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerSecond: cl.RequestsPerSecond,
			RequestsPerMinute: cl.RequestsPerMinute,
			RequestsPerHour:   cl.RequestsPerHour,
			MaxConcurrent:     cl.MaxConcurrent,
			Clock:             m.clock,
		})
		set[key] = l
	}
	return l
}

// Reset refills every limiter.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.tools {
		l.Reset()
	}
	for _, l := range m.clients {
		l.Reset()
	}
}
