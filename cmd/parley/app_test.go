package main

import (
	"context"
	"errors"
	"testing"

	"mercator-hq/parley/pkg/limits"
)

func TestApp_CallLimits(t *testing.T) {
	t.Setenv("PARLEY_LIMITS_ENABLED", "true")
	t.Setenv("PARLEY_LIMITS_DEFAULT_REQUESTS_PER_MINUTE", "1")
	t.Setenv("PARLEY_VALIDATION_IDEMPOTENCY_CACHE_SIZE", "16")

	cfgFile = "testdata/parley.yaml"
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	tests := []struct {
		name        string
		opts        appOptions
		wantLimited bool
	}{
		{"serving enforces limits", appOptions{limit: true}, true},
		{"other commands ignore limits", appOptions{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			a, err := newApp(ctx, cfg, tt.opts)
			if err != nil {
				t.Fatalf("newApp() error = %v", err)
			}
			defer a.close(ctx)
			if err := a.loadTools(cfg.Tools.File); err != nil {
				t.Fatalf("loadTools() error = %v", err)
			}

			args := map[string]any{"passengers": 2.0, "departure": "LHR", "arrival": "JFK"}
			if _, err := a.registry.Invoke(ctx, "book_flight", args); err != nil {
				t.Fatalf("first call: %v", err)
			}
			// Replays are answered before the limit is consulted.
			if _, err := a.registry.Invoke(ctx, "book_flight", args); err != nil {
				t.Fatalf("replayed call: %v", err)
			}

			_, err = a.registry.Invoke(ctx, "book_flight", map[string]any{"passengers": 1.0, "departure": "LHR", "arrival": "JFK"})
			var lerr *limits.LimitError
			if limited := errors.As(err, &lerr); limited != tt.wantLimited {
				t.Errorf("limited = %v (%v), want %v", limited, err, tt.wantLimited)
			}
		})
	}
}
