package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  transport: "sse"
  listen_address: "0.0.0.0:9000"

tools:
  file: "./flights.yaml"
  watch: true
  debounce: "1s"

validation:
  tie_break: "fewest_hints"
  call_timeout: "5s"
  idempotency_cache_size: 128

database:
  dsn: "file:flights.db"

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Transport != "sse" {
		t.Errorf("expected transport %q, got %q", "sse", cfg.Server.Transport)
	}
	if cfg.Server.BaseURL != "http://0.0.0.0:9000" {
		t.Errorf("expected derived base URL, got %q", cfg.Server.BaseURL)
	}
	if !cfg.Tools.Watch || cfg.Tools.Debounce != time.Second {
		t.Errorf("unexpected tools config: %+v", cfg.Tools)
	}
	if cfg.Validation.TieBreak != "fewest_hints" {
		t.Errorf("expected tie break %q, got %q", "fewest_hints", cfg.Validation.TieBreak)
	}
	if cfg.Validation.CallTimeout != 5*time.Second {
		t.Errorf("expected call timeout %v, got %v", 5*time.Second, cfg.Validation.CallTimeout)
	}
	if cfg.Validation.IdempotencyCacheSize != 128 {
		t.Errorf("expected cache size 128, got %d", cfg.Validation.IdempotencyCacheSize)
	}
	if cfg.Database.Driver != DefaultDatabaseDriver {
		t.Errorf("expected default driver, got %q", cfg.Database.Driver)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to stay enabled when unset")
	}
}

func TestLoadConfig_MetricsCanBeDisabled(t *testing.T) {
	path := writeConfig(t, "telemetry:\n  metrics:\n    enabled: false\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics disabled")
	}
}

func TestLoadConfig_RetentionCanBeDisabled(t *testing.T) {
	path := writeConfig(t, "evidence:\n  retention:\n    days: 0\n    prune_schedule: \"\"\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Evidence.Retention.Days != 0 || cfg.Evidence.Retention.PruneSchedule != "" {
		t.Errorf("retention = %+v, want disabled", cfg.Evidence.Retention)
	}

	defaults := NewDefaultConfig()
	if defaults.Evidence.Retention.Days != DefaultRetentionDays || defaults.Evidence.Retention.PruneSchedule != DefaultPruneSchedule {
		t.Errorf("default retention = %+v", defaults.Evidence.Retention)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	path := writeConfig(t, "validation:\n  tie_break: \"random\"\n")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Errors[0].Field != "validation.tie_break" {
		t.Errorf("expected tie_break error, got %v", verr.Errors)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  transport: \"stdio\"\n")

	t.Setenv("PARLEY_SERVER_TRANSPORT", "sse")
	t.Setenv("PARLEY_TOOLS_WATCH", "true")
	t.Setenv("PARLEY_VALIDATION_CALL_TIMEOUT", "250ms")
	t.Setenv("PARLEY_VALIDATION_LOOKUP_RETRIES", "7")
	t.Setenv("PARLEY_TELEMETRY_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("PARLEY_DATABASE_MAX_OPEN_CONNS", "not-a-number")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Transport != "sse" {
		t.Errorf("expected env transport, got %q", cfg.Server.Transport)
	}
	if !cfg.Tools.Watch {
		t.Error("expected watch enabled from env")
	}
	if cfg.Validation.CallTimeout != 250*time.Millisecond {
		t.Errorf("expected call timeout 250ms, got %v", cfg.Validation.CallTimeout)
	}
	if cfg.Validation.LookupRetries != 7 {
		t.Errorf("expected 7 retries, got %d", cfg.Validation.LookupRetries)
	}
	if cfg.Telemetry.Tracing.SampleRatio != 0.25 {
		t.Errorf("expected sample ratio 0.25, got %v", cfg.Telemetry.Tracing.SampleRatio)
	}
	if cfg.Database.MaxOpenConns != DefaultMaxOpenConns {
		t.Errorf("malformed env value should be ignored, got %d", cfg.Database.MaxOpenConns)
	}
}

func TestLoadConfigWithEnvOverrides_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfigWithEnvOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for missing file, got %v", err)
	}
	if cfg.Server.Transport != DefaultTransport {
		t.Errorf("expected default transport, got %q", cfg.Server.Transport)
	}
}

func TestLoadConfig_AuthAndLimits(t *testing.T) {
	path := writeConfig(t, `
server:
  transport: "sse"
  auth:
    enabled: true
    keys:
      - client: "ops"
        key_env: "OPS_KEY"
limits:
  enabled: true
  default:
    requests_per_second: 5
  by_tool:
    book_flight:
      requests_per_minute: 30
      max_concurrent: 2
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	sources := cfg.Server.Auth.Sources
	if len(sources) != 1 || sources[0].Name != DefaultAuthHeader || sources[0].Scheme != DefaultAuthScheme {
		t.Errorf("expected default bearer source, got %+v", sources)
	}
	if cfg.Server.Auth.Keys[0].KeyEnv != "OPS_KEY" {
		t.Errorf("expected key_env, got %+v", cfg.Server.Auth.Keys[0])
	}
	if !cfg.Limits.Enabled || cfg.Limits.Default.RequestsPerSecond != 5 {
		t.Errorf("unexpected default limits: %+v", cfg.Limits)
	}
	want := CallLimits{RequestsPerMinute: 30, MaxConcurrent: 2}
	if got := cfg.Limits.ByTool["book_flight"]; got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if !(CallLimits{}).IsZero() || want.IsZero() {
		t.Error("IsZero mismatch")
	}
}
