package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration and applies defaults without validating.
func Parse(data []byte) (*Config, error) {
	cfg := newPreset()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables always take precedence
// over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
//
// A missing file is not an error: defaults and environment overrides are used.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg = NewDefaultConfig()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		cfg, err = Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format PARLEY_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	setString("PARLEY_SERVER_NAME", &cfg.Server.Name)
	setString("PARLEY_SERVER_TRANSPORT", &cfg.Server.Transport)
	setString("PARLEY_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	setString("PARLEY_SERVER_BASE_URL", &cfg.Server.BaseURL)
	setDuration("PARLEY_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Tools overrides
	setString("PARLEY_TOOLS_FILE", &cfg.Tools.File)
	setBool("PARLEY_TOOLS_WATCH", &cfg.Tools.Watch)
	setDuration("PARLEY_TOOLS_DEBOUNCE", &cfg.Tools.Debounce)

	// Validation overrides
	setString("PARLEY_VALIDATION_TIE_BREAK", &cfg.Validation.TieBreak)
	setDuration("PARLEY_VALIDATION_CALL_TIMEOUT", &cfg.Validation.CallTimeout)
	setInt("PARLEY_VALIDATION_IDEMPOTENCY_CACHE_SIZE", &cfg.Validation.IdempotencyCacheSize)
	setInt("PARLEY_VALIDATION_LOOKUP_RETRIES", &cfg.Validation.LookupRetries)
	setDuration("PARLEY_VALIDATION_LOOKUP_BACKOFF", &cfg.Validation.LookupBackoff)

	// Database overrides
	setString("PARLEY_DATABASE_DRIVER", &cfg.Database.Driver)
	setString("PARLEY_DATABASE_DSN", &cfg.Database.DSN)
	setInt("PARLEY_DATABASE_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	setString("PARLEY_DATABASE_INIT_SCRIPT", &cfg.Database.InitScript)

	// Evidence overrides
	setBool("PARLEY_EVIDENCE_ENABLED", &cfg.Evidence.Enabled)
	setString("PARLEY_EVIDENCE_DSN", &cfg.Evidence.DSN)
	setBool("PARLEY_EVIDENCE_RECORD_ARGS", &cfg.Evidence.RecordArgs)
	setInt("PARLEY_EVIDENCE_RETENTION_DAYS", &cfg.Evidence.Retention.Days)
	setString("PARLEY_EVIDENCE_RETENTION_PRUNE_SCHEDULE", &cfg.Evidence.Retention.PruneSchedule)

	// Limits overrides
	setBool("PARLEY_LIMITS_ENABLED", &cfg.Limits.Enabled)
	setInt("PARLEY_LIMITS_DEFAULT_REQUESTS_PER_SECOND", &cfg.Limits.Default.RequestsPerSecond)
	setInt("PARLEY_LIMITS_DEFAULT_REQUESTS_PER_MINUTE", &cfg.Limits.Default.RequestsPerMinute)
	setInt("PARLEY_LIMITS_DEFAULT_MAX_CONCURRENT", &cfg.Limits.Default.MaxConcurrent)

	// Auth and TLS overrides
	setBool("PARLEY_SERVER_AUTH_ENABLED", &cfg.Server.Auth.Enabled)
	setBool("PARLEY_SERVER_TLS_ENABLED", &cfg.Server.TLS.Enabled)
	setString("PARLEY_SERVER_TLS_CERT_FILE", &cfg.Server.TLS.CertFile)
	setString("PARLEY_SERVER_TLS_KEY_FILE", &cfg.Server.TLS.KeyFile)

	// Telemetry overrides
	setString("PARLEY_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	setString("PARLEY_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	setBool("PARLEY_TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	setBool("PARLEY_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	setString("PARLEY_TELEMETRY_METRICS_LISTEN_ADDRESS", &cfg.Telemetry.Metrics.ListenAddress)
	setString("PARLEY_TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	setBool("PARLEY_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	setString("PARLEY_TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	setBool("PARLEY_TELEMETRY_TRACING_INSECURE", &cfg.Telemetry.Tracing.Insecure)
	if val := os.Getenv("PARLEY_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

func setString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
