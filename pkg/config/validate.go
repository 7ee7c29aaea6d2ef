package config

import (
	"fmt"
	"strings"

	"mercator-hq/parley/pkg/fieldspec/graph"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.transport").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration. All validation errors are
// collected and returned together as a ValidationError.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTools(&cfg.Tools)...)
	errs = append(errs, validateValidation(&cfg.Validation)...)
	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateEvidence(&cfg.Evidence)...)
	errs = append(errs, validateLimits(&cfg.Limits)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(s *ServerConfig) []FieldError {
	var errs []FieldError
	switch s.Transport {
	case TransportStdio, TransportSSE:
	default:
		errs = append(errs, FieldError{"server.transport", fmt.Sprintf("unsupported transport %q (want stdio or sse)", s.Transport)})
	}
	if s.Transport == TransportSSE && s.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "required for the sse transport"})
	}
	if s.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{"server.shutdown_timeout", "must not be negative"})
	}
	errs = append(errs, validateTLS(&s.TLS)...)
	return append(errs, validateAuth(&s.Auth)...)
}

func validateTLS(t *TLSConfig) []FieldError {
	var errs []FieldError
	if t.MinVersion != "" && t.MinVersion != "1.2" && t.MinVersion != "1.3" {
		errs = append(errs, FieldError{"server.tls.min_version", fmt.Sprintf("unsupported version %q (want 1.2 or 1.3)", t.MinVersion)})
	}
	if t.ReloadInterval < 0 {
		errs = append(errs, FieldError{"server.tls.cert_reload_interval", "must not be negative"})
	}
	if !t.Enabled {
		return errs
	}
	if t.CertFile == "" {
		errs = append(errs, FieldError{"server.tls.cert_file", "required when TLS is enabled"})
	}
	if t.KeyFile == "" {
		errs = append(errs, FieldError{"server.tls.key_file", "required when TLS is enabled"})
	}
	return errs
}

func validateAuth(a *AuthConfig) []FieldError {
	var errs []FieldError
	for i, src := range a.Sources {
		field := fmt.Sprintf("server.auth.sources[%d]", i)
		if src.Type != "header" && src.Type != "query" {
			errs = append(errs, FieldError{field + ".type", fmt.Sprintf("unsupported source %q (want header or query)", src.Type)})
		}
		if src.Name == "" {
			errs = append(errs, FieldError{field + ".name", "must not be empty"})
		}
	}

	if !a.Enabled {
		return errs
	}
	if len(a.Keys) == 0 {
		errs = append(errs, FieldError{"server.auth.keys", "at least one key is required when auth is enabled"})
	}
	clients := make(map[string]bool, len(a.Keys))
	for i, k := range a.Keys {
		field := fmt.Sprintf("server.auth.keys[%d]", i)
		if k.Client == "" {
			errs = append(errs, FieldError{field + ".client", "must not be empty"})
		} else if clients[k.Client] {
			errs = append(errs, FieldError{field + ".client", fmt.Sprintf("duplicate client %q", k.Client)})
		}
		clients[k.Client] = true
		if (k.Key == "") == (k.KeyEnv == "") {
			errs = append(errs, FieldError{field, "exactly one of key and key_env is required"})
		}
	}
	return errs
}

func validateTools(t *ToolsConfig) []FieldError {
	var errs []FieldError
	if t.File == "" {
		errs = append(errs, FieldError{"tools.file", "must not be empty"})
	}
	if t.Debounce < 0 {
		errs = append(errs, FieldError{"tools.debounce", "must not be negative"})
	}
	return errs
}

func validateValidation(v *ValidationConfig) []FieldError {
	var errs []FieldError
	if _, err := graph.ParseTieBreak(v.TieBreak); err != nil {
		errs = append(errs, FieldError{"validation.tie_break", err.Error()})
	}
	if v.CallTimeout < 0 {
		errs = append(errs, FieldError{"validation.call_timeout", "must not be negative"})
	}
	if v.IdempotencyCacheSize < 0 {
		errs = append(errs, FieldError{"validation.idempotency_cache_size", "must not be negative"})
	}
	if v.LookupRetries < 0 {
		errs = append(errs, FieldError{"validation.lookup_retries", "must not be negative"})
	}
	if v.LookupBackoff < 0 {
		errs = append(errs, FieldError{"validation.lookup_backoff", "must not be negative"})
	}
	return errs
}

func validateDatabase(d *DatabaseConfig) []FieldError {
	var errs []FieldError
	if d.Driver != "sqlite" {
		errs = append(errs, FieldError{"database.driver", fmt.Sprintf("unsupported driver %q (want sqlite)", d.Driver)})
	}
	if d.MaxOpenConns < 0 {
		errs = append(errs, FieldError{"database.max_open_conns", "must not be negative"})
	}
	return errs
}

func validateEvidence(e *EvidenceConfig) []FieldError {
	var errs []FieldError
	if e.Enabled && e.DSN == "" {
		errs = append(errs, FieldError{"evidence.dsn", "required when evidence is enabled"})
	}
	if e.AsyncBuffer < 0 {
		errs = append(errs, FieldError{"evidence.async_buffer", "must not be negative"})
	}
	if e.WriteTimeout < 0 {
		errs = append(errs, FieldError{"evidence.write_timeout", "must not be negative"})
	}
	if e.Retention.Days < 0 {
		errs = append(errs, FieldError{"evidence.retention.days", "must not be negative"})
	}
	if e.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{"evidence.retention.max_records", "must not be negative"})
	}
	if e.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(e.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{"evidence.retention.prune_schedule", err.Error()})
		}
	}
	return errs
}

func validateLimits(l *LimitsConfig) []FieldError {
	var errs []FieldError
	errs = append(errs, validateCallLimits("limits.default", l.Default)...)
	for name, cl := range l.ByTool {
		errs = append(errs, validateCallLimits("limits.by_tool."+name, cl)...)
	}
	for name, cl := range l.ByClient {
		errs = append(errs, validateCallLimits("limits.by_client."+name, cl)...)
	}
	return errs
}

func validateCallLimits(field string, l CallLimits) []FieldError {
	var errs []FieldError
	for name, v := range map[string]int{
		"requests_per_second": l.RequestsPerSecond,
		"requests_per_minute": l.RequestsPerMinute,
		"requests_per_hour":   l.RequestsPerHour,
		"max_concurrent":      l.MaxConcurrent,
	} {
		if v < 0 {
			errs = append(errs, FieldError{field + "." + name, "must not be negative"})
		}
	}
	if l.RequestsPerHour > 0 && l.RequestsPerHour < 12 {
		errs = append(errs, FieldError{field + ".requests_per_hour", "must be at least 12"})
	}
	return errs
}

func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(t.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level", fmt.Sprintf("unknown level %q", t.Logging.Level)})
	}
	switch strings.ToLower(t.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format", fmt.Sprintf("unknown format %q", t.Logging.Format)})
	}

	if !strings.HasPrefix(t.Metrics.Path, "/") {
		errs = append(errs, FieldError{"telemetry.metrics.path", "must start with /"})
	}
	for i := 1; i < len(t.Metrics.DurationBuckets); i++ {
		if t.Metrics.DurationBuckets[i] <= t.Metrics.DurationBuckets[i-1] {
			errs = append(errs, FieldError{"telemetry.metrics.duration_buckets", "must be strictly increasing"})
			break
		}
	}

	if t.Tracing.SampleRatio < 0 || t.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{"telemetry.tracing.sample_ratio", "must be between 0 and 1"})
	}
	if t.Tracing.Enabled && t.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{"telemetry.tracing.endpoint", "required when tracing is enabled"})
	}

	return errs
}
