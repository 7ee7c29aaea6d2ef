package config

import "time"

// Config is the root configuration structure for parley.
type Config struct {
	// Server controls how tools are exposed to agents.
	Server ServerConfig `yaml:"server"`

	// Tools locates the declarative tool definitions.
	Tools ToolsConfig `yaml:"tools"`

	// Validation tunes the validation engine and its middleware.
	Validation ValidationConfig `yaml:"validation"`

	// Database configures the connection used by lookup rules.
	Database DatabaseConfig `yaml:"database"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Evidence configures the journal of served tool calls.
	Evidence EvidenceConfig `yaml:"evidence"`

	// Limits caps how often tools may be called.
	Limits LimitsConfig `yaml:"limits"`
}

// ServerConfig contains configuration for the MCP server.
type ServerConfig struct {
	// Name is the server name announced to MCP clients.
	// Default: "parley"
	Name string `yaml:"name"`

	// Version is the server version announced to MCP clients.
	// Default: the binary version
	Version string `yaml:"version"`

	// Transport selects how the MCP server is reached.
	// Options: "stdio", "sse"
	// Default: "stdio"
	Transport string `yaml:"transport"`

	// ListenAddress is the address for the SSE transport.
	// Default: "127.0.0.1:8081"
	ListenAddress string `yaml:"listen_address"`

	// BaseURL is the public URL of the SSE transport.
	// Default: "http://" + ListenAddress
	BaseURL string `yaml:"base_url"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Auth requires an API key on the SSE transport. Health, version and
	// metrics endpoints stay open.
	Auth AuthConfig `yaml:"auth"`

	// TLS serves the SSE transport over HTTPS.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig represents TLS configuration for the SSE transport.
type TLSConfig struct {
	// Enabled indicates whether TLS should be used.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the path to the PEM-encoded certificate file.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded private key file.
	KeyFile string `yaml:"key_file"`

	// MinVersion is the minimum TLS version to accept ("1.2" or "1.3").
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`

	// ReloadInterval is how often certificate files are checked for changes.
	// Default: 5m
	ReloadInterval time.Duration `yaml:"cert_reload_interval"`
}

// AuthConfig contains API key authentication configuration.
type AuthConfig struct {
	// Enabled controls whether API key authentication is enabled.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sources defines where to extract API keys from, tried in order.
	// Default: the Authorization header with the Bearer scheme
	Sources []APIKeySource `yaml:"sources"`

	// Keys is the list of accepted API keys.
	Keys []APIKeyConfig `yaml:"keys"`
}

// APIKeySource defines where to extract API keys from in HTTP requests.
type APIKeySource struct {
	// Type is the source type.
	// Options: "header", "query"
	Type string `yaml:"type"`

	// Name is the header name or query parameter name.
	// Examples: "Authorization", "X-API-Key", "api_key"
	Name string `yaml:"name"`

	// Scheme is the authentication scheme for header-based extraction.
	// Example: "Bearer" (for "Authorization: Bearer <token>")
	// Leave empty for raw value extraction.
	Scheme string `yaml:"scheme,omitempty"`
}

// APIKeyConfig contains configuration for a single API key.
type APIKeyConfig struct {
	// Client names the key's holder in logs, limits and evidence.
	Client string `yaml:"client"`

	// Key is the API key value.
	Key string `yaml:"key,omitempty"`

	// KeyEnv names an environment variable holding the key, instead of Key.
	KeyEnv string `yaml:"key_env,omitempty"`

	// Disabled rejects the key without removing it.
	// Default: false
	Disabled bool `yaml:"disabled"`
}

// ToolsConfig locates tool definitions.
type ToolsConfig struct {
	// File is the YAML file declaring the tools.
	// Default: "./tools.yaml"
	File string `yaml:"file"`

	// Watch reloads the tools when File changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// Debounce is the delay between a file change and the reload.
	// Default: 200ms
	Debounce time.Duration `yaml:"debounce"`
}

// ValidationConfig tunes validation behaviour.
type ValidationConfig struct {
	// TieBreak orders fields with no mutual requirement.
	// Options: "lexicographic", "fewest_hints"
	// Default: "lexicographic"
	TieBreak string `yaml:"tie_break"`

	// CallTimeout caps a single tool call. Zero means no cap.
	// Default: 0
	CallTimeout time.Duration `yaml:"call_timeout"`

	// IdempotencyCacheSize is the number of call results replayed for
	// identical arguments. Zero disables the cache.
	// Default: 0
	IdempotencyCacheSize int `yaml:"idempotency_cache_size"`

	// LookupRetries is the number of retries for failed lookup queries.
	// Default: 2
	LookupRetries int `yaml:"lookup_retries"`

	// LookupBackoff is the initial delay between lookup retries.
	// Default: 50ms
	LookupBackoff time.Duration `yaml:"lookup_backoff"`
}

// DatabaseConfig configures the lookup database.
type DatabaseConfig struct {
	// Driver is the database/sql driver name.
	// Options: "sqlite"
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// DSN is the data source name. Empty disables lookup rules.
	DSN string `yaml:"dsn"`

	// MaxOpenConns limits open connections.
	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns"`

	// InitScript is an optional path to a SQL file executed once when the
	// database is opened, typically to create and seed lookup tables.
	InitScript string `yaml:"init_script"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// EvidenceConfig configures recording of tool calls for later review.
type EvidenceConfig struct {
	// Enabled records one evidence row per served call.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// DSN is the SQLite database the records are written to. It is kept
	// apart from the lookup database, which may be read-only.
	// Default: "parley-evidence.db"
	DSN string `yaml:"dsn"`

	// RecordArgs stores the call arguments as canonical JSON. Without it
	// only their SHA-256 hash is kept.
	// Default: false
	RecordArgs bool `yaml:"record_args"`

	// AsyncBuffer is the number of records queued for writing.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds a single write, and the wait for queue space.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Retention configures pruning of old records.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig configures evidence pruning.
type RetentionConfig struct {
	// Days keeps records for this many days. 0 keeps them forever.
	// Default: 90
	Days int `yaml:"days"`

	// MaxRecords caps the number of records. 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a standard cron expression. Empty disables
	// scheduled pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// LogValues includes field values in debug logs.
	// Default: false
	LogValues bool `yaml:"log_values"`

	// Redact masks sensitive values (emails, tokens, secret-named keys)
	// in log arguments.
	// Default: false
	Redact bool `yaml:"redact"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress serves the metrics endpoint. Empty disables serving.
	// Default: ""
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "parley"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: ""
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for call duration (seconds).
	// Default: [0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is the service name in traces.
	// Default: "parley"
	ServiceName string `yaml:"service_name"`

	// Timeout bounds exporter calls.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// LimitsConfig caps how often tools may be called. A refused call is
// answered with an error, not a validation result.
type LimitsConfig struct {
	// Enabled controls whether call limits are enforced.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Default applies to every tool without an entry in ByTool.
	Default CallLimits `yaml:"default"`

	// ByTool replaces Default for the named tools.
	ByTool map[string]CallLimits `yaml:"by_tool"`

	// ByClient applies to all calls of an authenticated client, on top of
	// the tool limits.
	ByClient map[string]CallLimits `yaml:"by_client"`
}

// CallLimits contains limits for one tool or client. 0 means no limit.
type CallLimits struct {
	// RequestsPerSecond limits calls per second using token bucket.
	RequestsPerSecond int `yaml:"requests_per_second"`

	// RequestsPerMinute limits calls per minute using token bucket.
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// RequestsPerHour limits calls per hour using token bucket.
	RequestsPerHour int `yaml:"requests_per_hour"`

	// MaxConcurrent limits simultaneous calls.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// IsZero reports whether no limit is set.
func (l CallLimits) IsZero() bool {
	return l == CallLimits{}
}
