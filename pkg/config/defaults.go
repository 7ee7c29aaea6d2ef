package config

import "time"

// Transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// Default values for configuration fields.
const (
	// Server defaults
	DefaultServerName      = "parley"
	DefaultServerVersion   = "0.1.0"
	DefaultTransport       = TransportStdio
	DefaultListenAddress   = "127.0.0.1:8081"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultAuthHeader      = "Authorization"
	DefaultAuthScheme      = "Bearer"
	DefaultTLSMinVersion   = "1.3"
	DefaultCertReload      = 5 * time.Minute

	// Tools defaults
	DefaultToolsFile     = "./tools.yaml"
	DefaultToolsDebounce = 200 * time.Millisecond

	// Validation defaults
	DefaultTieBreak      = "lexicographic"
	DefaultLookupRetries = 2
	DefaultLookupBackoff = 50 * time.Millisecond

	// Database defaults
	DefaultDatabaseDriver = "sqlite"
	DefaultMaxOpenConns   = 4
	DefaultBusyTimeout    = 5 * time.Second

	// Evidence defaults
	DefaultEvidenceDSN          = "parley-evidence.db"
	DefaultEvidenceAsyncBuffer  = 1000
	DefaultEvidenceWriteTimeout = 5 * time.Second
	DefaultRetentionDays        = 90
	DefaultPruneSchedule        = "0 3 * * *"

	// Telemetry defaults
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "parley"
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingService     = "parley"
	DefaultTracingTimeout     = 10 * time.Second
)

// DefaultDurationBuckets are histogram buckets for call and validator
// durations, in seconds.
var DefaultDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// NewDefaultConfig returns a configuration populated with defaults.
func NewDefaultConfig() *Config {
	cfg := newPreset()
	ApplyDefaults(cfg)
	return cfg
}

// newPreset returns a Config holding the defaults whose zero value is
// meaningful. They must be set before decoding so that an explicit false, 0
// or "" in the file survives.
func newPreset() *Config {
	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Evidence.Retention.Days = DefaultRetentionDays
	cfg.Evidence.Retention.PruneSchedule = DefaultPruneSchedule
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	s := &cfg.Server
	if s.Name == "" {
		s.Name = DefaultServerName
	}
	if s.Version == "" {
		s.Version = DefaultServerVersion
	}
	if s.Transport == "" {
		s.Transport = DefaultTransport
	}
	if s.ListenAddress == "" {
		s.ListenAddress = DefaultListenAddress
	}
	if s.BaseURL == "" {
		s.BaseURL = "http://" + s.ListenAddress
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	if s.TLS.MinVersion == "" {
		s.TLS.MinVersion = DefaultTLSMinVersion
	}
	if s.TLS.ReloadInterval == 0 {
		s.TLS.ReloadInterval = DefaultCertReload
	}
	if len(s.Auth.Sources) == 0 {
		s.Auth.Sources = []APIKeySource{{Type: "header", Name: DefaultAuthHeader, Scheme: DefaultAuthScheme}}
	}

	if cfg.Tools.File == "" {
		cfg.Tools.File = DefaultToolsFile
	}
	if cfg.Tools.Debounce == 0 {
		cfg.Tools.Debounce = DefaultToolsDebounce
	}

	v := &cfg.Validation
	if v.TieBreak == "" {
		v.TieBreak = DefaultTieBreak
	}
	if v.LookupRetries == 0 {
		v.LookupRetries = DefaultLookupRetries
	}
	if v.LookupBackoff == 0 {
		v.LookupBackoff = DefaultLookupBackoff
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDatabaseDriver
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = DefaultMaxOpenConns
	}
	if cfg.Database.BusyTimeout == 0 {
		cfg.Database.BusyTimeout = DefaultBusyTimeout
	}

	e := &cfg.Evidence
	if e.DSN == "" {
		e.DSN = DefaultEvidenceDSN
	}
	if e.AsyncBuffer == 0 {
		e.AsyncBuffer = DefaultEvidenceAsyncBuffer
	}
	if e.WriteTimeout == 0 {
		e.WriteTimeout = DefaultEvidenceWriteTimeout
	}

	l := &cfg.Telemetry.Logging
	if l.Level == "" {
		l.Level = DefaultLogLevel
	}
	if l.Format == "" {
		l.Format = DefaultLogFormat
	}

	m := &cfg.Telemetry.Metrics
	if m.Path == "" {
		m.Path = DefaultMetricsPath
	}
	if m.Namespace == "" {
		m.Namespace = DefaultMetricsNamespace
	}
	if len(m.DurationBuckets) == 0 {
		m.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}

	t := &cfg.Telemetry.Tracing
	if t.Endpoint == "" {
		t.Endpoint = DefaultTracingEndpoint
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = DefaultTracingSampleRatio
	}
	if t.ServiceName == "" {
		t.ServiceName = DefaultTracingService
	}
	if t.Timeout == 0 {
		t.Timeout = DefaultTracingTimeout
	}
}
