package tls

import (
	"context"
	"crypto/tls"
	"fmt"

	"mercator-hq/parley/pkg/config"
	"mercator-hq/parley/pkg/telemetry/logging"
)

// NewServerConfig builds a crypto/tls server configuration whose
// certificate is reloaded from disk while ctx is alive. It returns nil when
// TLS is disabled.
func NewServerConfig(ctx context.Context, cfg config.TLSConfig, logger *logging.Logger) (*tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.CertFile == "" {
		return nil, fmt.Errorf("cert_file is required when TLS is enabled")
	}
	if cfg.KeyFile == "" {
		return nil, fmt.Errorf("key_file is required when TLS is enabled")
	}

	version, err := ParseVersion(cfg.MinVersion)
	if err != nil {
		return nil, err
	}

	reloader := NewCertificateReloader(cfg.CertFile, cfg.KeyFile, cfg.ReloadInterval, logger)
	if err := reloader.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}

	// #nosec G402 - MinVersion is validated, TLS 1.0 and 1.1 are rejected
	return &tls.Config{
		MinVersion:     version,
		GetCertificate: reloader.GetCertificateFunc(),
	}, nil
}

// ParseVersion converts "1.2" or "1.3" to a crypto/tls version constant.
// The empty string means TLS 1.3.
func ParseVersion(v string) (uint16, error) {
	switch v {
	case "1.3", "":
		return tls.VersionTLS13, nil
	case "1.2":
		return tls.VersionTLS12, nil
	default:
		return 0, fmt.Errorf("unsupported TLS version %q", v)
	}
}
