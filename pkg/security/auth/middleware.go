package auth

import (
	"context"
	"net/http"
	"strings"

	"mercator-hq/parley/pkg/config"
	"mercator-hq/parley/pkg/telemetry/logging"
)

// APIKeyMiddleware is HTTP middleware for API key authentication.
type APIKeyMiddleware struct {
	validator *APIKeyValidator
	sources   []config.APIKeySource
	logger    *logging.Logger
}

// NewAPIKeyMiddleware creates a new API key authentication middleware.
// A nil logger discards output.
func NewAPIKeyMiddleware(validator *APIKeyValidator, sources []config.APIKeySource, logger *logging.Logger) *APIKeyMiddleware {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &APIKeyMiddleware{
		validator: validator,
		sources:   sources,
		logger:    logger,
	}
}

// Handle wraps an HTTP handler with API key authentication. The
// authenticated client is available to the handler through ClientFrom.
func (m *APIKeyMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey, err := m.extractAPIKey(r)
		if err == nil {
			var info *APIKeyInfo
			info, err = m.validator.Validate(apiKey)
			if err == nil {
				m.logger.DebugContext(r.Context(), "API key authenticated",
					"client", info.Client,
					"path", r.URL.Path,
				)
				next.ServeHTTP(w, r.WithContext(WithClient(r.Context(), info.Client)))
				return
			}
		}

		// Key values are never logged.
		m.logger.WarnContext(r.Context(), "authentication failed",
			"error", err,
			"remote_addr", r.RemoteAddr,
			"path", r.URL.Path,
		)
		if scheme := m.challenge(); scheme != "" {
			w.Header().Set("WWW-Authenticate", scheme)
		}
		http.Error(w, "Missing or invalid API key", http.StatusUnauthorized)
	})
}

// extractAPIKey extracts the API key from the request using configured sources.
func (m *APIKeyMiddleware) extractAPIKey(r *http.Request) (string, error) {
	for _, source := range m.sources {
		switch source.Type {
		case "header":
			value := r.Header.Get(source.Name)
			if value == "" {
				continue
			}
			if source.Scheme == "" {
				return value, nil
			}
			scheme, token, ok := strings.Cut(value, " ")
			if ok && strings.EqualFold(scheme, source.Scheme) && token != "" {
				return strings.TrimSpace(token), nil
			}

		case "query":
			if value := r.URL.Query().Get(source.Name); value != "" {
				return value, nil
			}
		}
	}
	return "", ErrNoAPIKey
}

func (m *APIKeyMiddleware) challenge() string {
	for _, source := range m.sources {
		if source.Type == "header" && source.Scheme != "" {
			return source.Scheme
		}
	}
	return ""
}

type contextKey struct{}

// WithClient returns a context carrying the authenticated client name.
func WithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, contextKey{}, client)
}

// ClientFrom returns the authenticated client name, or "" for
// unauthenticated calls.
func ClientFrom(ctx context.Context) string {
	client, _ := ctx.Value(contextKey{}).(string)
	return client
}
