package auth

import "errors"

// APIKeyInfo represents an API key and the client holding it.
type APIKeyInfo struct {
	Key     string
	Client  string
	Enabled bool
}

var (
	// ErrNoAPIKey is returned when no configured source carries a key.
	ErrNoAPIKey = errors.New("no API key found")

	// ErrInvalidAPIKey is returned for unknown keys.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrDisabledAPIKey is returned for keys marked disabled.
	ErrDisabledAPIKey = errors.New("API key disabled")
)
