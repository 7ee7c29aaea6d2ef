package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"os"
	"sync"

	"mercator-hq/parley/pkg/config"
)

// APIKeyValidator validates API keys against a configured set of keys.
// Keys are indexed by digest so a lookup does not compare secrets byte by
// byte.
type APIKeyValidator struct {
	mu   sync.RWMutex
	keys map[[sha256.Size]byte]*APIKeyInfo
}

// NewAPIKeyValidator creates a new API key validator with the given keys.
func NewAPIKeyValidator(keys []*APIKeyInfo) *APIKeyValidator {
	v := &APIKeyValidator{keys: make(map[[sha256.Size]byte]*APIKeyInfo, len(keys))}
	for _, key := range keys {
		v.keys[sha256.Sum256([]byte(key.Key))] = key
	}
	return v
}

// NewAPIKeyValidatorFromConfig builds a validator from configured keys,
// reading key_env entries from the environment. An unset variable is an
// error unless the key is disabled.
func NewAPIKeyValidatorFromConfig(cfg config.AuthConfig) (*APIKeyValidator, error) {
	keys := make([]*APIKeyInfo, 0, len(cfg.Keys))
	for _, k := range cfg.Keys {
		value := k.Key
		if k.KeyEnv != "" {
			value = os.Getenv(k.KeyEnv)
			if value == "" {
				if k.Disabled {
					continue
				}
				return nil, fmt.Errorf("API key for client %q: environment variable %s is not set", k.Client, k.KeyEnv)
			}
		}
		keys = append(keys, &APIKeyInfo{Key: value, Client: k.Client, Enabled: !k.Disabled})
	}
	return NewAPIKeyValidator(keys), nil
}

// Validate checks if the given API key is valid and returns its info.
func (v *APIKeyValidator) Validate(key string) (*APIKeyInfo, error) {
	digest := sha256.Sum256([]byte(key))

	v.mu.RLock()
	info, ok := v.keys[digest]
	v.mu.RUnlock()

	if !ok || subtle.ConstantTimeCompare([]byte(info.Key), []byte(key)) != 1 {
		return nil, ErrInvalidAPIKey
	}
	if !info.Enabled {
		return nil, ErrDisabledAPIKey
	}
	return info, nil
}

// Len returns the number of configured keys.
func (v *APIKeyValidator) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.keys)
}

// Add adds a new API key to the validator.
func (v *APIKeyValidator) Add(info *APIKeyInfo) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys[sha256.Sum256([]byte(info.Key))] = info
}

// Remove removes an API key from the validator.
func (v *APIKeyValidator) Remove(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.keys, sha256.Sum256([]byte(key)))
}
