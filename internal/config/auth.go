package config

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// CheckAPIKey reports whether candidate matches one of the configured plain
// keys or the bcrypt hash.
func CheckAPIKey(sec SecurityConfig, candidate string) bool {
	if candidate == "" {
		return false
	}
	for _, key := range sec.APIKeys {
		if key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(candidate)) == 1 {
			return true
		}
	}
	if sec.APIKeyHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(sec.APIKeyHash), []byte(candidate)); err == nil {
			return true
		}
	}
	return false
}

// APIKeyValidator returns a closure suitable for middleware validation.
func APIKeyValidator(sec SecurityConfig) func(string) bool {
	return func(candidate string) bool {
		return CheckAPIKey(sec, candidate)
	}
}
