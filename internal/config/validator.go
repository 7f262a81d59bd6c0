package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s=%s]: %s", e.Field, e.Value, e.Message)
}

var (
	knownBackends = map[string]bool{"postgres": true, "sqlite": true, "mongodb": true}
	knownCaches   = map[string]bool{"none": true, "memory": true, "redis": true}
)

// Validate returns every problem found, joined, or nil.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, value, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if err := validatePort(c.Server.Port); err != nil {
		add("server.port", c.Server.Port, err.Error())
	}

	if !knownBackends[c.Storage.Backend] {
		add("storage.backend", c.Storage.Backend, "must be one of postgres, sqlite, mongodb")
	}
	switch c.Storage.Backend {
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			add("storage.postgres_dsn", "", "required for postgres backend")
		}
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			add("storage.sqlite_path", "", "required for sqlite backend")
		}
	case "mongodb":
		if c.Storage.MongoURI == "" {
			add("storage.mongo_uri", "", "required for mongodb backend")
		}
	}
	if !knownCaches[c.Storage.Cache] {
		add("storage.cache", c.Storage.Cache, "must be one of none, memory, redis")
	}
	if c.Storage.Cache == "redis" && c.Storage.RedisAddr == "" {
		add("storage.redis_addr", "", "required for redis cache")
	}
	if c.Storage.CacheTTLSec < 0 {
		add("storage.cache_ttl_sec", strconv.Itoa(c.Storage.CacheTTLSec), "must not be negative")
	}

	if c.RateLimit.RPS < 0 {
		add("rate_limit.rps", strconv.Itoa(c.RateLimit.RPS), "must not be negative")
	}
	if c.RateLimit.Burst < 0 {
		add("rate_limit.burst", strconv.Itoa(c.RateLimit.Burst), "must not be negative")
	}
	if c.RateLimit.Enabled && c.RateLimit.RPS == 0 {
		add("rate_limit.rps", "0", "must be positive when rate limiting is enabled")
	}

	if c.OpenAI.MaxTokens < 0 {
		add("openai.max_tokens", strconv.Itoa(c.OpenAI.MaxTokens), "must not be negative")
	}
	if c.Gemini.Marker == "" {
		add("gemini.marker", "", "must not be empty")
	}
	for field, raw := range map[string]string{"gemini.base_url": c.Gemini.BaseURL, "openai.base_url": c.OpenAI.BaseURL} {
		if err := validateURL(raw); err != nil {
			add(field, raw, err.Error())
		}
	}
	if c.Transport.ProxyURL != "" {
		if err := validateURL(c.Transport.ProxyURL); err != nil {
			add("transport.proxy_url", c.Transport.ProxyURL, err.Error())
		}
	}
	for field, v := range map[string]int{
		"transport.dial_timeout_sec":            c.Transport.DialTimeoutSec,
		"transport.tls_handshake_timeout_sec":   c.Transport.TLSHandshakeTimeoutSec,
		"transport.response_header_timeout_sec": c.Transport.ResponseHeaderTimeoutSec,
	} {
		if v < 0 {
			add(field, strconv.Itoa(v), "must not be negative")
		}
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		add("tracing.sample_ratio", strconv.FormatFloat(c.Tracing.SampleRatio, 'g', -1, 64), "must be between 0 and 1")
	}

	return errors.Join(errs...)
}

func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port number: %v", err)
	}
	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", portNum)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("URL host cannot be empty")
	}
	return nil
}
