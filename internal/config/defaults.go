package config

import (
	"chatrelay-go/internal/constants"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// Defaults returns the built-in configuration every other source overlays.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
		},
		RateLimit: RateLimitConfig{
			Enabled: false,
			RPS:     10,
			Burst:   20,
		},
		Storage: StorageConfig{
			Backend:       "postgres",
			PostgresDSN:   "postgres://localhost:5432/chatrelay?sslmode=disable",
			SQLitePath:    "~/.chatrelay/chat.db",
			MongoDatabase: "chatrelay",
			Cache:         "none",
			CacheTTLSec:   int(constants.MessageCacheTTL.Seconds()),
			RedisAddr:     "localhost:6379",
			RedisPrefix:   "chatrelay:",
		},
		Gemini: GeminiConfig{
			BaseURL: DefaultGeminiBaseURL,
			Marker:  constants.DefaultGeminiMarker,
		},
		OpenAI: OpenAIConfig{
			BaseURL:     DefaultOpenAIBaseURL,
			MaxTokens:   constants.DefaultMaxTokens,
			Temperature: constants.DefaultTemperature,
		},
		Transport: TransportConfig{
			DialTimeoutSec:           int(constants.DefaultDialTimeout.Seconds()),
			TLSHandshakeTimeoutSec:   int(constants.DefaultTLSHandshakeTimeout.Seconds()),
			ResponseHeaderTimeoutSec: int(constants.DefaultResponseHeaderTimeout.Seconds()),
		},
		Tracing: TracingConfig{
			Insecure:    true,
			SampleRatio: 1,
		},
	}
}
