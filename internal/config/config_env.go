package config

// applyEnv overlays process environment variables. Conventional names
// (OPENAI_API_KEY, DATABASE_URL, ...) are honoured after the CHATRELAY_
// prefixed ones.
func applyEnv(cfg *Config) {
	// server
	setStringFromEnv(func(v string) { cfg.Server.Port = v }, "CHATRELAY_PORT", "PORT")
	setStringFromEnv(func(v string) { cfg.Server.BasePath = v }, "CHATRELAY_BASE_PATH")
	setToggleFromEnv("CHATRELAY_DEBUG", func(b bool) { cfg.Server.Debug = b })
	setStringFromEnv(func(v string) { cfg.Server.LogFile = v }, "CHATRELAY_LOG_FILE")

	// security
	setStringFromEnv(func(v string) { cfg.Security.APIKeys = splitAndTrim(v, ",") }, "CHATRELAY_API_KEYS")
	setStringFromEnv(func(v string) { cfg.Security.APIKeyHash = v }, "CHATRELAY_API_KEY_HASH")
	setToggleFromEnv("CHATRELAY_CORS_ENABLED", func(b bool) { cfg.Security.CORSEnabled = b })

	// rate limit
	setToggleFromEnv("CHATRELAY_RATE_LIMIT_ENABLED", func(b bool) { cfg.RateLimit.Enabled = b })
	setIntFromEnv("CHATRELAY_RATE_LIMIT_RPS", func(n int) { cfg.RateLimit.RPS = n })
	setIntFromEnv("CHATRELAY_RATE_LIMIT_BURST", func(n int) { cfg.RateLimit.Burst = n })

	// storage
	setStringFromEnv(func(v string) { cfg.Storage.Backend = v }, "CHATRELAY_STORAGE_BACKEND")
	setStringFromEnv(func(v string) { cfg.Storage.PostgresDSN = v }, "CHATRELAY_POSTGRES_DSN", "DATABASE_URL")
	setStringFromEnv(func(v string) { cfg.Storage.SQLitePath = v }, "CHATRELAY_SQLITE_PATH")
	setStringFromEnv(func(v string) { cfg.Storage.MongoURI = v }, "CHATRELAY_MONGO_URI", "MONGODB_URI")
	setStringFromEnv(func(v string) { cfg.Storage.MongoDatabase = v }, "CHATRELAY_MONGO_DATABASE")
	setStringFromEnv(func(v string) { cfg.Storage.Cache = v }, "CHATRELAY_CACHE")
	setIntFromEnv("CHATRELAY_CACHE_TTL_SEC", func(n int) { cfg.Storage.CacheTTLSec = n })
	setStringFromEnv(func(v string) { cfg.Storage.RedisAddr = v }, "CHATRELAY_REDIS_ADDR", "REDIS_ADDR")
	setStringFromEnv(func(v string) { cfg.Storage.RedisPassword = v }, "CHATRELAY_REDIS_PASSWORD", "REDIS_PASSWORD")
	setIntFromEnv("CHATRELAY_REDIS_DB", func(n int) { cfg.Storage.RedisDB = n })
	setStringFromEnv(func(v string) { cfg.Storage.RedisPrefix = v }, "CHATRELAY_REDIS_PREFIX")

	// providers
	setStringFromEnv(func(v string) { cfg.Gemini.BaseURL = v }, "CHATRELAY_GEMINI_BASE_URL", "GEMINI_BASE_URL")
	setStringFromEnv(func(v string) { cfg.Gemini.APIKey = v }, "CHATRELAY_GEMINI_API_KEY", "GEMINI_API_KEY")
	setStringFromEnv(func(v string) { cfg.Gemini.BearerToken = v }, "CHATRELAY_GEMINI_BEARER_TOKEN", "GOOGLE_BEARER_TOKEN")
	setStringFromEnv(func(v string) { cfg.Gemini.Marker = v }, "CHATRELAY_GEMINI_MARKER")
	setStringFromEnv(func(v string) { cfg.OpenAI.BaseURL = v }, "CHATRELAY_OPENAI_BASE_URL", "OPENAI_BASE_URL")
	setStringFromEnv(func(v string) { cfg.OpenAI.APIKey = v }, "CHATRELAY_OPENAI_API_KEY", "OPENAI_API_KEY")
	setIntFromEnv("CHATRELAY_OPENAI_MAX_TOKENS", func(n int) { cfg.OpenAI.MaxTokens = n })
	setFloatFromEnv("CHATRELAY_OPENAI_TEMPERATURE", func(f float64) { cfg.OpenAI.Temperature = f })

	// transport
	setIntFromEnv("CHATRELAY_DIAL_TIMEOUT_SEC", func(n int) { cfg.Transport.DialTimeoutSec = n })
	setIntFromEnv("CHATRELAY_TLS_HANDSHAKE_TIMEOUT_SEC", func(n int) { cfg.Transport.TLSHandshakeTimeoutSec = n })
	setIntFromEnv("CHATRELAY_RESPONSE_HEADER_TIMEOUT_SEC", func(n int) { cfg.Transport.ResponseHeaderTimeoutSec = n })
	setStringFromEnv(func(v string) { cfg.Transport.ProxyURL = v }, "CHATRELAY_PROXY_URL")

	// tracing, standard OTEL_* names
	setStringFromEnv(func(v string) { cfg.Tracing.Endpoint = v }, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setToggleFromEnv("OTEL_EXPORTER_OTLP_INSECURE", func(b bool) { cfg.Tracing.Insecure = b })
	setFloatFromEnv("OTEL_TRACES_SAMPLER_ARG", func(f float64) { cfg.Tracing.SampleRatio = f })
}
