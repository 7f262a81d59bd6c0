package config

// Config is the full runtime configuration. Field tags serve both the YAML
// and JSON file formats.
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Security  SecurityConfig  `yaml:"security" json:"security"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Gemini    GeminiConfig    `yaml:"gemini" json:"gemini"`
	OpenAI    OpenAIConfig    `yaml:"openai" json:"openai"`
	Transport TransportConfig `yaml:"transport" json:"transport"`
	Tracing   TracingConfig   `yaml:"tracing" json:"tracing"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port     string `yaml:"port" json:"port"`
	BasePath string `yaml:"base_path" json:"base_path"`
	Debug    bool   `yaml:"debug" json:"debug"`
	LogFile  string `yaml:"log_file" json:"log_file"`
}

// SecurityConfig 访问控制配置
type SecurityConfig struct {
	APIKeys     []string `yaml:"api_keys" json:"api_keys"`
	APIKeyHash  string   `yaml:"api_key_hash" json:"api_key_hash"`
	CORSEnabled bool     `yaml:"cors_enabled" json:"cors_enabled"`
}

// AuthEnabled reports whether /api requires a key.
func (s SecurityConfig) AuthEnabled() bool {
	return len(s.APIKeys) > 0 || s.APIKeyHash != ""
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	RPS     int  `yaml:"rps" json:"rps"`
	Burst   int  `yaml:"burst" json:"burst"`
}

// StorageConfig 存储后端配置
type StorageConfig struct {
	Backend       string `yaml:"backend" json:"backend"` // postgres, sqlite, mongodb
	PostgresDSN   string `yaml:"postgres_dsn" json:"postgres_dsn"`
	SQLitePath    string `yaml:"sqlite_path" json:"sqlite_path"`
	MongoURI      string `yaml:"mongo_uri" json:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database" json:"mongo_database"`
	Cache         string `yaml:"cache" json:"cache"` // none, memory, redis
	CacheTTLSec   int    `yaml:"cache_ttl_sec" json:"cache_ttl_sec"`
	RedisAddr     string `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword string `yaml:"redis_password" json:"redis_password"`
	RedisDB       int    `yaml:"redis_db" json:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix" json:"redis_prefix"`
}

// GeminiConfig configures the Gemini-style provider. BearerToken, when set,
// is used instead of APIKey.
type GeminiConfig struct {
	BaseURL     string `yaml:"base_url" json:"base_url"`
	APIKey      string `yaml:"api_key" json:"api_key"`
	BearerToken string `yaml:"bearer_token" json:"bearer_token"`
	Marker      string `yaml:"marker" json:"marker"`
}

// OpenAIConfig configures the OpenAI-compatible provider.
type OpenAIConfig struct {
	BaseURL     string  `yaml:"base_url" json:"base_url"`
	APIKey      string  `yaml:"api_key" json:"api_key"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
}

// TransportConfig 上游 HTTP 传输设置
type TransportConfig struct {
	DialTimeoutSec           int    `yaml:"dial_timeout_sec" json:"dial_timeout_sec"`
	TLSHandshakeTimeoutSec   int    `yaml:"tls_handshake_timeout_sec" json:"tls_handshake_timeout_sec"`
	ResponseHeaderTimeoutSec int    `yaml:"response_header_timeout_sec" json:"response_header_timeout_sec"`
	ProxyURL                 string `yaml:"proxy_url" json:"proxy_url"`
}

// TracingConfig enables OTLP/gRPC span export. An empty Endpoint disables it.
type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint" json:"endpoint"`
	Insecure    bool    `yaml:"insecure" json:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio" json:"sample_ratio"`
}
