package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadWithEnvFile(filepath.Join(t.TempDir(), "absent.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Backend)
	assert.Equal(t, "none", cfg.Storage.Cache)
	assert.Equal(t, 1000, cfg.OpenAI.MaxTokens)
	assert.InDelta(t, 0.7, cfg.OpenAI.Temperature, 1e-9)
	assert.Equal(t, "gemini", cfg.Gemini.Marker)
	require.NoError(t, cfg.Validate())
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
server:
  port: "9000"
  base_path: relay/
storage:
  backend: SQLite
  sqlite_path: /tmp/chat.db
openai:
  max_tokens: 256
  api_key: from-file
`)
	envFile := writeFile(t, dir, ".env", "CHATRELAY_OPENAI_TEMPERATURE=0.2\nOPENAI_API_KEY=from-dotenv\n")

	t.Setenv("CHATRELAY_PORT", "9100")
	// set so that the dotenv value loses
	t.Setenv("OPENAI_API_KEY", "from-env")
	// registered for cleanup, then cleared so the dotenv file can supply it
	t.Setenv("CHATRELAY_OPENAI_TEMPERATURE", "unset")
	require.NoError(t, os.Unsetenv("CHATRELAY_OPENAI_TEMPERATURE"))

	cfg, err := LoadWithEnvFile(path, envFile)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "/relay", cfg.Server.BasePath)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/chat.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 256, cfg.OpenAI.MaxTokens)
	assert.Equal(t, "from-env", cfg.OpenAI.APIKey)
	assert.InDelta(t, 0.2, cfg.OpenAI.Temperature, 1e-9)
	// untouched defaults survive a partial file
	assert.Equal(t, DefaultGeminiBaseURL, cfg.Gemini.BaseURL)
}

func TestLoadDotEnvFillsUnsetVariables(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "CHATRELAY_TEST_DOTENV_MARKER=claude\n")
	t.Cleanup(func() { os.Unsetenv("CHATRELAY_TEST_DOTENV_MARKER") })

	_, err := LoadWithEnvFile("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "claude", os.Getenv("CHATRELAY_TEST_DOTENV_MARKER"))
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.json", `{"storage":{"backend":"mongodb","mongo_uri":"mongodb://db:27017"},"security":{"api_keys":["k1"]}}`)
	cfg, err := LoadWithEnvFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, "mongodb", cfg.Storage.Backend)
	assert.Equal(t, []string{"k1"}, cfg.Security.APIKeys)
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "server: [unclosed")
	_, err := LoadWithEnvFile(path, "")
	require.Error(t, err)
}

func TestEnvListsAndToggles(t *testing.T) {
	t.Setenv("CHATRELAY_API_KEYS", " a, b ,,c ")
	t.Setenv("CHATRELAY_RATE_LIMIT_ENABLED", "yes")
	t.Setenv("CHATRELAY_DEBUG", "off")
	t.Setenv("DATABASE_URL", "postgres://u@db/x")

	cfg, err := LoadWithEnvFile("", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Security.APIKeys)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.False(t, cfg.Server.Debug)
	assert.Equal(t, "postgres://u@db/x", cfg.Storage.PostgresDSN)
}

func TestTracingFromOTELEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "false")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.1")

	cfg, err := LoadWithEnvFile("", "")
	require.NoError(t, err)
	assert.Equal(t, "collector:4317", cfg.Tracing.Endpoint)
	assert.False(t, cfg.Tracing.Insecure)
	assert.InDelta(t, 0.1, cfg.Tracing.SampleRatio, 1e-9)

	cfg.Tracing.SampleRatio = 3
	require.ErrorContains(t, cfg.Validate(), "tracing.sample_ratio")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = "99999"
	cfg.Storage.Backend = "file"
	cfg.Storage.Cache = "memcached"
	cfg.RateLimit.Burst = -1
	cfg.OpenAI.BaseURL = "ftp://x"

	err := cfg.Validate()
	require.Error(t, err)
	for _, field := range []string{"server.port", "storage.backend", "storage.cache", "rate_limit.burst", "openai.base_url"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestValidateBackendRequirements(t *testing.T) {
	cfg := Defaults()
	cfg.Storage.Backend = "mongodb"
	cfg.Storage.MongoURI = ""
	require.ErrorContains(t, cfg.Validate(), "storage.mongo_uri")

	cfg = Defaults()
	cfg.Storage.Cache = "redis"
	cfg.Storage.RedisAddr = ""
	require.ErrorContains(t, cfg.Validate(), "storage.redis_addr")
}

func TestExpandPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cfg := Defaults()
	cfg.Storage.SQLitePath = "~/data/chat.db"
	cfg.Server.LogFile = "/var/log/relay.log"
	require.NoError(t, cfg.ExpandPaths())
	assert.Equal(t, filepath.Join(home, "data/chat.db"), cfg.Storage.SQLitePath)
	assert.Equal(t, "/var/log/relay.log", cfg.Server.LogFile)
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "server:\n  debug: false\n")
	cfg, err := LoadWithEnvFile(path, "")
	require.NoError(t, err)

	w := NewWatcher(path, cfg)
	w.envFile = ""
	w.debounce = 10 * time.Millisecond
	w.pollEvery = 20 * time.Millisecond
	changed := make(chan *Config, 1)
	w.OnChange(func(_, next *Config) {
		select {
		case changed <- next:
		default:
		}
	})
	w.Start()
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("server:\n  debug: true\n"), 0o600))
	// make sure the mtime moves even on coarse filesystems
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case next := <-changed:
		assert.True(t, next.Server.Debug)
		assert.True(t, w.Current().Server.Debug)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not report the change")
	}
}

func TestWatcherKeepsPreviousOnInvalidReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "server:\n  port: \"8081\"\n")
	cfg, err := LoadWithEnvFile(path, "")
	require.NoError(t, err)

	w := NewWatcher(path, cfg)
	w.envFile = ""
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"0\"\n"), 0o600))
	w.reload(time.Now())
	assert.Equal(t, "8081", w.Current().Server.Port)
	w.Close()
	w.Close()
}
