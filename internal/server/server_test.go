package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"chatrelay-go/internal/config"
	"chatrelay-go/internal/conversation"
	"chatrelay-go/internal/logging"
	"chatrelay-go/internal/storage"
	"chatrelay-go/internal/upstream"
	"chatrelay-go/internal/upstream/gemini"
	"chatrelay-go/internal/upstream/openai"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type fixture struct {
	engine     *gin.Engine
	geminiHits int
	openaiHits int
}

func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()
	f := &fixture{}

	gemSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.geminiHits++
		_, _ = io.WriteString(w, `data: {"candidates":[{"content":{"parts":[{"text":"hi from gemini"}]}}]}`+"\n\n")
	}))
	t.Cleanup(gemSrv.Close)
	oaiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.openaiHits++
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\ndata: [DONE]\n\n")
	}))
	t.Cleanup(oaiSrv.Close)

	cfg := config.Defaults()
	cfg.Server.Debug = true
	cfg.Storage.Backend = "sqlite"
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "chat.db")
	cfg.Storage.Cache = "memory"
	cfg.Security.APIKeys = []string{"secret"}
	cfg.Security.CORSEnabled = true
	cfg.Gemini.BaseURL = gemSrv.URL
	cfg.Gemini.APIKey = "g"
	cfg.OpenAI.BaseURL = oaiSrv.URL
	if mutate != nil {
		mutate(cfg)
	}

	ctx := context.Background()
	backend, err := storage.Open(ctx, cfg.Storage)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	for i, role := range []conversation.Role{conversation.RoleSystem, conversation.RoleUser} {
		require.NoError(t, backend.InsertMessage(ctx, conversation.Message{
			ID: []string{"sys", "u1"}[i], ChatID: "chat-1", Position: int64(i), Role: role, Content: "x",
		}))
	}

	cli := upstream.NewHTTPClient(cfg.Transport)
	dispatcher := upstream.NewDispatcher(cfg.Gemini.Marker,
		gemini.New(cfg.Gemini, cli),
		openai.New(cfg.OpenAI, cli))

	f.engine = BuildEngine(cfg, Dependencies{
		Store:        backend,
		Dispatcher:   dispatcher,
		TokenCounter: conversation.HeuristicCounter{},
		LogTail:      logging.NewLogTail(),
	})
	return f
}

func (f *fixture) do(method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestChatRequiresAPIKey(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodPost, "/api/chat", `{"messageId":"u1","model":"gpt-4o"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, f.openaiHits)
}

func TestChatEndToEnd(t *testing.T) {
	f := newFixture(t, nil)
	auth := map[string]string{"Authorization": "Bearer secret", "X-Request-ID": "req-42"}

	w := f.do(http.MethodPost, "/api/chat", `{"messageId":"u1","model":"gemini-2.0-flash"}`, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t,
		"data: {\"choices\":[{\"delta\":{\"content\":\"hi from gemini\"}}]}\n\ndata: [DONE]\n\n",
		w.Body.String())

	w = f.do(http.MethodPost, "/api/chat", `{"messageId":"u1","model":"gpt-4o"}`, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\ndata: [DONE]\n\n", w.Body.String())

	w = f.do(http.MethodPost, "/api/chat", `{"messageId":"ghost","model":"gpt-4o"}`, auth)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Body.String())

	assert.Equal(t, 1, f.geminiHits)
	assert.Equal(t, 1, f.openaiHits)
}

func TestRateLimitOnAPI(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.RPS = 1
		cfg.RateLimit.Burst = 1
	})
	auth := map[string]string{"Authorization": "Bearer secret"}
	codes := []int{}
	for i := 0; i < 3; i++ {
		codes = append(codes, f.do(http.MethodPost, "/api/chat", `{"messageId":"ghost","model":"gpt-4o"}`, auth).Code)
	}
	assert.Equal(t, http.StatusNotFound, codes[0])
	assert.Contains(t, codes[1:], http.StatusTooManyRequests)
}

func TestHealthzAndMetrics(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", gjson.Get(w.Body.String(), "status").String())

	w = f.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "chatrelay_http_requests_total")
}

func TestDebugRoutesAreLocalOnly(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, "/debug/pprof/", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDebugRoutesHiddenOutsideDebug(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) { cfg.Server.Debug = false })
	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBasePath(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.Server.BasePath = "/relay"
		cfg.Security.APIKeys = nil
	})
	w := f.do(http.MethodPost, "/relay/api/chat", `{"messageId":"ghost","model":"gpt-4o"}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(http.MethodGet, "/relay/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDebugSlowQueries(t *testing.T) {
	f := newFixture(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/debug/slow-queries?limit=5", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(100), gjson.Get(rec.Body.String(), "threshold_ms").Int())
	assert.True(t, gjson.Get(rec.Body.String(), "queries").IsArray())
}
