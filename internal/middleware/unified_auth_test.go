package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"chatrelay-go/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func authRouter(validate func(string) bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(UnifiedAuth(validate))
	r.POST("/api/chat", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("api_key"))
	})
	return r
}

func TestUnifiedAuthDisabled(t *testing.T) {
	r := authRouter(nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnifiedAuthSources(t *testing.T) {
	r := authRouter(config.APIKeyValidator(config.SecurityConfig{APIKeys: []string{"k1"}}))

	cases := []struct {
		name  string
		setup func(*http.Request)
	}{
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer k1") }},
		{"x-api-key", func(r *http.Request) { r.Header.Set("x-api-key", "k1") }},
		{"x-goog-api-key", func(r *http.Request) { r.Header.Set("x-goog-api-key", "k1") }},
		{"query", func(r *http.Request) { r.URL.RawQuery = "key=k1" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "k1", w.Body.String())
		})
	}
}

func TestUnifiedAuthRejects(t *testing.T) {
	r := authRouter(config.APIKeyValidator(config.SecurityConfig{APIKeys: []string{"k1"}}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "API key not provided", gjson.Get(w.Body.String(), "error.message").String())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_api_key", gjson.Get(w.Body.String(), "error.code").String())
}
