package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

func limitedRouter(rps, burst int) *gin.Engine {
	r := gin.New()
	r.Use(RateLimiterAutoKey(rps, burst))
	r.POST("/api/chat", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func chatRequest(header, value, remote string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	if remote != "" {
		req.RemoteAddr = remote
	}
	return req
}

func TestRateLimiterPerKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := limitedRouter(1, 1)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, chatRequest("x-api-key", "same-key", ""))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, chatRequest("x-api-key", "same-key", ""))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "rate_limit_error", gjson.Get(second.Body.String(), "error.type").String())
	assert.Equal(t, "rate_limit_exceeded", gjson.Get(second.Body.String(), "error.code").String())

	// a different key has its own budget
	other := httptest.NewRecorder()
	r.ServeHTTP(other, chatRequest("Authorization", "Bearer other-key", ""))
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestRateLimiterFallsBackToClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := limitedRouter(1, 1)

	codes := make([]int, 0, 3)
	for _, remote := range []string{"10.0.0.1:1111", "10.0.0.1:2222", "10.0.0.2:1111"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, chatRequest("", "", remote))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusOK}, codes)
}

func TestRateLimiterGlobalCeiling(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := limitedRouter(1, 1)

	// global burst is 5x the per-key burst
	ok := 0
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, chatRequest("Authorization", "Bearer key-"+strconv.Itoa(i), ""))
		if w.Code == http.StatusOK {
			ok++
		}
	}
	assert.Equal(t, 5, ok)
}

func TestRateLimiterDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	limitedRouter(0, 0).ServeHTTP(w, chatRequest("", "", ""))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExtractAPIKeyPrefersAuthenticatedKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = chatRequest("x-api-key", "presented", "")
	assert.Equal(t, "presented", extractAPIKey(c))

	c.Set("api_key", "validated")
	assert.Equal(t, "validated", extractAPIKey(c))
}

func TestLimiterCacheReusesAndSweeps(t *testing.T) {
	cache := newLimiterCache(time.Minute)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }

	a := cache.get("a", func() *rate.Limiter { return rate.NewLimiter(1, 1) })
	again := cache.get("a", func() *rate.Limiter { return rate.NewLimiter(2, 2) })
	require.Same(t, a, again)

	// idle past the TTL and past the sweep interval: the next insert drops "a"
	clock = clock.Add(limiterSweepInterval + time.Second)
	cache.get("b", func() *rate.Limiter { return rate.NewLimiter(1, 1) })
	assert.Equal(t, 1, cache.len())

	fresh := cache.get("a", func() *rate.Limiter { return rate.NewLimiter(1, 1) })
	assert.NotSame(t, a, fresh)
}
