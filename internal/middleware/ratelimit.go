package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "chatrelay-go/internal/errors"
	hcommon "chatrelay-go/internal/handlers/common"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL       = 15 * time.Minute
	limiterSweepInterval = 2 * time.Minute
)

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// limiterCache holds one limiter per caller key. Idle keys are dropped by a
// sweep that piggybacks on inserts.
type limiterCache struct {
	mu        sync.Mutex
	items     map[string]*limiterEntry
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterCache(ttl time.Duration) *limiterCache {
	if ttl <= 0 {
		ttl = limiterIdleTTL
	}
	return &limiterCache{items: make(map[string]*limiterEntry), ttl: ttl, now: time.Now}
}

func (c *limiterCache) get(key string, newLimiter func() *rate.Limiter) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if e, ok := c.items[key]; ok {
		e.lastSeen = now
		return e.lim
	}
	if now.Sub(c.lastSweep) > limiterSweepInterval {
		c.sweepLocked(now)
	}
	lim := newLimiter()
	c.items[key] = &limiterEntry{lim: lim, lastSeen: now}
	SetRateLimitKeyGauge(len(c.items))
	return lim
}

func (c *limiterCache) sweepLocked(now time.Time) {
	for k, e := range c.items {
		if now.Sub(e.lastSeen) > c.ttl {
			delete(c.items, k)
		}
	}
	c.lastSweep = now
	RecordRateLimitSweep()
}

func (c *limiterCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// RateLimiterAutoKey limits per caller key when one was authenticated or
// presented, otherwise per client IP. A global limiter at five times the
// per-key rate guards the process as a whole.
func RateLimiterAutoKey(rps int, burst int) gin.HandlerFunc {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 20
	}
	cache := newLimiterCache(limiterIdleTTL)
	global := rate.NewLimiter(rate.Limit(rps*5), burst*5)
	return func(c *gin.Context) {
		if !global.Allow() {
			RecordRateLimitRejected("global")
			abortRateLimited(c, "Global rate limit exceeded")
			return
		}
		key, kind := extractAPIKey(c), "api_key"
		if key == "" {
			key, kind = c.ClientIP(), "ip"
		}
		li := cache.get(kind+":"+key, func() *rate.Limiter { return rate.NewLimiter(rate.Limit(rps), burst) })
		if !li.Allow() {
			RecordRateLimitRejected(kind)
			abortRateLimited(c, "Rate limit exceeded")
			return
		}
		c.Next()
	}
}

func abortRateLimited(c *gin.Context, msg string) {
	hcommon.AbortWithAPIError(c, apperrors.New(http.StatusTooManyRequests, "rate_limit_exceeded", "rate_limit_error", msg))
}

func extractAPIKey(c *gin.Context) string {
	if s := strings.TrimSpace(c.GetString("api_key")); s != "" {
		return s
	}
	return providedKey(c)
}
