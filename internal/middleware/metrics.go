package middleware

import (
	"time"

	"chatrelay-go/internal/monitoring"

	"github.com/gin-gonic/gin"
)

func statusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	if code >= 600 {
		return "unknown"
	}
	return monitoring.StatusClass(code)
}

// Metrics is an HTTP middleware to track per-route counters and latency histogram
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		monitoring.HTTPInFlight.Inc()
		// deferred so streams cut with http.ErrAbortHandler are still counted
		defer func() {
			monitoring.HTTPInFlight.Dec()
			durSec := time.Since(start).Seconds()
			path := c.FullPath()
			if path == "" {
				// unmatched routes share one label
				path = "unmatched"
			}
			sc := statusClass(c.Writer.Status())

			monitoring.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, sc).Inc()
			monitoring.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, sc).Observe(durSec)
		}()
		c.Next()
	}
}

// SetRateLimitKeyGauge sets the current per-key limiter count.
func SetRateLimitKeyGauge(n int) {
	monitoring.RateLimitKeysGauge.Set(float64(n))
}

// RecordRateLimitSweep increments the sweep counter for TTL cache.
func RecordRateLimitSweep() {
	monitoring.RateLimitSweepsTotal.Inc()
}

// RecordRateLimitRejected counts a request turned away by the limiter.
func RecordRateLimitRejected(keyKind string) {
	monitoring.RateLimitRejectedTotal.WithLabelValues(keyKind).Inc()
}
