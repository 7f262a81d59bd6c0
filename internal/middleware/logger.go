package middleware

import (
	"time"

	"chatrelay-go/internal/logging"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request once the handler returns.
// Handlers may set "message_id", "model" and "provider" on the context.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		completed := false
		defer func() { logRequest(c, start, !completed) }()
		c.Next()
		completed = true
	}
}

// logRequest writes the request line. aborted is set when the handler
// unwound with a panic, e.g. a stream cut with http.ErrAbortHandler.
func logRequest(c *gin.Context, start time.Time, aborted bool) {
	status := c.Writer.Status()
	fields := log.Fields{
		"status":     status,
		"latency_ms": logging.DurationMS(time.Since(start)),
		"user_agent": c.Request.UserAgent(),
		"bytes":      c.Writer.Size(),
	}
	for _, k := range []string{"message_id", "model", "provider"} {
		if v := c.GetString(k); v != "" {
			fields[k] = v
		}
	}
	if aborted {
		fields["aborted"] = true
	}
	entry := logging.WithReq(c, fields)
	if len(c.Errors) > 0 {
		entry = entry.WithField("errors", c.Errors.String())
	}
	if status >= 500 || aborted {
		entry.Warn("http_request")
		return
	}
	entry.Info("http_request")
}
