package server

import (
	"context"
	"net"
	"net/http"
	pp "net/http/pprof"
	"strconv"
	"strings"
	"time"

	mw "chatrelay-go/internal/middleware"
	"chatrelay-go/internal/monitoring"
	"chatrelay-go/internal/storage"
	"chatrelay-go/internal/version"

	"github.com/gin-gonic/gin"
)

func registerOpsRoutes(root *gin.RouterGroup, st storage.MessageStore) {
	root.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if st == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "storage": "not configured"})
			return
		}
		if err := st.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "storage": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Version})
	})
	root.GET("/metrics", mw.MetricsHandler())
}

// slowQueries lists recent storage operations over the slow threshold, newest last.
func slowQueries(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	sq := monitoring.SlowQueries()
	c.JSON(http.StatusOK, gin.H{
		"threshold_ms": sq.Threshold().Milliseconds(),
		"queries":      sq.Recent(n),
	})
}

func registerPprof(r *gin.RouterGroup) {
	g := r.Group("/pprof")
	g.GET("/", gin.WrapF(pp.Index))
	g.GET("/cmdline", gin.WrapF(pp.Cmdline))
	g.GET("/profile", gin.WrapF(pp.Profile))
	g.GET("/symbol", gin.WrapF(pp.Symbol))
	g.POST("/symbol", gin.WrapF(pp.Symbol))
	g.GET("/trace", gin.WrapF(pp.Trace))
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		g.GET("/"+name, gin.WrapH(pp.Handler(name)))
	}
}

// localOnlyGuard rejects non-loopback callers.
func localOnlyGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := net.ParseIP(strings.TrimSpace(c.ClientIP()))
		if ip == nil || !ip.IsLoopback() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "debug endpoints are local only"})
			return
		}
		c.Next()
	}
}
