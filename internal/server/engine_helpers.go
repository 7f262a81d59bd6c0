package server

import (
	"chatrelay-go/internal/config"
	mw "chatrelay-go/internal/middleware"

	"github.com/gin-gonic/gin"
)

// applyStandardEngineSettings installs the middleware chain shared by every route.
func applyStandardEngineSettings(engine *gin.Engine, cfg *config.Config) {
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	_ = engine.SetTrustedProxies([]string{})

	engine.Use(mw.Recovery(), mw.RequestID(), mw.Metrics(), mw.RequestLogger())
	if cfg.Security.CORSEnabled {
		engine.Use(mw.CORS())
	}
}
