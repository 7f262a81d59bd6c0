package server

import (
	"chatrelay-go/internal/config"
	"chatrelay-go/internal/handlers/chat"
	mw "chatrelay-go/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterChatRoutes mounts /api with auth and optional rate limiting.
func RegisterChatRoutes(root *gin.RouterGroup, cfg *config.Config, h *chat.Handler) {
	api := root.Group("/api")
	if cfg.Security.AuthEnabled() {
		api.Use(mw.UnifiedAuth(config.APIKeyValidator(cfg.Security)))
	}
	// 限流放在鉴权之后，以便按 API key 计数
	if cfg.RateLimit.Enabled {
		api.Use(mw.RateLimiterAutoKey(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
	api.POST("/chat", h.Chat)
}
