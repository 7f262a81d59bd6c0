package server

import (
	"chatrelay-go/internal/config"
	"chatrelay-go/internal/conversation"
	"chatrelay-go/internal/handlers/chat"
	"chatrelay-go/internal/logging"
	"chatrelay-go/internal/storage"
	"chatrelay-go/internal/upstream"

	"github.com/gin-gonic/gin"
)

// Dependencies encapsulates runtime services required to build the HTTP engine.
type Dependencies struct {
	Store      storage.MessageStore
	Dispatcher *upstream.Dispatcher
	// Optional; defaults to the tiktoken estimator.
	TokenCounter conversation.TokenCounter
	// Optional; /debug/logs is only mounted when set and debug is on.
	LogTail *logging.LogTail
}

// BuildEngine 构建对外的 Gin 引擎。
func BuildEngine(cfg *config.Config, deps Dependencies) *gin.Engine {
	engine := gin.New()
	applyStandardEngineSettings(engine, cfg)

	root := engine.Group(cfg.Server.BasePath)

	var opts []chat.Option
	if deps.TokenCounter != nil {
		opts = append(opts, chat.WithTokenCounter(deps.TokenCounter))
	}
	RegisterChatRoutes(root, cfg, chat.New(deps.Store, deps.Dispatcher, opts...))
	registerOpsRoutes(root, deps.Store)

	if cfg.Server.Debug {
		debug := engine.Group("/debug", localOnlyGuard())
		registerPprof(debug)
		debug.GET("/slow-queries", slowQueries)
		if deps.LogTail != nil {
			debug.GET("/logs", gin.WrapF(deps.LogTail.ServeWS))
		}
	}
	return engine
}
