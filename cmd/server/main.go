package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"chatrelay-go/internal/config"
	"chatrelay-go/internal/constants"
	"chatrelay-go/internal/logging"
	mw "chatrelay-go/internal/middleware"
	tracing "chatrelay-go/internal/monitoring/tracing"
	srv "chatrelay-go/internal/server"
	"chatrelay-go/internal/version"

	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	envFile := flag.String("env", config.DefaultEnvFile, "Path to dotenv file (empty to skip)")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	cfg, err := config.LoadWithEnvFile(*configPath, *envFile)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if *debug {
		cfg.Server.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if err := logging.Setup(cfg); err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}

	traceShutdown, err := tracing.Init(context.Background(), cfg.Tracing)
	if err != nil {
		log.WithError(err).Warn("failed to initialize tracing")
	}
	if traceShutdown != nil {
		defer func() {
			if err := traceShutdown(context.Background()); err != nil {
				log.WithError(err).Warn("failed to shutdown tracing")
			}
		}()
	}

	log.WithField("version", version.Version).Infof("starting chatrelay (config: %s)", *configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, closeDeps, err := buildDependencies(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize dependencies")
	}
	defer closeDeps()

	httpSrv := newHTTPServer(cfg, srv.BuildEngine(cfg, deps))

	watcher := config.NewWatcher(*configPath, cfg)
	watcher.OnChange(func(_, next *config.Config) {
		// 只热更新日志设置；路由和存储需要重启
		if err := logging.Setup(next); err != nil {
			log.WithError(err).Warn("reapply logging after config change")
		}
	})
	watcher.Start()
	defer watcher.Close()

	mw.SafeGo("http-server", func() {
		log.Infof("chat API listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped")
			cancel()
		}
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown incomplete")
	}
	log.Info("server stopped")
}
