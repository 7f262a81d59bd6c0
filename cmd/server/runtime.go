package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"chatrelay-go/internal/config"
	"chatrelay-go/internal/constants"
	"chatrelay-go/internal/conversation"
	"chatrelay-go/internal/logging"
	srv "chatrelay-go/internal/server"
	store "chatrelay-go/internal/storage"
	"chatrelay-go/internal/upstream"
	"chatrelay-go/internal/upstream/gemini"
	"chatrelay-go/internal/upstream/openai"

	log "github.com/sirupsen/logrus"
)

// buildDependencies opens the message store and the two providers. The
// returned func closes whatever was opened.
func buildDependencies(ctx context.Context, cfg *config.Config) (srv.Dependencies, func(), error) {
	backend, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return srv.Dependencies{}, func() {}, fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}
	closer := func() {
		if err := backend.Close(); err != nil {
			log.WithError(err).Warn("close message store")
		}
	}

	deps := srv.Dependencies{
		Store:        backend,
		Dispatcher:   buildDispatcher(cfg),
		TokenCounter: warmTokenCounter(ctx, tokenizerWarmTimeout),
	}
	if cfg.Server.Debug {
		deps.LogTail = logging.InstallLogTail()
	}
	return deps, closer, nil
}

var tokenizerWarmTimeout = constants.TokenizerWarmTimeout

// warmTokenCounter gives the tiktoken download a bounded head start. A counter
// that is not ready keeps loading in the background and estimates heuristically.
func warmTokenCounter(ctx context.Context, timeout time.Duration) conversation.TokenCounter {
	counter := conversation.NewTiktokenCounter()
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if !counter.Warm(wctx) {
		log.WithField("timeout", timeout).Warn("tiktoken encoding not ready; prompt token estimates use the heuristic for now")
	}
	return counter
}

func buildDispatcher(cfg *config.Config) *upstream.Dispatcher {
	cli := upstream.NewHTTPClient(cfg.Transport)
	if cfg.Gemini.APIKey == "" && cfg.Gemini.BearerToken == "" {
		log.Warn("gemini credentials are not configured; gemini models will fail upstream")
	}
	if cfg.OpenAI.APIKey == "" {
		log.Warn("openai api key is not configured; openai models will fail upstream")
	}
	return upstream.NewDispatcher(cfg.Gemini.Marker, gemini.New(cfg.Gemini, cli), openai.New(cfg.OpenAI, cli))
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
	}
}
