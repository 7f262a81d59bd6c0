package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"chatrelay-go/internal/config"
	"chatrelay-go/internal/storage/mongodb"
	"chatrelay-go/internal/storage/postgres"
	"chatrelay-go/internal/storage/sqlite"

	log "github.com/sirupsen/logrus"
)

// Open builds the configured backend, then the optional cache, then
// instrumentation, in that order.
func Open(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	backend, label, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cache, err := openCache(ctx, cfg)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	if cache != nil {
		ttl := time.Duration(cfg.CacheTTLSec) * time.Second
		backend = WithCache(backend, cache, ttl)
		log.WithFields(log.Fields{"cache": cache.Name(), "ttl": ttl.String()}).Info("message cache enabled")
	}

	return WithInstrumentation(backend, label), nil
}

func openBackend(ctx context.Context, cfg config.StorageConfig) (Backend, string, error) {
	switch cfg.Backend {
	case "", "postgres":
		pg, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, "", err
		}
		if err := pg.Initialize(ctx); err != nil {
			_ = pg.Close()
			return nil, "", err
		}
		return pg, "postgres", nil
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, "", fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, "", err
		}
		return s, "sqlite", nil
	case "mongodb":
		m := mongodb.New(cfg.MongoURI, cfg.MongoDatabase)
		if err := m.Initialize(ctx); err != nil {
			return nil, "", err
		}
		return m, "mongodb", nil
	default:
		return nil, "", fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

func openCache(ctx context.Context, cfg config.StorageConfig) (Cache, error) {
	switch cfg.Cache {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryCache()
	case "redis":
		return NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unsupported message cache %q", cfg.Cache)
	}
}
