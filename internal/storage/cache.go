package storage

import (
	"context"
	"time"

	"chatrelay-go/internal/conversation"
	"chatrelay-go/internal/monitoring"
	storagecommon "chatrelay-go/internal/storage/common"

	log "github.com/sirupsen/logrus"
)

// Cache is a byte-oriented key/value cache with per-entry TTL.
type Cache interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// WithCache puts a read-through cache in front of GetMessage. History
// lookups and writes go straight to the inner backend, and not-found results
// are never cached. Cache failures degrade to a backend read.
func WithCache(inner Backend, cache Cache, ttl time.Duration) Backend {
	if inner == nil || cache == nil {
		return inner
	}
	return &cachedBackend{Backend: inner, cache: cache, ttl: ttl}
}

type cachedBackend struct {
	Backend
	cache Cache
	ttl   time.Duration
}

func messageKey(id string) string {
	return "msg:" + id
}

func (c *cachedBackend) GetMessage(ctx context.Context, id string) (*conversation.Message, error) {
	key := messageKey(id)
	name := c.cache.Name()

	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		monitoring.CacheLookupsTotal.WithLabelValues(name, "error").Inc()
		log.WithError(err).WithField("cache", name).Warn("message cache read failed")
	} else if ok {
		msg, decErr := storagecommon.DecodeMessage(raw)
		if decErr == nil {
			monitoring.CacheLookupsTotal.WithLabelValues(name, "hit").Inc()
			return &msg, nil
		}
		monitoring.CacheLookupsTotal.WithLabelValues(name, "error").Inc()
		log.WithError(decErr).WithField("cache", name).Warn("discarding undecodable cache entry")
	} else {
		monitoring.CacheLookupsTotal.WithLabelValues(name, "miss").Inc()
	}

	msg, err := c.Backend.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, encErr := storagecommon.EncodeMessage(*msg); encErr == nil {
		if setErr := c.cache.Set(ctx, key, raw, c.ttl); setErr != nil {
			log.WithError(setErr).WithField("cache", name).Warn("message cache write failed")
		}
	}
	return msg, nil
}

func (c *cachedBackend) Close() error {
	cacheErr := c.cache.Close()
	if err := c.Backend.Close(); err != nil {
		return err
	}
	return cacheErr
}

func (c *cachedBackend) PoolStats() (int64, int64, int64) {
	if p, ok := c.Backend.(PoolStatsProvider); ok {
		return p.PoolStats()
	}
	return 0, 0, 0
}
