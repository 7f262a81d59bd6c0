package storage

import (
	"context"
	"fmt"
	"time"

	"chatrelay-go/internal/constants"

	"github.com/dgraph-io/ristretto/v2"
)

// MemoryCache is an in-process cache backed by ristretto. Entry cost is the
// encoded size in bytes.
type MemoryCache struct {
	cache *ristretto.Cache[string, []byte]
}

func NewMemoryCache() (*MemoryCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: constants.MemoryCacheNumCounters,
		MaxCost:     constants.MemoryCacheMaxCost,
		BufferItems: constants.MemoryCacheBufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("create memory cache: %w", err)
	}
	return &MemoryCache{cache: cache}, nil
}

func (m *MemoryCache) Name() string { return "memory" }

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, ok := m.cache.Get(key)
	return val, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.cache.SetWithTTL(key, value, int64(len(value)), ttl)
	// ristretto applies sets asynchronously
	m.cache.Wait()
	return nil
}

func (m *MemoryCache) Close() error {
	m.cache.Close()
	return nil
}
