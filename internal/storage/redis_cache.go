package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	storagecommon "chatrelay-go/internal/storage/common"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores cache entries under a key prefix in Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to addr and verifies the connection with PING.
func NewRedisCache(ctx context.Context, addr, password string, db int, prefix string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := storagecommon.WithStorageTimeout(ctx, 0)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "chatrelay:"
	}
	return &RedisCache{client: client, prefix: prefix}, nil
}

func (r *RedisCache) Name() string { return "redis" }

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := storagecommon.WithStorageTimeout(ctx, 0)
	defer cancel()
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := storagecommon.WithStorageTimeout(ctx, 0)
	defer cancel()
	return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
