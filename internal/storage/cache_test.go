package storage

import (
	"context"
	"testing"
	"time"

	"chatrelay-go/internal/conversation"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cachedMsg = conversation.Message{ID: "m1", ChatID: "c1", Position: 3, Role: conversation.RoleAssistant, Content: "cached"}

func newMiniredisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(mr.Close)
	cache, err := NewRedisCache(context.Background(), mr.Addr(), "", 0, "test:")
	require.NoError(t, err)
	return cache, mr
}

func TestRedisCacheReadThrough(t *testing.T) {
	ctx := context.Background()
	cache, mr := newMiniredisCache(t)
	inner := newCountingBackend(cachedMsg)
	store := WithCache(inner, cache, time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	for i := 0; i < 3; i++ {
		got, err := store.GetMessage(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, cachedMsg, *got)
	}
	assert.Equal(t, 1, inner.getCalls())

	require.True(t, mr.Exists("test:msg:m1"))
	assert.Equal(t, time.Minute, mr.TTL("test:msg:m1"))

	mr.FastForward(2 * time.Minute)
	_, err := store.GetMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.getCalls())
}

func TestCacheNeverStoresNotFound(t *testing.T) {
	ctx := context.Background()
	cache, mr := newMiniredisCache(t)
	inner := newCountingBackend()
	store := WithCache(inner, cache, time.Minute)

	_, err := store.GetMessage(ctx, "ghost")
	require.True(t, IsNotFound(err))
	assert.False(t, mr.Exists("test:msg:ghost"))

	// a later insert is visible immediately
	require.NoError(t, store.InsertMessage(ctx, conversation.Message{ID: "ghost", ChatID: "c", Role: conversation.RoleUser, Content: "boo"}))
	got, err := store.GetMessage(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, "boo", got.Content)
}

func TestCacheFallsBackWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	cache, mr := newMiniredisCache(t)
	inner := newCountingBackend(cachedMsg)
	store := WithCache(inner, cache, time.Minute)

	mr.Close()
	got, err := store.GetMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "cached", got.Content)
}

func TestCacheDiscardsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	cache, mr := newMiniredisCache(t)
	require.NoError(t, mr.Set("test:msg:m1", `{"id":"m1","role":"robot","content":"x"}`))
	inner := newCountingBackend(cachedMsg)
	store := WithCache(inner, cache, time.Minute)

	got, err := store.GetMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, conversation.RoleAssistant, got.Role)
	assert.Equal(t, 1, inner.getCalls())
}

func TestHistoryBypassesCache(t *testing.T) {
	ctx := context.Background()
	mem, err := NewMemoryCache()
	require.NoError(t, err)
	inner := newCountingBackend(cachedMsg)
	store := WithCache(inner, mem, time.Minute)

	_, err = store.ListHistory(ctx, "c1", 10)
	require.NoError(t, err)
	_, err = store.ListHistory(ctx, "c1", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.lists)
}

func TestMemoryCacheReadThrough(t *testing.T) {
	ctx := context.Background()
	mem, err := NewMemoryCache()
	require.NoError(t, err)
	inner := newCountingBackend(cachedMsg)
	store := WithCache(inner, mem, time.Minute)

	for i := 0; i < 2; i++ {
		got, err := store.GetMessage(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, cachedMsg, *got)
	}
	assert.Equal(t, 1, inner.getCalls())

	require.NoError(t, store.Close())
	assert.True(t, inner.closed)
}

func TestWithCacheNilPassthrough(t *testing.T) {
	inner := newCountingBackend()
	assert.Same(t, Backend(inner), WithCache(inner, nil, time.Minute))
}
