package cached

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	_, ok := cache.Get(ctx, "missing")
	assert.False(t, ok)

	cache.Set(ctx, "k", "v", time.Minute)
	val, ok := cache.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	cache.Invalidate(ctx, "k")
	_, ok = cache.Get(ctx, "k")
	assert.False(t, ok)

	// Expired entries behave like misses
	cache.Set(ctx, "short", "v", -time.Second)
	_, ok = cache.Get(ctx, "short")
	assert.False(t, ok)
}

func TestNewCache_EmptyAddrUsesMemory(t *testing.T) {
	cache := NewCache("", "", zap.NewNop())
	_, ok := cache.(*MemoryCache)
	assert.True(t, ok, "expected in-process cache when no addr configured")
}

func TestNewCache_UnreachableRedisDegradesToMemory(t *testing.T) {
	cache := NewCache("127.0.0.1:1", "", zap.NewNop())
	_, ok := cache.(*MemoryCache)
	assert.True(t, ok, "expected in-process fallback when redis is unreachable")

	// The degraded cache still serves reads and writes
	ctx := context.Background()
	cache.Set(ctx, "k", "v", time.Minute)
	val, found := cache.Get(ctx, "k")
	assert.True(t, found)
	assert.Equal(t, "v", val)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewCache(mr.Addr(), "", zap.NewNop())
	require.IsType(t, &RedisCache{}, cache)

	ctx := context.Background()

	cache.Set(ctx, "k", "v", time.Minute)
	val, ok := cache.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	// Value landed in redis, not only the in-process tier
	stored, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", stored)

	cache.Invalidate(ctx, "k")
	_, ok = cache.Get(ctx, "k")
	assert.False(t, ok)
	assert.False(t, mr.Exists("k"))

	// Redis honours the TTL
	cache.Set(ctx, "ttl", "v", time.Minute)
	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("ttl"))
}
