package cached

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache is a best-effort key/value layer in front of the store. Misses and
// failures are never surfaced to users; callers fall through to the store.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Invalidate(ctx context.Context, key string)
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is the in-process fallback: a TTL map with no eviction beyond
// expiry-on-read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if time.Now().After(e.expiresAt) {
		c.Invalidate(ctx, key)
		return "", false
	}
	return e.value, true
}

func (c *MemoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

func (c *MemoryCache) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// RedisCache fronts the in-process map with a redis instance. Runtime redis
// failures fall back to the map for that call and are logged at debug level.
type RedisCache struct {
	client   *redis.Client
	fallback *MemoryCache
	logger   *zap.Logger
}

// NewCache connects to redis at addr and returns a two-tier cache. When addr
// is empty or redis is unreachable at connect time, it returns the in-process
// cache alone; the external tier is not retried for the process lifetime.
func NewCache(addr, password string, logger *zap.Logger) Cache {
	fallback := NewMemoryCache()
	if addr == "" {
		return fallback
	}

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DialTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, using in-process cache only",
			zap.String("addr", addr),
			zap.Error(err),
		)
		_ = client.Close()
		return fallback
	}

	logger.Info("Redis cache connected", zap.String("addr", addr))
	return &RedisCache{client: client, fallback: fallback, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return val, true
	}
	if err != redis.Nil {
		c.logger.Debug("Redis get failed", zap.String("key", key), zap.Error(err))
	}
	return c.fallback.Get(ctx, key)
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Debug("Redis set failed", zap.String("key", key), zap.Error(err))
	}
	c.fallback.Set(ctx, key, value, ttl)
}

func (c *RedisCache) Invalidate(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Debug("Redis del failed", zap.String("key", key), zap.Error(err))
	}
	c.fallback.Invalidate(ctx, key)
}
