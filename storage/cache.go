package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// CachedBackend wraps a Backend with a redis read-through cache. Writes go to
// the base backend first and then evict the cached copy.
type CachedBackend struct {
	base   Backend
	redis  *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewCachedBackend creates a caching wrapper using the provided redis client and TTL.
func NewCachedBackend(base Backend, client *redis.Client, ttl time.Duration, logger *log.Logger) *CachedBackend {
	if base == nil {
		panic("storage.NewCachedBackend: base backend is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &CachedBackend{base: base, redis: client, ttl: ttl, logger: logger}
}

func (c *CachedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if data, ok := c.load(ctx, key); ok {
		return data, nil
	}
	data, err := c.base.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, data)
	return data, nil
}

func (c *CachedBackend) Set(ctx context.Context, key string, data []byte) error {
	if err := c.base.Set(ctx, key, data); err != nil {
		return err
	}
	c.evict(ctx, key)
	return nil
}

func (c *CachedBackend) Del(ctx context.Context, keys ...string) error {
	if err := c.base.Del(ctx, keys...); err != nil {
		return err
	}
	c.evict(ctx, keys...)
	return nil
}

func (c *CachedBackend) load(ctx context.Context, key string) ([]byte, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// On redis errors fall back to the base backend without failing.
			c.logger.WithError(err).WithField("key", key).Warn("document cache read failed")
			_ = c.redis.Del(ctx, cacheKey(key)).Err()
		}
		return nil, false
	}
	return data, true
}

func (c *CachedBackend) store(ctx context.Context, key string, data []byte) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	if err := c.redis.Set(ctx, cacheKey(key), data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("document cache write failed")
	}
}

func (c *CachedBackend) evict(ctx context.Context, keys ...string) {
	if c.redis == nil || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = cacheKey(k)
	}
	if err := c.redis.Del(ctx, full...).Err(); err != nil {
		c.logger.WithError(err).WithField("keys", keys).Warn("document cache eviction failed")
	}
}

func cacheKey(key string) string {
	return "cache:" + key
}
