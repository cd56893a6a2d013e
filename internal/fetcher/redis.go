package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/iqm-atlas/internal/metrics"
)

// RedisClient is the subset of *redis.Client used by RedisCache.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisCache wraps a Fetcher and keeps downloaded remote artifacts in Redis
// so that replicas share one download. Local files are passed through.
// A Redis failure degrades to a direct download.
type RedisCache struct {
	next   Fetcher
	client RedisClient
	ttl    time.Duration
	prefix string
}

// NewRedisCache creates a RedisCache in front of next.
func NewRedisCache(next Fetcher, client RedisClient, ttl time.Duration) *RedisCache {
	return &RedisCache{next: next, client: client, ttl: ttl, prefix: "iqm-atlas:source:"}
}

// NewRedisClient parses a redis:// URL and connects lazily.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, eris.Wrap(err, "redis: parse url")
	}
	return redis.NewClient(opts), nil
}

func (c *RedisCache) key(id string) string {
	return c.prefix + id
}

// Download implements Fetcher.
func (c *RedisCache) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	if !IsRemote(id) {
		return c.next.Download(ctx, id)
	}

	log := zap.L().With(zap.String("component", "fetcher.redis"), zap.String("source", id))

	cached, err := c.client.Get(ctx, c.key(id)).Bytes()
	switch {
	case err == nil:
		metrics.SourceCacheLookups.WithLabelValues("hit").Inc()
		log.Debug("source served from redis", zap.Int("bytes", len(cached)))
		return io.NopCloser(bytes.NewReader(cached)), nil
	case errors.Is(err, redis.Nil):
		metrics.SourceCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.SourceCacheLookups.WithLabelValues("error").Inc()
		log.Warn("redis get failed, downloading directly", zap.Error(err))
	}

	data, err := ReadAll(ctx, c.next, id)
	if err != nil {
		return nil, err
	}

	if err := c.client.Set(ctx, c.key(id), data, c.ttl).Err(); err != nil {
		log.Warn("redis set failed", zap.Error(err))
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Invalidate drops the cached bodies of the given sources.
func (c *RedisCache) Invalidate(ctx context.Context, ids ...string) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if IsRemote(id) {
			keys = append(keys, c.key(id))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return eris.Wrap(err, "redis: invalidate sources")
	}
	return nil
}
