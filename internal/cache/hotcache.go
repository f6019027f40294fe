package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Shivam-2310/ShortAI/internal/metrics"
)

const keyPrefix = "short:"

// HotCache maps system-minted short keys to original URLs with a TTL. It is
// never keyed by alias, and password-protected mappings are never stored.
// Every operation fails soft: a store error is a miss or a no-op.
type HotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *HotCache {
	return &HotCache{client: client, ttl: ttl}
}

func (c *HotCache) Get(ctx context.Context, shortKey string) (string, bool) {
	val, err := c.client.Get(ctx, keyPrefix+shortKey).Result()
	if err == redis.Nil {
		metrics.CacheMisses.Inc()
		return "", false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", shortKey).Msg("hot cache get failed, treating as miss")
		metrics.CacheMisses.Inc()
		return "", false
	}
	metrics.CacheHits.Inc()
	return val, true
}

func (c *HotCache) Put(ctx context.Context, shortKey, originalURL string) {
	if err := c.client.Set(ctx, keyPrefix+shortKey, originalURL, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", shortKey).Msg("hot cache put failed")
	}
}

func (c *HotCache) Invalidate(ctx context.Context, shortKey string) {
	if err := c.client.Del(ctx, keyPrefix+shortKey).Err(); err != nil {
		log.Warn().Err(err).Str("key", shortKey).Msg("hot cache invalidate failed")
	}
}
