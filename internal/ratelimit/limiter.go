package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "rate:"

// Limiter is a fixed-window counter over a shared Redis instance. The counter
// fails open: if Redis is unreachable every request is admitted.
type Limiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

func New(client *redis.Client, max int, window time.Duration) *Limiter {
	return &Limiter{client: client, max: max, window: window}
}

// Allow increments the per-IP counter and admits while it stays at or under
// the limit. The expiry is set only on the first hit of each window.
func (l *Limiter) Allow(ctx context.Context, clientIP string) bool {
	key := keyPrefix + clientIP

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		log.Warn().Err(err).Str("ip", clientIP).Msg("rate limit store unreachable, admitting")
		return true
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			log.Warn().Err(err).Str("ip", clientIP).Msg("rate limit expire failed")
		}
	}

	allowed := count <= int64(l.max)
	if !allowed {
		log.Warn().Str("ip", clientIP).Int64("count", count).Msg("rate limit exceeded")
	}
	return allowed
}

// Remaining reports how many requests the IP has left in the current window.
func (l *Limiter) Remaining(ctx context.Context, clientIP string) int {
	key := keyPrefix + clientIP

	count, err := l.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return l.max
	}
	if err != nil {
		log.Warn().Err(err).Str("ip", clientIP).Msg("rate limit read failed")
		return l.max
	}

	remaining := l.max - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// ResetSeconds is the TTL of the active window, or -1 when no window is open.
func (l *Limiter) ResetSeconds(ctx context.Context, clientIP string) int64 {
	key := keyPrefix + clientIP

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		return -1
	}
	return int64(ttl.Seconds())
}

// Max returns the configured per-window request ceiling.
func (l *Limiter) Max() int {
	return l.max
}
