package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter backed by Redis INCR/EXPIRE, so the
// window survives restarts and is shared across instances.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	window time.Duration
	max    int
}

// NewRedisLimiter builds a limiter allowing max requests per window.
func NewRedisLimiter(client *redis.Client, prefix string, window time.Duration, max int) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, window: window, max: max}
}

// Allow consumes one slot for key within the current window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := l.prefix + ":" + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return Result{}, err
		}
	}

	ttl, err := l.client.TTL(ctx, redisKey).Result()
	if err != nil {
		return Result{}, err
	}
	if ttl < 0 {
		ttl = l.window
	}
	resetAt := time.Now().Add(ttl)

	if int(count) > l.max {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Result{Allowed: true, Remaining: l.max - int(count), ResetAt: resetAt}, nil
}
