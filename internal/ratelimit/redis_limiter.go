package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKey returns the Redis key for a client's counter.
func redisKey(key string) string {
	return "ratelimit:" + key
}

// RedisLimiter counts requests per key in Redis using a fixed window.
// It fails open: if Redis is unreachable the request is allowed, since
// abuse control should never take the chat down with it.
type RedisLimiter struct {
	client redis.Cmdable
	max    int64
	window time.Duration
}

// NewRedisLimiter creates a RedisLimiter allowing max requests per window.
func NewRedisLimiter(client redis.Cmdable, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		max:    int64(max),
		window: window,
	}
}

// Allow increments the key's window counter and reports whether it is
// still within the limit.
func (l *RedisLimiter) Allow(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	k := redisKey(key)
	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("redis: rate limit check failed: %v", err)
		return true
	}

	return incr.Val() <= l.max
}
