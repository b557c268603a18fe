// Package ratelimit throttles the public endpoints with a fixed window
// counter kept in Redis, or in process memory when Redis is not configured.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	RetryAfter time.Duration
	ResetAt    time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func newResult(hits, max int64, resetAt time.Time, ttl time.Duration) Result {
	res := Result{
		Allowed:   hits <= max,
		Limit:     max,
		Remaining: max - hits,
		ResetAt:   resetAt,
	}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = ttl
	}
	return res
}

func windowKey(prefix, key string, start time.Time) string {
	return fmt.Sprintf("%s%s:%d", prefix, strings.ReplaceAll(key, " ", "_"), start.Unix())
}

// RedisLimiter is a fixed window: INCR on a per-window key, EXPIRE on the
// first hit.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		max:    int64(max),
		window: window,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	start := l.now().UTC().Truncate(l.window)
	redisKey := windowKey(l.prefix, key, start)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	remaining := ttl.Val()
	if incr.Val() == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limit expire %s: %w", key, err)
		}
		remaining = l.window
	}
	if remaining < 0 {
		remaining = l.window
	}
	return newResult(incr.Val(), l.max, start.Add(l.window), remaining), nil
}

// MemoryLimiter keeps counters in a go-cache map. Counts are per process.
type MemoryLimiter struct {
	cache  *gocache.Cache
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		cache:  gocache.New(window, window),
		max:    int64(max),
		window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	start := now.Truncate(l.window)
	k := windowKey("", key, start)

	var hits int64 = 1
	if err := l.cache.Add(k, hits, l.window); err != nil {
		n, err := l.cache.IncrementInt64(k, 1)
		if err != nil {
			// expired between Add and Increment
			l.cache.Set(k, hits, l.window)
			n = hits
		}
		hits = n
	}
	resetAt := start.Add(l.window)
	return newResult(hits, l.max, resetAt, resetAt.Sub(now)), nil
}
