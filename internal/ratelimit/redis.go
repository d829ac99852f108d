package ratelimit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisLimiter shares fixed windows across processes. Each window is a
// counter key that expires with the window.
type RedisLimiter struct {
	client *redis.Client
	rule   Rule
	prefix string
	clock  clockwork.Clock
}

func NewRedisLimiter(client *redis.Client, name string, rule Rule, clock clockwork.Clock) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		rule:   rule,
		prefix: "ratelimit:" + name + ":",
		clock:  clock,
	}
}

// Allow counts a hit for key. When Redis is unreachable the request is
// allowed so an outage of the limiter store doesn't take the site down.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.clock.Now()
	redisKey := l.prefix + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		slog.WarnContext(ctx, "Rate limiter store unavailable, allowing request", "key", redisKey, "error", err)
		return Result{Allowed: true, Limit: l.rule.Max, Remaining: l.rule.Max, ResetAt: now.Add(l.rule.Window)}, nil
	}

	resetAt := now.Add(l.rule.Window)
	ttl, err := l.client.PTTL(ctx, redisKey).Result()
	switch {
	case err == nil && ttl > 0:
		resetAt = now.Add(ttl)
	case count == 1 || (err == nil && ttl < 0):
		// First hit of the window, or a counter left without expiry.
		if err := l.client.PExpire(ctx, redisKey, l.rule.Window).Err(); err != nil {
			slog.WarnContext(ctx, "Failed to set rate limit window", "key", redisKey, "error", err)
		}
	}

	remaining := l.rule.Max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   int(count) <= l.rule.Max,
		Limit:     l.rule.Max,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
