// Package ratelimiter provides a Redis-backed fixed-window limiter.
package ratelimiter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

// RedisLuaLimiter counts requests per identifier and endpoint in Redis. The
// window opens on the first request and its key expires when it closes.
type RedisLuaLimiter struct {
	redis  *redis.Client
	script *redis.Script
	prefix string
	now    func() time.Time
}

// NewRedisLuaLimiter returns nil when rdb is nil.
func NewRedisLuaLimiter(rdb *redis.Client) *RedisLuaLimiter {
	if rdb == nil {
		return nil
	}
	return &RedisLuaLimiter{
		redis:  rdb,
		script: redis.NewScript(luaFixedWindowScript),
		prefix: "rate:",
		now:    time.Now,
	}
}

// Rejected requests do not consume the window.
const luaFixedWindowScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])

local count = tonumber(redis.call("GET", key) or "0")
local ttl = redis.call("PTTL", key)

if count >= limit then
  if ttl < 0 then
    ttl = window_ms
  end
  return { 0, count, ttl }
end

count = redis.call("INCR", key)
if count == 1 or ttl < 0 then
  redis.call("PEXPIRE", key, window_ms)
  ttl = window_ms
end

return { 1, count, ttl }
`

// Check implements domain.RateLimiter.
func (l *RedisLuaLimiter) Check(ctx context.Context, identifier, endpoint string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	now := l.now()
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: false, ResetAt: now.Add(window)}, nil
	}

	key := l.prefix + endpoint + ":" + identifier
	res, err := l.script.Run(ctx, l.redis, []string{key}, limit, window.Milliseconds()).Result()
	if err != nil {
		slog.Error("redis rate limiter script error", slog.String("key", key), slog.Any("error", err))
		return domain.RateLimitDecision{}, fmt.Errorf("op=ratelimiter.Check: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) < 3 {
		slog.Error("redis rate limiter unexpected script result", slog.String("key", key), slog.Any("result", res))
		return domain.RateLimitDecision{}, fmt.Errorf("op=ratelimiter.Check: unexpected result %v", res)
	}

	allowed := toInt64(vals[0]) == 1
	count := int(toInt64(vals[1]))
	resetAt := now.Add(time.Duration(toInt64(vals[2])) * time.Millisecond)

	if !allowed {
		return domain.RateLimitDecision{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}
	return domain.RateLimitDecision{Allowed: true, Remaining: max(limit-count, 0), ResetAt: resetAt}, nil
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}
