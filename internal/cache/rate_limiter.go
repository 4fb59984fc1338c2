package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "glamspot:ratelimit:"

// hitScript counts one hit and starts the window on the first one.
// Returns {count, remaining ttl in ms}.
var hitScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}`)

// RedisRateLimiter is a fixed-window request counter shared by all instances
type RedisRateLimiter struct {
	client *redis.Client
}

// NewRedisRateLimiter creates a limiter over client
func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client}
}

// Allow records a hit for key and reports whether it is within limit for
// the current window. When denied, retryAfter is the time left in the window.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	res, err := hitScript.Run(ctx, l.client, []string{rateLimitPrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("failed to check rate limit %s: %w", key, err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected rate limit reply for %s: %v", key, res)
	}

	if res[0] > int64(limit) {
		return false, windowRemaining(res[1], window), nil
	}
	return true, 0, nil
}

// windowRemaining converts a PTTL reply, which is negative when the key
// has no expiry, into a retry delay
func windowRemaining(pttl int64, window time.Duration) time.Duration {
	if pttl <= 0 {
		return window
	}
	return time.Duration(pttl) * time.Millisecond
}
