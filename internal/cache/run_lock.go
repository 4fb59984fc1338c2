package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const runLockPrefix = "glamspot:lock:"

// releaseScript deletes the key only if this holder still owns it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisRunLock is a best-effort mutual exclusion lock for batch jobs.
// The TTL bounds how long a crashed holder can block the next run.
type RedisRunLock struct {
	client *redis.Client
	ttl    time.Duration

	mu     sync.Mutex
	tokens map[string]string
}

// NewRedisRunLock creates a run lock with the given TTL
func NewRedisRunLock(client *redis.Client, ttl time.Duration) *RedisRunLock {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisRunLock{
		client: client,
		ttl:    ttl,
		tokens: make(map[string]string),
	}
}

// Acquire takes the lock. Returns false when another run holds it.
func (l *RedisRunLock) Acquire(ctx context.Context, key string) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, runLockPrefix+key, token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire run lock %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}

	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()

	return true, nil
}

// Release drops the lock if this process still holds it
func (l *RedisRunLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()

	if !ok {
		return nil
	}

	if err := releaseScript.Run(ctx, l.client, []string{runLockPrefix + key}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release run lock %s: %w", key, err)
	}

	return nil
}
