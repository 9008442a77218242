package replayguard

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrGuardUnavailable indicates the backing store rejected the operation.
var ErrGuardUnavailable = errors.New("replay guard backend unavailable")

const redisKeyPrefix = "replayguard:"

// RedisGuard implements Guard on Redis so multiple processes share one replay
// window. Expiry is delegated to Redis key TTLs, which makes a background
// sweep unnecessary.
type RedisGuard struct {
	client      redis.UniversalClient
	reuseWindow time.Duration
}

// RedisGuardOption configures a RedisGuard.
type RedisGuardOption func(*RedisGuard)

// WithRedisReuseWindow sets how long an accepted code is rejected for reuse.
func WithRedisReuseWindow(window time.Duration) RedisGuardOption {
	return func(g *RedisGuard) {
		if window > 0 {
			g.reuseWindow = window
		}
	}
}

// NewRedisGuard creates a guard backed by the given Redis client.
func NewRedisGuard(client redis.UniversalClient, opts ...RedisGuardOption) *RedisGuard {
	g := &RedisGuard{
		client:      client,
		reuseWindow: DefaultReuseWindow,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// RecordIfFresh implements Guard. SET NX with a TTL is atomic: the first
// caller within the window wins, later callers see the existing key and are
// rejected without touching its TTL.
func (g *RedisGuard) RecordIfFresh(ctx context.Context, key string) (bool, error) {
	fresh, err := g.client.SetNX(ctx, redisKeyPrefix+key, 1, g.reuseWindow).Result()
	if err != nil {
		return false, errors.Join(ErrGuardUnavailable, err)
	}
	return fresh, nil
}
