package attempts

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLimiterUnavailable indicates the backing store rejected the operation.
var ErrLimiterUnavailable = errors.New("attempt limiter backend unavailable")

const redisKeyPrefix = "attempts:"

// RedisLimiter implements Limiter on a Redis counter with a TTL, so several
// processes share one failure budget per key.
type RedisLimiter struct {
	client      redis.UniversalClient
	maxFailures int
	cooldown    time.Duration
}

// RedisLimiterOption configures a RedisLimiter.
type RedisLimiterOption func(*RedisLimiter)

// WithRedisMaxFailures sets the lockout threshold.
func WithRedisMaxFailures(n int) RedisLimiterOption {
	return func(l *RedisLimiter) {
		if n > 0 {
			l.maxFailures = n
		}
	}
}

// WithRedisCooldown sets the lockout duration measured from the first failure.
func WithRedisCooldown(d time.Duration) RedisLimiterOption {
	return func(l *RedisLimiter) {
		if d > 0 {
			l.cooldown = d
		}
	}
}

// NewRedisLimiter creates a limiter backed by the given Redis client.
func NewRedisLimiter(client redis.UniversalClient, opts ...RedisLimiterOption) *RedisLimiter {
	l := &RedisLimiter{
		client:      client,
		maxFailures: DefaultMaxFailures,
		cooldown:    DefaultCooldown,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Check implements Limiter.
func (l *RedisLimiter) Check(ctx context.Context, key string) error {
	count, err := l.client.Get(ctx, redisKeyPrefix+key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return errors.Join(ErrLimiterUnavailable, err)
	}
	if count >= int64(l.maxFailures) {
		return ErrTooManyAttempts
	}
	return nil
}

// RecordFailure implements Limiter. The TTL is set on the first failure so the
// cooldown runs from the start of the burst, not its end.
func (l *RedisLimiter) RecordFailure(ctx context.Context, key string) error {
	count, err := l.client.Incr(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return errors.Join(ErrLimiterUnavailable, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKeyPrefix+key, l.cooldown).Err(); err != nil {
			return errors.Join(ErrLimiterUnavailable, err)
		}
	}
	if count >= int64(l.maxFailures) {
		return ErrTooManyAttempts
	}
	return nil
}

// Reset implements Limiter.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return errors.Join(ErrLimiterUnavailable, err)
	}
	return nil
}
