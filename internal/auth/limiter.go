package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter tracks failed logins per attempt key.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// NoopAttemptLimiter never blocks. Used when Redis is not configured.
type NoopAttemptLimiter struct{}

func (NoopAttemptLimiter) Allow(context.Context, string) (bool, error) { return true, nil }
func (NoopAttemptLimiter) RecordFailure(context.Context, string) error { return nil }
func (NoopAttemptLimiter) Reset(context.Context, string) error { return nil }

// AttemptKey scopes a login id to the client address the attempt came from,
// so failures from one address cannot lock the account for everyone else.
func AttemptKey(loginID, clientIP string) string {
	if clientIP == "" {
		return loginID
	}
	return loginID + "|" + clientIP
}

const attemptKeyPrefix = "kheyma:login-failures:"

// RedisAttemptLimiter counts failures in a fixed window per attempt key.
type RedisAttemptLimiter struct {
	client      *redis.Client
	maxFailures int
	window      time.Duration
}

// NewRedisAttemptLimiter builds a limiter allowing maxFailures failed logins per window.
func NewRedisAttemptLimiter(client *redis.Client, maxFailures int, window time.Duration) *RedisAttemptLimiter {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RedisAttemptLimiter{client: client, maxFailures: maxFailures, window: window}
}

func (l *RedisAttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	failures, err := l.client.Get(ctx, attemptKeyPrefix+key).Int()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return failures < l.maxFailures, nil
}

// RecordFailure increments the counter and starts its window in one
// transaction. EXPIRE NX keeps the window fixed and repairs a key left
// without a TTL.
func (l *RedisAttemptLimiter) RecordFailure(ctx context.Context, key string) error {
	redisKey := attemptKeyPrefix + key
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, l.window)
		return nil
	})
	return err
}

func (l *RedisAttemptLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, attemptKeyPrefix+key).Err()
}
