package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker guards against overlapping runs for the same unit of work.
type Locker interface {
	// Acquire takes the lock if free, returning whether it was taken.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type redisLocker struct {
	client redis.UniversalClient
}

// NewRedisLocker builds a Locker over Redis SET NX with a TTL, so a lock
// abandoned by a crashed process frees itself.
func NewRedisLocker(client redis.UniversalClient) Locker {
	return &redisLocker{client: client}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, "1", ttl).Result()
}

func (l *redisLocker) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, key).Err()
}
