package cooldown

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const bucketKeyPrefix = "fm:cooldown:"

// RedisStore shares cooldown state across instances so a restarted node does
// not reopen the spam window.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed cooldown store. Keys expire at twice
// the given window; an expired key reads the same as an elapsed cooldown.
func NewRedisStore(client *redis.Client, window time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: 2 * window}
}

func (s *RedisStore) Last(ctx context.Context, bucket string) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, bucketKeyPrefix+bucket).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	at, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

func (s *RedisStore) Touch(ctx context.Context, bucket string, at time.Time) error {
	return s.client.Set(ctx, bucketKeyPrefix+bucket, at.Format(time.RFC3339Nano), s.ttl).Err()
}
