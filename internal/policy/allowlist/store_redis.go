package allowlist

import (
	"context"

	"github.com/redis/go-redis/v9"

	"sentinelguard/pkg/domain"
)

const allowlistKey = "policy:allowlist"

// RedisStore shares the allow list across instances via a Redis set.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Contains(ctx context.Context, account domain.Address) (bool, error) {
	return s.client.SIsMember(ctx, allowlistKey, string(account)).Result()
}

func (s *RedisStore) Add(ctx context.Context, account domain.Address) error {
	return s.client.SAdd(ctx, allowlistKey, string(account)).Err()
}

func (s *RedisStore) Remove(ctx context.Context, account domain.Address) error {
	return s.client.SRem(ctx, allowlistKey, string(account)).Err()
}

func (s *RedisStore) List(ctx context.Context) ([]domain.Address, error) {
	members, err := s.client.SMembers(ctx, allowlistKey).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Address, len(members))
	for i, m := range members {
		out[i] = domain.Address(m)
	}
	return out, nil
}
