package sessions

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

// RedisStore shares one session between processes. Keys are namespaced with prefix so
// several sessions can live in the same database.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) key(k Key) string {
	return s.prefix + string(k)
}

func (s *RedisStore) Get(ctx context.Context, key Key) (string, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("[RedisStore Get] %s: %w", key, err)
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key Key, value string) error {
	if value == "" {
		return s.Clear(ctx, key)
	}
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("[RedisStore Set] %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, s.key(k))
	}
	if err := s.client.Del(ctx, names...).Err(); err != nil {
		return fmt.Errorf("[RedisStore Clear] %w", err)
	}
	return nil
}
