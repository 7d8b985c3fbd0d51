package redis

import (
	"context"
	"errors"
	"fmt"

	"certprep/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultNamespace prefixes every slot key.
const DefaultNamespace = "certprep:"

// KVStore is a Redis implementation of app.KVStore. Each slot is one string
// value replaced wholesale by SET, so readers never see a partial write.
type KVStore struct {
	client    *redis.Client
	namespace string
}

func NewKVStore(client *redis.Client, namespace string) *KVStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &KVStore{client: client, namespace: namespace}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Ping verifies the connection before the store is handed out.
func (s *KVStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *KVStore) key(key string) string {
	return s.namespace + key
}
