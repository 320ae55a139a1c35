package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/ualauth/ports"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis implementation of the KeyCache interface
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis key cache
func NewRedisStore(client *redis.Client) ports.KeyCache {
	return &RedisStore{
		client: client,
		prefix: "ualauth:keys:",
	}
}

// Put caches keys in Redis with expiration
func (s *RedisStore) Put(ctx context.Context, key string, keys []string, ttl time.Duration) error {
	payload, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("failed to encode keys: %w", err)
	}

	if ttl < 0 {
		ttl = 0
	}

	if err := s.client.Set(ctx, s.prefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache keys: %w", err)
	}

	return nil
}

// Get reads cached keys from Redis
func (s *RedisStore) Get(ctx context.Context, key string) ([]string, bool, error) {
	payload, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached keys: %w", err)
	}

	var keys []string
	if err := json.Unmarshal(payload, &keys); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached keys: %w", err)
	}

	return keys, true, nil
}

// Delete removes cached keys from Redis
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to clear cached keys: %w", err)
	}
	return nil
}
