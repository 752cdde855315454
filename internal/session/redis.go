package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists the auth slice under a single key.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore constructs a RedisStore. A zero ttl keeps the key until cleared.
func NewRedisStore(client *redis.Client, key string, ttl time.Duration) *RedisStore {
	if key == "" {
		key = "adminsuite:auth"
	}
	return &RedisStore{client: client, key: key, ttl: ttl}
}

// Load reads the auth slice.
func (s *RedisStore) Load(ctx context.Context) (Auth, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Auth{}, ErrNoSession
		}
		return Auth{}, fmt.Errorf("session: load: %w", err)
	}
	var auth Auth
	if err := json.Unmarshal(raw, &auth); err != nil {
		return Auth{}, fmt.Errorf("session: decode: %w", err)
	}
	return auth, nil
}

// Save writes the auth slice.
func (s *RedisStore) Save(ctx context.Context, auth Auth) error {
	raw, err := json.Marshal(auth)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Clear deletes the auth slice.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}
