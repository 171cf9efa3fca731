package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/clinic-api/internal/model"
)

const keyPrefix = "clinic:session:"

// RedisStore shares sessions between API replicas.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, id string) (model.Principal, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Principal{}, ErrNotFound
	}
	if err != nil {
		return model.Principal{}, fmt.Errorf("failed to load session: %w", err)
	}
	var p model.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.Principal{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return p, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, p model.Principal, ttl time.Duration) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
