package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// MemoryStore keeps sessions in process. Sessions are lost on restart.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.Principal, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return model.Principal{}, ErrNotFound
	}
	return v.(model.Principal), nil
}

func (s *MemoryStore) Save(_ context.Context, id string, p model.Principal, ttl time.Duration) error {
	s.cache.Set(id, p, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}
