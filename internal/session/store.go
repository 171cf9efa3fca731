package session

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/clinic-api/internal/model"
)

var ErrNotFound = errors.New("session not found")

// Store keeps server-side session payloads keyed by the opaque cookie value.
type Store interface {
	Get(ctx context.Context, id string) (model.Principal, error)
	Save(ctx context.Context, id string, p model.Principal, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
