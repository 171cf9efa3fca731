package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	auditsvc "github.com/jwalitptl/clinic-api/internal/service/audit"
	"github.com/jwalitptl/clinic-api/internal/session"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

func setup(t *testing.T) (*Service, *model.User, *auditsvc.Service) {
	t.Helper()
	store := memory.New()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("correct-horse")
	require.NoError(t, err)
	u := &model.User{FirstName: "Alice", LastName: "Doe", Email: "alice@example.com", PasswordHash: hash, Role: model.RolePatient}
	require.NoError(t, store.Users.Create(context.Background(), u))

	audits := auditsvc.NewService(store.AuditLogs)
	svc := NewService(store.Users, auth.NewJWTService("secret", "clinic-api", time.Hour),
		session.NewMemoryStore(time.Minute), hasher, audits, time.Hour)
	return svc, u, audits
}

func TestLogin(t *testing.T) {
	svc, u, _ := setup(t)
	ctx := context.Background()

	p, err := svc.Login(ctx, " Alice@Example.com ", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, "Alice Doe", p.DisplayName)

	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	_, err = svc.Login(ctx, "nobody@example.com", "correct-horse")
	assert.Equal(t, errBadCredentials, err)
}

func TestTokenRoundTrip(t *testing.T) {
	svc, u, audits := setup(t)
	ctx := context.Background()

	resp, err := svc.IssueToken(ctx, u.Principal())
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	p, err := svc.ResolveToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.Principal(), p)

	_, err = svc.ResolveToken(ctx, resp.AccessToken+"x")
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	logs, err := audits.List(ctx, model.AuditFilter{Action: model.AuditLogin})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestSessionLifecycle(t *testing.T) {
	svc, u, audits := setup(t)
	ctx := context.Background()

	id, err := svc.StartSession(ctx, u.Principal())
	require.NoError(t, err)
	assert.Len(t, id, 43)

	p, err := svc.ResolveSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)

	require.NoError(t, svc.EndSession(ctx, p, id))
	_, err = svc.ResolveSession(ctx, id)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	logs, err := audits.List(ctx, model.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, model.AuditLogout, logs[0].Action)
}
