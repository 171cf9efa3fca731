package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/session"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

var errBadCredentials = apperrors.Unauthorized("invalid email or password", nil)

type Auditor interface {
	Log(ctx context.Context, actor model.Principal, action model.AuditAction, target *uuid.UUID, details string) error
}

type Service struct {
	users      repository.UserRepository
	jwt        *auth.JWTService
	sessions   session.Store
	hasher     security.PasswordHasher
	auditor    Auditor
	sessionTTL time.Duration
}

func NewService(users repository.UserRepository, jwt *auth.JWTService, sessions session.Store,
	hasher security.PasswordHasher, auditor Auditor, sessionTTL time.Duration) *Service {
	return &Service{
		users:      users,
		jwt:        jwt,
		sessions:   sessions,
		hasher:     hasher,
		auditor:    auditor,
		sessionTTL: sessionTTL,
	}
}

// Login checks the password and returns the caller's identity. Unknown
// emails and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (model.Principal, error) {
	user, err := s.users.GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Principal{}, errBadCredentials
		}
		return model.Principal{}, apperrors.Internal(err)
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			log.Warn().Str("user_id", user.ID.String()).Msg("Failed login attempt")
			return model.Principal{}, errBadCredentials
		}
		return model.Principal{}, apperrors.Internal(err)
	}
	return user.Principal(), nil
}

// IssueToken signs a bearer token for API and mobile clients.
func (s *Service) IssueToken(ctx context.Context, p model.Principal) (*model.TokenResponse, error) {
	token, err := s.jwt.Generate(p)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	s.audit(ctx, p, model.AuditLogin, "token issued")
	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwt.Expiry().Seconds()),
		User:        p.Summary(),
	}, nil
}

// ResolveToken turns a bearer token into a principal. A token that fails
// verification is Forbidden, not Unauthorized.
func (s *Service) ResolveToken(_ context.Context, token string) (model.Principal, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return model.Principal{}, apperrors.Forbidden("token has expired")
		}
		return model.Principal{}, apperrors.Forbidden("invalid token")
	}
	p, err := claims.Principal()
	if err != nil {
		return model.Principal{}, apperrors.Forbidden("invalid token")
	}
	return p, nil
}

// StartSession stores p server-side and returns the cookie value.
func (s *Service) StartSession(ctx context.Context, p model.Principal) (string, error) {
	id, err := security.NewSessionID()
	if err != nil {
		return "", apperrors.Internal(err)
	}
	if err := s.sessions.Save(ctx, id, p, s.sessionTTL); err != nil {
		return "", apperrors.Internal(err)
	}
	s.audit(ctx, p, model.AuditLogin, "session started")
	return id, nil
}

func (s *Service) ResolveSession(ctx context.Context, id string) (model.Principal, error) {
	p, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return model.Principal{}, apperrors.Unauthorized("session expired", nil)
		}
		return model.Principal{}, apperrors.Internal(err)
	}
	return p, nil
}

func (s *Service) EndSession(ctx context.Context, p model.Principal, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return apperrors.Internal(err)
	}
	s.audit(ctx, p, model.AuditLogout, "session ended")
	return nil
}

func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

func (s *Service) audit(ctx context.Context, p model.Principal, action model.AuditAction, details string) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Log(ctx, p, action, &p.UserID, details); err != nil {
		log.Warn().Err(err).Str("action", string(action)).Msg("Failed to write audit log")
	}
}
