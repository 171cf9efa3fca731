package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

type Auditor interface {
	Log(ctx context.Context, actor model.Principal, action model.AuditAction, target *uuid.UUID, details string) error
}

type Service struct {
	users   repository.UserRepository
	doctors repository.DoctorRepository
	hasher  security.PasswordHasher
	auditor Auditor
}

func NewService(users repository.UserRepository, doctors repository.DoctorRepository, hasher security.PasswordHasher, auditor Auditor) *Service {
	return &Service{users: users, doctors: doctors, hasher: hasher, auditor: auditor}
}

func (s *Service) hash(password string) (string, error) {
	h, err := s.hasher.Hash(password)
	if errors.Is(err, security.ErrPasswordTooShort) {
		return "", apperrors.InvalidField("password", fmt.Sprintf("must be at least %d characters", security.MinPasswordLen))
	}
	if err != nil {
		return "", apperrors.Internal(err)
	}
	return h, nil
}

func storeErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflict("email is already registered", err)
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("specialization", err)
	}
	return apperrors.Internal(err)
}

// CreateUser adds an account with any role. Doctors also get a doctor
// record, created in the same write.
func (s *Service) CreateUser(ctx context.Context, actor model.Principal, req model.CreateUserRequest) (*model.User, error) {
	if actor.Role != model.RoleAdmin {
		return nil, apperrors.Forbidden("only admins can create users")
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, apperrors.InvalidField("role", "must be one of: patient doctor staff admin")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, apperrors.FieldRequired("email")
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        model.NormalizeEmail(req.Email),
		PasswordHash: hash,
		Verified:     true,
		Role:         role,
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
	}

	if role == model.RoleDoctor {
		doc := &model.Doctor{Description: strings.TrimSpace(req.Description), IsActive: true}
		if req.SpecializationID != "" {
			id, err := uuid.Parse(req.SpecializationID)
			if err != nil {
				return nil, apperrors.InvalidField("specializationId", "must be a valid id")
			}
			doc.SpecializationID = &id
		}
		if err := s.doctors.CreateWithUser(ctx, u, doc); err != nil {
			return nil, storeErr(err)
		}
	} else if err := s.users.Create(ctx, u); err != nil {
		return nil, storeErr(err)
	}

	s.audit(ctx, actor, u, fmt.Sprintf("created %s account %s", u.Role, u.Email))
	log.Info().Str("user_id", u.ID.String()).Str("role", string(u.Role)).Msg("User created")
	return u, nil
}

// Register signs up a patient. The account is unverified until the email
// link is followed.
func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        model.NormalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         model.RolePatient,
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, storeErr(err)
	}
	s.audit(ctx, u.Principal(), u, "self registration")
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Internal(err)
	}
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context, actor model.Principal, filter model.UserFilter) ([]*model.User, error) {
	if !actor.Role.IsElevated() {
		return nil, apperrors.Forbidden("")
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return users, nil
}

func (s *Service) audit(ctx context.Context, actor model.Principal, u *model.User, details string) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Log(ctx, actor, model.AuditUserCreated, &u.ID, details); err != nil {
		log.Warn().Err(err).Msg("Failed to write audit log")
	}
}
