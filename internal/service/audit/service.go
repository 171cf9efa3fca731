package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type Service struct {
	repo repository.AuditLogRepository
}

func NewService(repo repository.AuditLogRepository) *Service {
	return &Service{repo: repo}
}

// Log appends an entry attributed to actor. The actor's display name is
// copied so later renames do not rewrite history.
func (s *Service) Log(ctx context.Context, actor model.Principal, action model.AuditAction, target *uuid.UUID, details string) error {
	entry := &model.AuditLog{
		ID:        uuid.New(),
		ActorID:   actor.UserID,
		ActorName: actor.DisplayName,
		Action:    action,
		Details:   details,
		TargetID:  target,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditLog, error) {
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}
