package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type auditLogRepository struct {
	BaseRepository
}

func NewAuditLogRepository(base BaseRepository) repository.AuditLogRepository {
	return &auditLogRepository{base}
}

func (r *auditLogRepository) Create(ctx context.Context, log *model.AuditLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	log.CreatedAt = r.now()
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_id, actor_name, action, details, target_id, created_at)
		VALUES (:id, :actor_id, :actor_name, :action, :details, :target_id, :created_at)
	`, log)
	return wrap(err, "create audit log")
}

func (r *auditLogRepository) List(ctx context.Context, f model.AuditFilter) ([]*model.AuditLog, error) {
	var actor *uuid.UUID
	if f.ActorID != uuid.Nil {
		actor = &f.ActorID
	}
	p := f.Pagination.Normalize()

	logs := []*model.AuditLog{}
	err := r.db.SelectContext(ctx, &logs, `
		SELECT id, actor_id, actor_name, action, details, target_id, created_at
		FROM audit_logs
		WHERE ($1::uuid IS NULL OR actor_id = $1) AND ($2 = '' OR action = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, actor, string(f.Action), p.PageSize, p.Offset())
	if err != nil {
		return nil, wrap(err, "list audit logs")
	}
	return logs, nil
}
