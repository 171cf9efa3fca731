package model

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditAppointmentCreated       AuditAction = "appointment.created"
	AuditAppointmentCancelled     AuditAction = "appointment.cancelled"
	AuditAppointmentStatusChanged AuditAction = "appointment.status_changed"
	AuditAppointmentArchived      AuditAction = "appointment.archive_toggled"
	AuditScheduleUpdated          AuditAction = "schedule.updated"
	AuditConsultationAdded        AuditAction = "record.consultation_added"
	AuditMedicalInfoUpdated       AuditAction = "record.medical_info_updated"
	AuditUserCreated              AuditAction = "user.created"
	AuditLogin                    AuditAction = "auth.login"
	AuditLogout                   AuditAction = "auth.logout"
)

// AuditLog is an append-only record of who did what.
type AuditLog struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	ActorID   uuid.UUID   `json:"actorId" db:"actor_id"`
	ActorName string      `json:"actorName" db:"actor_name"`
	Action    AuditAction `json:"action" db:"action"`
	Details   string      `json:"details" db:"details"`
	TargetID  *uuid.UUID  `json:"targetId,omitempty" db:"target_id"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
}

type AuditFilter struct {
	ActorID uuid.UUID
	Action  AuditAction
	Pagination
}
