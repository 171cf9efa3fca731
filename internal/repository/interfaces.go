package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		List(ctx context.Context, filter model.UserFilter) ([]*model.User, error)
	}

	SpecializationRepository interface {
		Create(ctx context.Context, s *model.Specialization) error
		Get(ctx context.Context, id uuid.UUID) (*model.Specialization, error)
		List(ctx context.Context) ([]*model.Specialization, error)
	}

	// DoctorRepository loads doctors together with their weekly schedule.
	DoctorRepository interface {
		// CreateWithUser inserts the user and its doctor record atomically.
		CreateWithUser(ctx context.Context, user *model.User, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
		GetByName(ctx context.Context, name string) (*model.Doctor, error)
		List(ctx context.Context, filter model.DoctorFilter) ([]*model.Doctor, error)
		// ReplaceSchedule overwrites the doctor's whole weekly template.
		ReplaceSchedule(ctx context.Context, doctorID uuid.UUID, entries []model.ScheduleEntry) error
	}

	AppointmentRepository interface {
		// Create returns ErrDuplicate when another non-cancelled appointment
		// already holds the same doctor, date and time.
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		FindActiveBySlot(ctx context.Context, slot model.SlotKey) (*model.Appointment, error)
		BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]model.TimeSlot, error)
		List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
		SetArchived(ctx context.Context, id uuid.UUID, archived bool) error
	}

	PatientRecordRepository interface {
		// GetOrCreate returns the user's record, creating an empty one on
		// first access.
		GetOrCreate(ctx context.Context, userID uuid.UUID) (*model.PatientRecord, error)
		AddConsultation(ctx context.Context, entry *model.ConsultationEntry) error
		GetConsultation(ctx context.Context, recordID, entryID uuid.UUID) (*model.ConsultationEntry, error)
		UpdateMedicalInfo(ctx context.Context, recordID uuid.UUID, allergies, conditions []string) error
	}

	InventoryRepository interface {
		Create(ctx context.Context, item *model.InventoryItem) error
		Get(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
		Update(ctx context.Context, item *model.InventoryItem) error
		List(ctx context.Context) ([]*model.InventoryItem, error)
	}

	FinancialRepository interface {
		Create(ctx context.Context, record *model.FinancialRecord) error
		List(ctx context.Context, p model.Pagination) ([]*model.FinancialRecord, error)
	}

	AuditLogRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditLog, error)
	}
)

// Store bundles every repository of one backend.
type Store struct {
	Users           UserRepository
	Specializations SpecializationRepository
	Doctors         DoctorRepository
	Appointments    AppointmentRepository
	PatientRecords  PatientRecordRepository
	Inventory       InventoryRepository
	Financial       FinancialRepository
	AuditLogs       AuditLogRepository

	// Ping reports backend health.
	Ping func(ctx context.Context) error
}
