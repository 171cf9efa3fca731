package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewStore wires every repository onto db.
func NewStore(db *sqlx.DB) *repository.Store {
	base := NewBaseRepository(db)
	return &repository.Store{
		Users:           NewUserRepository(base),
		Specializations: NewSpecializationRepository(base),
		Doctors:         NewDoctorRepository(base),
		Appointments:    NewAppointmentRepository(base),
		PatientRecords:  NewPatientRecordRepository(base),
		Inventory:       NewInventoryRepository(base),
		Financial:       NewFinancialRepository(base),
		AuditLogs:       NewAuditLogRepository(base),
		Ping:            func(ctx context.Context) error { return db.PingContext(ctx) },
	}
}
