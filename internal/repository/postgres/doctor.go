package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const doctorSelect = `
	SELECT d.id, d.user_id, d.name, d.specialization_id, COALESCE(s.name, '') AS specialization_name,
		   d.description, d.is_active, d.created_at, d.updated_at
	FROM doctors d
	LEFT JOIN specializations s ON s.id = d.specialization_id
`

type specializationRepository struct {
	BaseRepository
}

func NewSpecializationRepository(base BaseRepository) repository.SpecializationRepository {
	return &specializationRepository{base}
}

func (r *specializationRepository) Create(ctx context.Context, s *model.Specialization) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO specializations (id, name, description) VALUES ($1, $2, $3)`,
		s.ID, s.Name, s.Description)
	return wrap(err, "create specialization")
}

func (r *specializationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Specialization, error) {
	var s model.Specialization
	if err := r.db.GetContext(ctx, &s, `SELECT id, name, description FROM specializations WHERE id = $1`, id); err != nil {
		return nil, wrap(err, "get specialization")
	}
	return &s, nil
}

func (r *specializationRepository) List(ctx context.Context) ([]*model.Specialization, error) {
	out := []*model.Specialization{}
	if err := r.db.SelectContext(ctx, &out, `SELECT id, name, description FROM specializations ORDER BY name`); err != nil {
		return nil, wrap(err, "list specializations")
	}
	return out, nil
}

type doctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(base BaseRepository) repository.DoctorRepository {
	return &doctorRepository{base}
}

func (r *doctorRepository) CreateWithUser(ctx context.Context, user *model.User, doctor *model.Doctor) error {
	now := r.now()
	user.Email = model.NormalizeEmail(user.Email)
	user.Touch(now)
	doctor.UserID = user.ID
	if doctor.Name == "" {
		doctor.Name = user.DisplayName()
	}
	doctor.Touch(now)

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO doctors (id, user_id, name, specialization_id, description, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, doctor.ID, doctor.UserID, doctor.Name, doctor.SpecializationID, doctor.Description, doctor.IsActive, doctor.CreatedAt, doctor.UpdatedAt)
		if err != nil {
			return wrap(err, "create doctor")
		}
		return insertSchedule(ctx, tx, doctor.ID, doctor.Schedules)
	})
}

func insertSchedule(ctx context.Context, tx *sqlx.Tx, doctorID uuid.UUID, entries []model.ScheduleEntry) error {
	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO doctor_schedules (doctor_id, day_of_week, time_slot) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			doctorID, e.Day, e.Slot)
		if err != nil {
			return wrap(err, "insert schedule entry")
		}
	}
	return nil
}

func (r *doctorRepository) loadSchedules(ctx context.Context, doctors ...*model.Doctor) error {
	if len(doctors) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(doctors))
	byID := make(map[uuid.UUID]*model.Doctor, len(doctors))
	for i, d := range doctors {
		ids[i] = d.ID
		byID[d.ID] = d
		d.Schedules = []model.ScheduleEntry{}
	}

	query, args, err := sqlx.In(`SELECT doctor_id, day_of_week, time_slot FROM doctor_schedules WHERE doctor_id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("failed to build schedule query: %w", err)
	}
	var rows []struct {
		DoctorID uuid.UUID `db:"doctor_id"`
		model.ScheduleEntry
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return wrap(err, "load schedules")
	}
	for _, row := range rows {
		d := byID[row.DoctorID]
		d.Schedules = append(d.Schedules, row.ScheduleEntry)
	}
	for _, d := range doctors {
		model.SortScheduleEntries(d.Schedules)
	}
	return nil
}

func (r *doctorRepository) getOne(ctx context.Context, op, where string, arg interface{}) (*model.Doctor, error) {
	var d model.Doctor
	if err := r.db.GetContext(ctx, &d, doctorSelect+" WHERE "+where, arg); err != nil {
		return nil, wrap(err, op)
	}
	if err := r.loadSchedules(ctx, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return r.getOne(ctx, "get doctor", "d.id = $1", id)
}

func (r *doctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	return r.getOne(ctx, "get doctor by user", "d.user_id = $1", userID)
}

func (r *doctorRepository) GetByName(ctx context.Context, name string) (*model.Doctor, error) {
	return r.getOne(ctx, "get doctor by name", "lower(d.name) = lower(trim($1)) ORDER BY d.created_at LIMIT 1", name)
}

func (r *doctorRepository) List(ctx context.Context, filter model.DoctorFilter) ([]*model.Doctor, error) {
	query := doctorSelect + " WHERE ($1::uuid IS NULL OR d.specialization_id = $1) AND (NOT $2 OR d.is_active) ORDER BY d.name"
	var spec *uuid.UUID
	if filter.SpecializationID != uuid.Nil {
		spec = &filter.SpecializationID
	}

	doctors := []*model.Doctor{}
	if err := r.db.SelectContext(ctx, &doctors, query, spec, filter.ActiveOnly); err != nil {
		return nil, wrap(err, "list doctors")
	}
	if err := r.loadSchedules(ctx, doctors...); err != nil {
		return nil, err
	}
	return doctors, nil
}

// ReplaceSchedule deletes and re-inserts the template in one transaction.
// The doctor row is locked so concurrent replacements serialise.
func (r *doctorRepository) ReplaceSchedule(ctx context.Context, doctorID uuid.UUID, entries []model.ScheduleEntry) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE doctors SET updated_at = $1 WHERE id = $2`, r.now(), doctorID)
		if err != nil {
			return wrap(err, "lock doctor")
		}
		if err := mustAffect(res, "replace schedule"); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM doctor_schedules WHERE doctor_id = $1`, doctorID); err != nil {
			return wrap(err, "clear schedule")
		}
		return insertSchedule(ctx, tx, doctorID, entries)
	})
}
