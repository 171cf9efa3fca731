package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

const appointmentColumns = `
	id, doctor_id, doctor_name, specialization, appointment_date, appointment_time,
	patient_name, patient_email, patient_address, patient_age, patient_phone,
	reason, status, is_archived, user_id, created_by, created_at, updated_at
`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

// Create relies on appointments_active_slot_idx: a second non-cancelled
// booking for the same doctor, date and time fails with ErrDuplicate.
func (r *appointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES (
			:id, :doctor_id, :doctor_name, :specialization, :appointment_date, :appointment_time,
			:patient_name, :patient_email, :patient_address, :patient_age, :patient_phone,
			:reason, :status, :is_archived, :user_id, :created_by, :created_at, :updated_at
		)
	`
	a.Touch(r.now())
	_, err := r.db.NamedExecContext(ctx, query, a)
	return wrap(err, "create appointment")
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	if err := r.db.GetContext(ctx, &a, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id); err != nil {
		return nil, wrap(err, "get appointment")
	}
	return &a, nil
}

func (r *appointmentRepository) FindActiveBySlot(ctx context.Context, slot model.SlotKey) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND appointment_date = $2 AND appointment_time = $3 AND status <> 'Cancelled'
	`
	var a model.Appointment
	if err := r.db.GetContext(ctx, &a, query, slot.DoctorID, slot.Date, slot.Time); err != nil {
		return nil, wrap(err, "find appointment by slot")
	}
	return &a, nil
}

func (r *appointmentRepository) BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]model.TimeSlot, error) {
	query := `
		SELECT appointment_time
		FROM appointments
		WHERE doctor_id = $1 AND appointment_date = $2 AND status <> 'Cancelled'
	`
	times := []model.TimeSlot{}
	if err := r.db.SelectContext(ctx, &times, query, doctorID, date); err != nil {
		return nil, wrap(err, "list booked times")
	}
	model.SortTimeSlots(times)
	return times, nil
}

func (r *appointmentRepository) List(ctx context.Context, f model.AppointmentFilter) ([]*model.Appointment, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.DoctorID != uuid.Nil {
		add("doctor_id = $%d", f.DoctorID)
	}
	if f.UserID != uuid.Nil {
		add("user_id = $%d", f.UserID)
	}
	if f.Date != "" {
		add("appointment_date = $%d", f.Date)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Archived != nil {
		add("is_archived = $%d", *f.Archived)
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	p := f.Pagination.Normalize()
	args = append(args, p.PageSize, p.Offset())
	// Slot labels sort lexically wrong across AM/PM, so order by the parsed time.
	query += fmt.Sprintf(" ORDER BY appointment_date, to_timestamp(appointment_time, 'HH12:MI AM')::time LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	out := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, wrap(err, "list appointments")
	}
	return out, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3`,
		status, r.now(), id)
	if err != nil {
		return wrap(err, "update appointment status")
	}
	return mustAffect(res, "update appointment status")
}

func (r *appointmentRepository) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET is_archived = $1, updated_at = $2 WHERE id = $3`,
		archived, r.now(), id)
	if err != nil {
		return wrap(err, "archive appointment")
	}
	return mustAffect(res, "archive appointment")
}
