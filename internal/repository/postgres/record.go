package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type patientRecordRepository struct {
	BaseRepository
}

func NewPatientRecordRepository(base BaseRepository) repository.PatientRecordRepository {
	return &patientRecordRepository{base}
}

type recordRow struct {
	model.Base
	UserID     uuid.UUID      `db:"user_id"`
	Allergies  pq.StringArray `db:"allergies"`
	Conditions pq.StringArray `db:"conditions"`
}

const consultationColumns = `id, record_id, consultation_date, doctor_name, complaint, diagnosis, treatment_plan, notes, recorded_by, created_at`

// GetOrCreate inserts an empty record if none exists; ON CONFLICT keeps
// concurrent first accesses down to a single row.
func (r *patientRecordRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*model.PatientRecord, error) {
	now := r.now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO patient_records (id, user_id, allergies, conditions, created_at, updated_at)
		VALUES ($1, $2, '{}', '{}', $3, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.New(), userID, now)
	if err != nil {
		return nil, wrap(err, "create patient record")
	}

	var row recordRow
	err = r.db.GetContext(ctx, &row,
		`SELECT id, user_id, allergies, conditions, created_at, updated_at FROM patient_records WHERE user_id = $1`, userID)
	if err != nil {
		return nil, wrap(err, "get patient record")
	}

	history := []model.ConsultationEntry{}
	err = r.db.SelectContext(ctx, &history,
		`SELECT `+consultationColumns+` FROM consultation_entries WHERE record_id = $1 ORDER BY created_at`, row.ID)
	if err != nil {
		return nil, wrap(err, "list consultations")
	}

	return &model.PatientRecord{
		Base:                row.Base,
		UserID:              row.UserID,
		Allergies:           append([]string{}, row.Allergies...),
		Conditions:          append([]string{}, row.Conditions...),
		ConsultationHistory: history,
	}, nil
}

func (r *patientRecordRepository) AddConsultation(ctx context.Context, e *model.ConsultationEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = r.now()
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO consultation_entries (`+consultationColumns+`)
		VALUES (:id, :record_id, :consultation_date, :doctor_name, :complaint, :diagnosis, :treatment_plan, :notes, :recorded_by, :created_at)
	`, e)
	if err != nil {
		return wrap(err, "add consultation")
	}
	_, err = r.db.ExecContext(ctx, `UPDATE patient_records SET updated_at = $1 WHERE id = $2`, e.CreatedAt, e.RecordID)
	return wrap(err, "touch patient record")
}

func (r *patientRecordRepository) GetConsultation(ctx context.Context, recordID, entryID uuid.UUID) (*model.ConsultationEntry, error) {
	var e model.ConsultationEntry
	err := r.db.GetContext(ctx, &e,
		`SELECT `+consultationColumns+` FROM consultation_entries WHERE record_id = $1 AND id = $2`, recordID, entryID)
	if err != nil {
		return nil, wrap(err, "get consultation")
	}
	return &e, nil
}

func (r *patientRecordRepository) UpdateMedicalInfo(ctx context.Context, recordID uuid.UUID, allergies, conditions []string) error {
	if allergies == nil {
		allergies = []string{}
	}
	if conditions == nil {
		conditions = []string{}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE patient_records SET allergies = $1, conditions = $2, updated_at = $3 WHERE id = $4`,
		pq.Array(allergies), pq.Array(conditions), r.now(), recordID)
	if err != nil {
		return wrap(err, "update medical info")
	}
	return mustAffect(res, "update medical info")
}
