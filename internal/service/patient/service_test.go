package patient

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type people struct {
	patient, other, doctor, staff model.Principal
}

func setup(t *testing.T) (*Service, people, *audit.Service) {
	t.Helper()
	store := memory.New()
	mk := func(first string, role model.Role) model.Principal {
		u := &model.User{FirstName: first, LastName: "Test", Email: first + "@clinic.test", Role: role}
		require.NoError(t, store.Users.Create(context.Background(), u))
		return u.Principal()
	}
	ppl := people{
		patient: mk("pat", model.RolePatient),
		other:   mk("oth", model.RolePatient),
		doctor:  mk("doc", model.RoleDoctor),
		staff:   mk("sta", model.RoleStaff),
	}
	audits := audit.NewService(store.AuditLogs)
	return NewService(store.Users, store.PatientRecords, audits), ppl, audits
}

func TestRecordIsCreatedLazilyOnce(t *testing.T) {
	svc, ppl, _ := setup(t)
	ctx := context.Background()

	first, err := svc.GetRecord(ctx, ppl.staff, ppl.patient.UserID)
	require.NoError(t, err)
	assert.Empty(t, first.ConsultationHistory)

	again, err := svc.GetRecord(ctx, ppl.patient, ppl.patient.UserID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestRecordAccess(t *testing.T) {
	svc, ppl, _ := setup(t)
	ctx := context.Background()

	_, err := svc.GetRecord(ctx, ppl.other, ppl.patient.UserID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	_, err = svc.GetRecord(ctx, ppl.staff, ppl.doctor.UserID)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = svc.GetRecord(ctx, ppl.staff, uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestAddConsultation(t *testing.T) {
	svc, ppl, audits := setup(t)
	ctx := context.Background()

	_, err := svc.AddConsultation(ctx, ppl.patient, ppl.patient.UserID, model.AddConsultationRequest{Date: "2030-01-07", Complaint: "cough"})
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	_, err = svc.AddConsultation(ctx, ppl.doctor, ppl.patient.UserID, model.AddConsultationRequest{Date: "2030-01-07"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "complaint", appErr.Field)

	entry, err := svc.AddConsultation(ctx, ppl.doctor, ppl.patient.UserID, model.AddConsultationRequest{
		Date: "2030-01-07", Complaint: " cough ", Diagnosis: "cold",
	})
	require.NoError(t, err)
	assert.Equal(t, "doc Test", entry.DoctorName)
	assert.Equal(t, "cough", entry.Complaint)
	assert.Equal(t, ppl.doctor.UserID, entry.RecordedBy)

	got, err := svc.GetConsultation(ctx, ppl.patient, ppl.patient.UserID, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "cold", got.Diagnosis)

	rec, err := svc.GetRecord(ctx, ppl.staff, ppl.patient.UserID)
	require.NoError(t, err)
	assert.Len(t, rec.ConsultationHistory, 1)

	_, err = svc.GetConsultation(ctx, ppl.staff, ppl.patient.UserID, uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	logs, err := audits.List(ctx, model.AuditFilter{Action: model.AuditConsultationAdded})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestUpdateMedicalInfo(t *testing.T) {
	svc, ppl, _ := setup(t)
	ctx := context.Background()

	rec, err := svc.UpdateMedicalInfo(ctx, ppl.staff, ppl.patient.UserID, model.UpdateMedicalInfoRequest{
		Allergies:  []string{"Penicillin", " penicillin ", ""},
		Conditions: []string{"Asthma"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Penicillin"}, rec.Allergies)

	stored, err := svc.GetRecord(ctx, ppl.patient, ppl.patient.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Penicillin"}, stored.Allergies)
	assert.Equal(t, []string{"Asthma"}, stored.Conditions)

	_, err = svc.UpdateMedicalInfo(ctx, ppl.patient, ppl.patient.UserID, model.UpdateMedicalInfoRequest{})
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}
