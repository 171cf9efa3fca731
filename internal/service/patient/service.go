package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Auditor interface {
	Log(ctx context.Context, actor model.Principal, action model.AuditAction, target *uuid.UUID, details string) error
}

// Service manages patient charts. Records are created lazily on first
// access and consultation history is append-only.
type Service struct {
	users   repository.UserRepository
	records repository.PatientRecordRepository
	auditor Auditor
}

func NewService(users repository.UserRepository, records repository.PatientRecordRepository, auditor Auditor) *Service {
	return &Service{users: users, records: records, auditor: auditor}
}

func clinical(p model.Principal) bool {
	return p.Role.IsElevated() || p.Role == model.RoleDoctor
}

// record loads the chart of userID after checking p may see it.
func (s *Service) record(ctx context.Context, p model.Principal, userID uuid.UUID) (*model.PatientRecord, error) {
	if !clinical(p) && p.UserID != userID {
		return nil, apperrors.Forbidden("you cannot view this record")
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Internal(err)
	}
	if u.Role != model.RolePatient {
		return nil, apperrors.Validation("user is not a patient")
	}
	rec, err := s.records.GetOrCreate(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Internal(err)
	}
	return rec, nil
}

func (s *Service) GetRecord(ctx context.Context, p model.Principal, userID uuid.UUID) (*model.PatientRecord, error) {
	return s.record(ctx, p, userID)
}

// AddConsultation appends a visit. Doctors default to their own name.
func (s *Service) AddConsultation(ctx context.Context, p model.Principal, userID uuid.UUID, req model.AddConsultationRequest) (*model.ConsultationEntry, error) {
	if !clinical(p) {
		return nil, apperrors.Forbidden("only clinic staff can add consultations")
	}
	if strings.TrimSpace(req.Complaint) == "" {
		return nil, apperrors.FieldRequired("complaint")
	}
	if req.Date == "" {
		return nil, apperrors.FieldRequired("date")
	}
	if _, err := time.Parse(model.DateLayout, req.Date); err != nil {
		return nil, apperrors.InvalidField("date", "must be a date in YYYY-MM-DD format")
	}

	rec, err := s.record(ctx, p, userID)
	if err != nil {
		return nil, err
	}

	doctorName := strings.TrimSpace(req.DoctorName)
	if doctorName == "" && p.Role == model.RoleDoctor {
		doctorName = p.DisplayName
	}
	entry := &model.ConsultationEntry{
		RecordID:      rec.ID,
		Date:          req.Date,
		DoctorName:    doctorName,
		Complaint:     strings.TrimSpace(req.Complaint),
		Diagnosis:     strings.TrimSpace(req.Diagnosis),
		TreatmentPlan: strings.TrimSpace(req.TreatmentPlan),
		Notes:         strings.TrimSpace(req.Notes),
		RecordedBy:    p.UserID,
	}
	if err := s.records.AddConsultation(ctx, entry); err != nil {
		return nil, apperrors.Internal(err)
	}
	s.audit(ctx, p, model.AuditConsultationAdded, userID, fmt.Sprintf("consultation on %s", entry.Date))
	return entry, nil
}

func (s *Service) GetConsultation(ctx context.Context, p model.Principal, userID, entryID uuid.UUID) (*model.ConsultationEntry, error) {
	rec, err := s.record(ctx, p, userID)
	if err != nil {
		return nil, err
	}
	entry, err := s.records.GetConsultation(ctx, rec.ID, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("consultation", err)
		}
		return nil, apperrors.Internal(err)
	}
	return entry, nil
}

// UpdateMedicalInfo replaces the allergy and condition lists.
func (s *Service) UpdateMedicalInfo(ctx context.Context, p model.Principal, userID uuid.UUID, req model.UpdateMedicalInfoRequest) (*model.PatientRecord, error) {
	if !clinical(p) {
		return nil, apperrors.Forbidden("only clinic staff can edit medical information")
	}
	rec, err := s.record(ctx, p, userID)
	if err != nil {
		return nil, err
	}
	allergies, conditions := cleanList(req.Allergies), cleanList(req.Conditions)
	if err := s.records.UpdateMedicalInfo(ctx, rec.ID, allergies, conditions); err != nil {
		return nil, apperrors.Internal(err)
	}
	rec.Allergies, rec.Conditions = allergies, conditions
	s.audit(ctx, p, model.AuditMedicalInfoUpdated, userID,
		fmt.Sprintf("%d allergies, %d conditions", len(allergies), len(conditions)))
	return rec, nil
}

// cleanList trims entries and drops blanks and case-insensitive repeats.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func (s *Service) audit(ctx context.Context, p model.Principal, action model.AuditAction, target uuid.UUID, details string) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Log(ctx, p, action, &target, details); err != nil {
		log.Warn().Err(err).Str("action", string(action)).Msg("Failed to write audit log")
	}
}
