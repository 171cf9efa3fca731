package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func (s *Service) ListDoctors(ctx context.Context, filter model.DoctorFilter) ([]*model.Doctor, error) {
	docs, err := s.doctors.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return docs, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doc, err := s.doctors.Get(ctx, id)
	if err != nil {
		return nil, lookupErr("doctor", err)
	}
	return doc, nil
}

func (s *Service) ListSpecializations(ctx context.Context) ([]*model.Specialization, error) {
	specs, err := s.specs.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return specs, nil
}

// GetWeeklySchedule returns the doctor's template as day -> slots.
func (s *Service) GetWeeklySchedule(ctx context.Context, doctorID uuid.UUID) (map[model.Weekday][]model.TimeSlot, error) {
	doc, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		return nil, lookupErr("doctor", err)
	}
	return model.GroupSchedule(doc.Schedules), nil
}

// SetWeeklySchedule replaces the doctor's whole template. Doctors may only
// edit their own; staff and admins may edit any.
func (s *Service) SetWeeklySchedule(ctx context.Context, p model.Principal, doctorID uuid.UUID, schedule model.WeeklySchedule) (map[model.Weekday][]model.TimeSlot, error) {
	doc, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		return nil, lookupErr("doctor", err)
	}
	if !p.Role.IsElevated() && !(p.Role == model.RoleDoctor && doc.UserID == p.UserID) {
		return nil, apperrors.Forbidden("you may only change your own schedule")
	}

	entries, err := schedule.Flatten()
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if err := s.doctors.ReplaceSchedule(ctx, doc.ID, entries); err != nil {
		return nil, lookupErr("doctor", err)
	}

	labels := make([]string, len(entries))
	for i, e := range entries {
		labels[i] = e.String()
	}
	s.audit(ctx, p, model.AuditScheduleUpdated, doc.ID,
		fmt.Sprintf("schedule for Dr. %s set to [%s]", doc.Name, strings.Join(labels, ", ")))
	return model.GroupSchedule(entries), nil
}

// SetOwnSchedule is SetWeeklySchedule for the doctor behind p.
func (s *Service) SetOwnSchedule(ctx context.Context, p model.Principal, schedule model.WeeklySchedule) (map[model.Weekday][]model.TimeSlot, error) {
	if p.Role != model.RoleDoctor {
		return nil, apperrors.Forbidden("only doctors have a schedule")
	}
	doc, err := s.doctorOf(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.SetWeeklySchedule(ctx, p, doc.ID, schedule)
}
