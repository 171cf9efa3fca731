package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
)

type relation int

const (
	relNone relation = iota
	relOwner
	relDoctor
	relStaff
)

// relationTo classifies how p relates to a.
func (s *Service) relationTo(ctx context.Context, p model.Principal, a *model.Appointment) (relation, error) {
	switch {
	case p.Role.IsElevated():
		return relStaff, nil
	case p.Role == model.RoleDoctor:
		doc, err := s.doctors.GetByUserID(ctx, p.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return relNone, nil
		}
		if err != nil {
			return relNone, apperrors.Internal(err)
		}
		if doc.ID == a.DoctorID {
			return relDoctor, nil
		}
	case a.OwnedBy(p.UserID):
		return relOwner, nil
	}
	return relNone, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, lookupErr("appointment", err)
	}
	return a, nil
}

func (s *Service) GetAppointment(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Appointment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	rel, err := s.relationTo(ctx, p, a)
	if err != nil {
		return nil, err
	}
	if rel == relNone {
		return nil, apperrors.Forbidden("you cannot view this appointment")
	}
	return a, nil
}

// ListAppointments scopes the filter to what p may see: patients their
// own bookings, doctors their own calendar, staff everything.
func (s *Service) ListAppointments(ctx context.Context, p model.Principal, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	switch {
	case p.Role.IsElevated():
	case p.Role == model.RoleDoctor:
		doc, err := s.doctorOf(ctx, p)
		if err != nil {
			return nil, err
		}
		filter.DoctorID = doc.ID
	default:
		filter.UserID = p.UserID
	}
	list, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return list, nil
}

// CancelAppointment soft-cancels: the row stays, the slot is freed.
func (s *Service) CancelAppointment(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Appointment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	rel, err := s.relationTo(ctx, p, a)
	if err != nil {
		return nil, err
	}
	if rel == relNone {
		return nil, apperrors.Forbidden("you cannot cancel this appointment")
	}
	return s.cancel(ctx, p, a)
}

func (s *Service) cancel(ctx context.Context, p model.Principal, a *model.Appointment) (*model.Appointment, error) {
	switch a.Status {
	case model.AppointmentStatusCancelled:
		return a, nil
	case model.AppointmentStatusCompleted:
		return nil, apperrors.Conflict("completed appointments cannot be cancelled", nil)
	}

	if err := s.appointments.UpdateStatus(ctx, a.ID, model.AppointmentStatusCancelled); err != nil {
		return nil, lookupErr("appointment", err)
	}
	a.Status = model.AppointmentStatusCancelled

	s.metrics.AppointmentsCancelled.Inc()
	s.audit(ctx, p, model.AuditAppointmentCancelled, a.ID,
		fmt.Sprintf("cancelled Dr. %s at %s on %s", a.DoctorName, a.Time, a.Date))
	s.notify(ctx, messaging.EventAppointmentCancelled, a)
	return a, nil
}

// UpdateStatus moves a Scheduled appointment to Completed or Cancelled.
// Patients may only cancel their own.
func (s *Service) UpdateStatus(ctx context.Context, p model.Principal, id uuid.UUID, raw string) (*model.Appointment, error) {
	status, err := model.ParseAppointmentStatus(raw)
	if err != nil {
		return nil, apperrors.InvalidField("status", "must be one of Scheduled, Completed, Cancelled")
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	rel, err := s.relationTo(ctx, p, a)
	if err != nil {
		return nil, err
	}
	switch {
	case rel == relNone:
		return nil, apperrors.Forbidden("you cannot change this appointment")
	case rel == relOwner && status != model.AppointmentStatusCancelled:
		return nil, apperrors.Forbidden("patients may only cancel appointments")
	}

	if status == a.Status {
		return a, nil
	}
	if status == model.AppointmentStatusCancelled {
		return s.cancel(ctx, p, a)
	}
	if a.Status != model.AppointmentStatusScheduled {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot change status from %s to %s", a.Status, status), nil)
	}

	if err := s.appointments.UpdateStatus(ctx, a.ID, status); err != nil {
		return nil, lookupErr("appointment", err)
	}
	prev := a.Status
	a.Status = status

	s.metrics.StatusChanges.WithLabelValues(string(status)).Inc()
	s.audit(ctx, p, model.AuditAppointmentStatusChanged, a.ID, fmt.Sprintf("status %s -> %s", prev, status))
	s.notify(ctx, messaging.EventAppointmentStatusChanged, a)
	return a, nil
}

// ToggleArchive flips the archived flag. Staff and admins only.
func (s *Service) ToggleArchive(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Appointment, error) {
	if !p.Role.IsElevated() {
		return nil, apperrors.Forbidden("only staff can archive appointments")
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.appointments.SetArchived(ctx, a.ID, !a.IsArchived); err != nil {
		return nil, lookupErr("appointment", err)
	}
	a.IsArchived = !a.IsArchived

	s.audit(ctx, p, model.AuditAppointmentArchived, a.ID, fmt.Sprintf("archived=%t", a.IsArchived))
	return a, nil
}
