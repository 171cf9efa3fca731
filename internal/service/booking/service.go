package booking

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
	"github.com/jwalitptl/clinic-api/internal/service/notification"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// Auditor records who changed what.
type Auditor interface {
	Log(ctx context.Context, actor model.Principal, action model.AuditAction, target *uuid.UUID, details string) error
}

type Config struct {
	AllowPastDates  bool
	EnforceTemplate bool
}

type Service struct {
	appointments repository.AppointmentRepository
	doctors      repository.DoctorRepository
	specs        repository.SpecializationRepository
	users        repository.UserRepository
	auditor      Auditor
	notifier     notification.Service
	metrics      *metrics.Metrics
	cfg          Config
	now          func() time.Time
}

func NewService(store *repository.Store, auditor Auditor, notifier notification.Service, m *metrics.Metrics, cfg Config) *Service {
	if notifier == nil {
		notifier = notification.Discard
	}
	if m == nil {
		m = metrics.New("clinic")
	}
	return &Service{
		appointments: store.Appointments,
		doctors:      store.Doctors,
		specs:        store.Specializations,
		users:        store.Users,
		auditor:      auditor,
		notifier:     notifier,
		metrics:      m,
		cfg:          cfg,
		now:          time.Now,
	}
}

// WithClock replaces the clock used for past-date checks.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func lookupErr(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return apperrors.Internal(err)
}

func conflictErr(doctorName string, slot model.TimeSlot, date string) error {
	return apperrors.Conflict(fmt.Sprintf("Dr. %s is already booked at %s on %s", doctorName, slot, date), nil)
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, apperrors.FieldRequired("date")
	}
	d, err := time.Parse(model.DateLayout, raw)
	if err != nil {
		return time.Time{}, apperrors.InvalidField("date", "must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

func parseSlot(raw string) (model.TimeSlot, error) {
	if strings.TrimSpace(raw) == "" {
		return "", apperrors.FieldRequired("time")
	}
	slot, err := model.ParseTimeSlot(raw)
	if err != nil {
		return "", apperrors.InvalidField("time", "must be one of the clinic time slots")
	}
	return slot, nil
}

func (s *Service) audit(ctx context.Context, actor model.Principal, action model.AuditAction, target uuid.UUID, details string) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Log(ctx, actor, action, &target, details); err != nil {
		log.Warn().Err(err).Str("action", string(action)).Msg("Failed to write audit log")
	}
}

func (s *Service) notify(ctx context.Context, t messaging.EventType, a *model.Appointment) {
	if err := s.notifier.AppointmentChanged(ctx, t, a); err != nil {
		log.Warn().Err(err).
			Str("event", string(t)).
			Str("appointment_id", a.ID.String()).
			Msg("Failed to publish appointment event")
	}
}

// resolveDoctor accepts a doctor id or, for legacy form posts, a name.
func (s *Service) resolveDoctor(ctx context.Context, id, name string) (*model.Doctor, error) {
	switch {
	case strings.TrimSpace(id) != "":
		doctorID, err := uuid.Parse(strings.TrimSpace(id))
		if err != nil {
			return nil, apperrors.InvalidField("doctor", "must be a valid id")
		}
		doc, err := s.doctors.Get(ctx, doctorID)
		if err != nil {
			return nil, lookupErr("doctor", err)
		}
		return doc, nil
	case strings.TrimSpace(name) != "":
		name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "Dr. "))
		doc, err := s.doctors.GetByName(ctx, name)
		if err != nil {
			return nil, lookupErr("doctor", err)
		}
		return doc, nil
	default:
		return nil, apperrors.FieldRequired("doctor")
	}
}

func (s *Service) doctorOf(ctx context.Context, p model.Principal) (*model.Doctor, error) {
	doc, err := s.doctors.GetByUserID(ctx, p.UserID)
	if err != nil {
		return nil, lookupErr("doctor profile", err)
	}
	return doc, nil
}

// patientSnapshot copies the booking patient's identity onto the appointment.
func (s *Service) patientSnapshot(ctx context.Context, p model.Principal, req model.CreateAppointmentRequest) (model.PatientSnapshot, *uuid.UUID, error) {
	snap := model.PatientSnapshot{
		Address: strings.TrimSpace(req.Address),
		Age:     req.Age,
		Phone:   strings.TrimSpace(req.Phone),
	}

	var owner *model.User
	switch {
	case p.Role == model.RolePatient:
		u, err := s.users.Get(ctx, p.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return snap, nil, apperrors.Unauthorized("account no longer exists", err)
			}
			return snap, nil, apperrors.Internal(err)
		}
		owner = u
	case req.PatientUserID != "":
		id, err := uuid.Parse(req.PatientUserID)
		if err != nil {
			return snap, nil, apperrors.InvalidField("patientUserId", "must be a valid id")
		}
		u, err := s.users.Get(ctx, id)
		if err != nil {
			return snap, nil, lookupErr("patient", err)
		}
		owner = u
	default:
		snap.Name = strings.TrimSpace(req.PatientName)
		if snap.Name == "" {
			return snap, nil, apperrors.FieldRequired("patientName")
		}
		snap.Email = model.NormalizeEmail(req.PatientEmail)
		return snap, nil, nil
	}

	snap.Name = owner.DisplayName()
	snap.Email = owner.Email
	if snap.Address == "" {
		snap.Address = owner.Address
	}
	if snap.Phone == "" {
		snap.Phone = owner.Phone
	}
	id := owner.ID
	return snap, &id, nil
}

// CreateAppointment books a slot. The friendly pre-check avoids a write in
// the common case; the store's uniqueness rule settles races.
func (s *Service) CreateAppointment(ctx context.Context, p model.Principal, req model.CreateAppointmentRequest) (*model.Appointment, error) {
	if p.Role == model.RoleDoctor {
		return nil, apperrors.Forbidden("doctors cannot book appointments")
	}

	day, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	slot, err := parseSlot(req.Time)
	if err != nil {
		return nil, err
	}
	date := day.Format(model.DateLayout)

	doc, err := s.resolveDoctor(ctx, req.DoctorID, req.DoctorName)
	if err != nil {
		return nil, err
	}
	if !doc.IsActive {
		return nil, apperrors.Validation(fmt.Sprintf("Dr. %s is not accepting appointments", doc.Name))
	}

	if !s.cfg.AllowPastDates && date < s.now().Format(model.DateLayout) {
		return nil, apperrors.InvalidField("date", "must not be in the past")
	}
	weekday := model.WeekdayOf(day)
	if s.cfg.EnforceTemplate && !doc.IsAvailable(weekday, slot) {
		return nil, apperrors.Validation(fmt.Sprintf("doctor is not available on %s at %s", weekday, slot))
	}

	snap, owner, err := s.patientSnapshot(ctx, p, req)
	if err != nil {
		return nil, err
	}

	key := model.SlotKey{DoctorID: doc.ID, Date: date, Time: slot}
	if _, err := s.appointments.FindActiveBySlot(ctx, key); err == nil {
		s.metrics.BookingConflicts.Inc()
		return nil, conflictErr(doc.Name, slot, date)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	specialization := strings.TrimSpace(req.Specialization)
	if specialization == "" {
		specialization = doc.SpecializationName
	}
	a := &model.Appointment{
		DoctorID:        doc.ID,
		DoctorName:      doc.Name,
		Specialization:  specialization,
		Date:            date,
		Time:            slot,
		PatientSnapshot: snap,
		Reason:          strings.TrimSpace(req.Reason),
		Status:          model.AppointmentStatusScheduled,
		UserID:          owner,
		CreatedBy:       p.UserID,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			s.metrics.BookingConflicts.Inc()
			return nil, conflictErr(doc.Name, slot, date)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.metrics.AppointmentsCreated.Inc()
	s.audit(ctx, p, model.AuditAppointmentCreated, a.ID,
		fmt.Sprintf("booked Dr. %s at %s on %s for %s", a.DoctorName, a.Time, a.Date, a.PatientSnapshot.Name))
	s.notify(ctx, messaging.EventAppointmentCreated, a)

	log.Info().
		Str("appointment_id", a.ID.String()).
		Str("doctor_id", doc.ID.String()).
		Str("date", date).
		Str("time", string(slot)).
		Msg("Appointment booked")
	return a, nil
}

// ListAvailableSlots annotates the doctor's template for date's weekday
// with booking state. Booked slots stay listed as unavailable.
func (s *Service) ListAvailableSlots(ctx context.Context, doctorID uuid.UUID, date string) (*model.Availability, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	doc, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		return nil, lookupErr("doctor", err)
	}

	weekday := model.WeekdayOf(day)
	out := &model.Availability{
		DoctorID:   doc.ID,
		DoctorName: doc.Name,
		Date:       day.Format(model.DateLayout),
		DayOfWeek:  weekday,
		Slots:      []model.SlotAvailability{},
	}
	template := model.SlotsOn(doc.Schedules, weekday)
	if len(template) == 0 {
		out.Unavailable = true
		return out, nil
	}

	booked, err := s.appointments.BookedTimes(ctx, doc.ID, out.Date)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	taken := make(map[model.TimeSlot]bool, len(booked))
	for _, t := range booked {
		taken[t] = true
	}
	for _, t := range template {
		out.Slots = append(out.Slots, model.SlotAvailability{Time: t, Available: !taken[t]})
	}
	return out, nil
}

// BookedTimes lists the slot labels already taken for a doctor and date.
func (s *Service) BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]model.TimeSlot, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	if _, err := s.doctors.Get(ctx, doctorID); err != nil {
		return nil, lookupErr("doctor", err)
	}
	times, err := s.appointments.BookedTimes(ctx, doctorID, day.Format(model.DateLayout))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return times, nil
}
