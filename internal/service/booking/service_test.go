package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

const (
	monday  = "2030-01-07"
	tuesday = "2030-01-08"
)

type recordingAuditor struct {
	mu      sync.Mutex
	actions []model.AuditAction
}

func (r *recordingAuditor) Log(_ context.Context, _ model.Principal, action model.AuditAction, _ *uuid.UUID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []messaging.EventType
	err    error
}

func (r *recordingNotifier) AppointmentChanged(_ context.Context, t messaging.EventType, _ *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, t)
	return r.err
}

type fixture struct {
	svc      *Service
	store    *repository.Store
	auditor  *recordingAuditor
	notifier *recordingNotifier
	metrics  *metrics.Metrics
	doctor   *model.Doctor
	docUser  model.Principal
	alice    model.Principal
	bob      model.Principal
	staff    model.Principal
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	docUser := &model.User{FirstName: "Gregory", LastName: "House", Email: "house@clinic.test", Role: model.RoleDoctor}
	doc := &model.Doctor{IsActive: true, Schedules: []model.ScheduleEntry{
		{Day: "Monday", Slot: "09:00 AM"},
		{Day: "Monday", Slot: "10:00 AM"},
	}}
	require.NoError(t, store.Doctors.CreateWithUser(ctx, docUser, doc))

	mkUser := func(first, email string, role model.Role) model.Principal {
		u := &model.User{FirstName: first, LastName: "Test", Email: email, Role: role, Phone: "555-0100"}
		require.NoError(t, store.Users.Create(ctx, u))
		return u.Principal()
	}

	f := &fixture{
		store:    store,
		auditor:  &recordingAuditor{},
		notifier: &recordingNotifier{},
		metrics:  metrics.New("test"),
		doctor:   doc,
		docUser:  docUser.Principal(),
		alice:    mkUser("Alice", "alice@example.com", model.RolePatient),
		bob:      mkUser("Bob", "bob@example.com", model.RolePatient),
		staff:    mkUser("Sam", "sam@clinic.test", model.RoleStaff),
	}
	f.svc = NewService(store, f.auditor, f.notifier, f.metrics, cfg).
		WithClock(func() time.Time { return time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC) })
	return f
}

func defaultConfig() Config {
	return Config{EnforceTemplate: true}
}

func (f *fixture) book(t *testing.T, p model.Principal, date, slot string) (*model.Appointment, error) {
	t.Helper()
	return f.svc.CreateAppointment(context.Background(), p, model.CreateAppointmentRequest{
		DoctorID: f.doctor.ID.String(),
		Date:     date,
		Time:     slot,
		Reason:   "checkup",
	})
}

func TestCreateThenRebookConflicts(t *testing.T) {
	f := newFixture(t, defaultConfig())

	a, err := f.book(t, f.alice, monday, "09:00 AM")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, a.Status)
	assert.Equal(t, "Gregory House", a.DoctorName)
	assert.Equal(t, "Alice Test", a.PatientSnapshot.Name)
	assert.Equal(t, "alice@example.com", a.PatientSnapshot.Email)
	assert.Equal(t, "555-0100", a.PatientSnapshot.Phone)
	require.NotNil(t, a.UserID)
	assert.Equal(t, f.alice.UserID, *a.UserID)

	_, err = f.book(t, f.bob, monday, "9:00 am")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.Contains(t, err.Error(), "Gregory House")
	assert.Contains(t, err.Error(), "09:00 AM")
	assert.Contains(t, err.Error(), monday)

	assert.Equal(t, []model.AuditAction{model.AuditAppointmentCreated}, f.auditor.actions)
	assert.Equal(t, []messaging.EventType{messaging.EventAppointmentCreated}, f.notifier.events)
}

func TestConcurrentBookingSingleWinner(t *testing.T) {
	f := newFixture(t, defaultConfig())
	patients := []model.Principal{f.alice, f.bob}

	const n = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, clash int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(p model.Principal) {
			defer wg.Done()
			_, err := f.book(t, p, monday, "10:00 AM")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if apperrors.Is(err, apperrors.ErrConflict) {
				clash++
			}
		}(patients[i%2])
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, clash)

	booked, err := f.svc.BookedTimes(context.Background(), f.doctor.ID, monday)
	require.NoError(t, err)
	assert.Equal(t, []model.TimeSlot{"10:00 AM"}, booked)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	cases := []struct {
		name  string
		req   model.CreateAppointmentRequest
		field string
		msg   string
	}{
		{"missing date", model.CreateAppointmentRequest{DoctorID: f.doctor.ID.String(), Time: "09:00 AM"}, "date", "date is required"},
		{"bad date", model.CreateAppointmentRequest{DoctorID: f.doctor.ID.String(), Date: "07/01/2030", Time: "09:00 AM"}, "date", "date must be a date in YYYY-MM-DD format"},
		{"missing time", model.CreateAppointmentRequest{DoctorID: f.doctor.ID.String(), Date: monday}, "time", "time is required"},
		{"off-menu time", model.CreateAppointmentRequest{DoctorID: f.doctor.ID.String(), Date: monday, Time: "12:00 PM"}, "time", "time must be one of the clinic time slots"},
		{"missing doctor", model.CreateAppointmentRequest{Date: monday, Time: "09:00 AM"}, "doctor", "doctor is required"},
		{"past date", model.CreateAppointmentRequest{DoctorID: f.doctor.ID.String(), Date: "2029-12-31", Time: "09:00 AM"}, "date", "date must not be in the past"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateAppointment(ctx, f.alice, tc.req)
			appErr, ok := apperrors.As(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, apperrors.ErrValidation, appErr.Code)
			assert.Equal(t, tc.field, appErr.Field)
			assert.Equal(t, tc.msg, appErr.Message)
		})
	}

	all, err := f.store.Appointments.List(ctx, model.AppointmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, all, "nothing persisted")
}

func TestCreateOutsideTemplate(t *testing.T) {
	f := newFixture(t, defaultConfig())
	_, err := f.book(t, f.alice, tuesday, "09:00 AM")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
	assert.Contains(t, err.Error(), "Tuesday")

	relaxed := newFixture(t, Config{EnforceTemplate: false, AllowPastDates: true})
	_, err = relaxed.book(t, relaxed.alice, tuesday, "09:00 AM")
	assert.NoError(t, err)
	_, err = relaxed.book(t, relaxed.alice, "2020-01-06", "09:00 AM")
	assert.NoError(t, err)
}

func TestCreateByDoctorName(t *testing.T) {
	f := newFixture(t, defaultConfig())
	a, err := f.svc.CreateAppointment(context.Background(), f.alice, model.CreateAppointmentRequest{
		DoctorName: "Dr. Gregory House",
		Date:       monday,
		Time:       "10:00 AM",
	})
	require.NoError(t, err)
	assert.Equal(t, f.doctor.ID, a.DoctorID)

	_, err = f.svc.CreateAppointment(context.Background(), f.alice, model.CreateAppointmentRequest{
		DoctorName: "Dr. Nobody",
		Date:       monday,
		Time:       "10:00 AM",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestStaffBooksWalkIn(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	_, err := f.svc.CreateAppointment(ctx, f.staff, model.CreateAppointmentRequest{
		DoctorID: f.doctor.ID.String(), Date: monday, Time: "09:00 AM",
	})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "patientName", appErr.Field)

	a, err := f.svc.CreateAppointment(ctx, f.staff, model.CreateAppointmentRequest{
		DoctorID: f.doctor.ID.String(), Date: monday, Time: "09:00 AM",
		PatientName: "Walk In", PatientEmail: "Walk@In.test",
	})
	require.NoError(t, err)
	assert.Nil(t, a.UserID)
	assert.Equal(t, "walk@in.test", a.PatientSnapshot.Email)
	assert.Equal(t, f.staff.UserID, a.CreatedBy)

	b, err := f.svc.CreateAppointment(ctx, f.staff, model.CreateAppointmentRequest{
		DoctorID: f.doctor.ID.String(), Date: monday, Time: "10:00 AM",
		PatientUserID: f.bob.UserID.String(),
	})
	require.NoError(t, err)
	require.NotNil(t, b.UserID)
	assert.Equal(t, f.bob.UserID, *b.UserID)
	assert.Equal(t, "Bob Test", b.PatientSnapshot.Name)
}

func TestDoctorCannotBook(t *testing.T) {
	f := newFixture(t, defaultConfig())
	_, err := f.book(t, f.docUser, monday, "09:00 AM")
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestInactiveDoctor(t *testing.T) {
	f := newFixture(t, defaultConfig())
	u := &model.User{FirstName: "Retired", LastName: "Doc", Email: "retired@clinic.test", Role: model.RoleDoctor}
	doc := &model.Doctor{IsActive: false, Schedules: []model.ScheduleEntry{{Day: "Monday", Slot: "09:00 AM"}}}
	require.NoError(t, f.store.Doctors.CreateWithUser(context.Background(), u, doc))

	_, err := f.svc.CreateAppointment(context.Background(), f.alice, model.CreateAppointmentRequest{
		DoctorID: doc.ID.String(), Date: monday, Time: "09:00 AM",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestPublishFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.notifier.err = errors.New("broker down")
	_, err := f.book(t, f.alice, monday, "09:00 AM")
	assert.NoError(t, err)
}

func TestListAvailableSlots(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	_, err := f.book(t, f.alice, monday, "09:00 AM")
	require.NoError(t, err)

	first, err := f.svc.ListAvailableSlots(ctx, f.doctor.ID, monday)
	require.NoError(t, err)
	assert.False(t, first.Unavailable)
	assert.Equal(t, model.Weekday("Monday"), first.DayOfWeek)
	assert.Equal(t, []model.SlotAvailability{
		{Time: "09:00 AM", Available: false},
		{Time: "10:00 AM", Available: true},
	}, first.Slots)

	second, err := f.svc.ListAvailableSlots(ctx, f.doctor.ID, monday)
	require.NoError(t, err)
	assert.Equal(t, first, second, "idempotent")
}

func TestListAvailableSlotsUnavailableDay(t *testing.T) {
	f := newFixture(t, defaultConfig())
	av, err := f.svc.ListAvailableSlots(context.Background(), f.doctor.ID, tuesday)
	require.NoError(t, err)
	assert.True(t, av.Unavailable)
	assert.Empty(t, av.Slots)
}

func TestListAvailableSlotsAllowsPastDates(t *testing.T) {
	f := newFixture(t, defaultConfig())
	_, err := f.svc.ListAvailableSlots(context.Background(), f.doctor.ID, "2020-01-06")
	assert.NoError(t, err)
}

func TestListAvailableSlotsUnknownDoctor(t *testing.T) {
	f := newFixture(t, defaultConfig())
	_, err := f.svc.ListAvailableSlots(context.Background(), uuid.New(), monday)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	a, err := f.book(t, f.alice, monday, "09:00 AM")
	require.NoError(t, err)

	_, err = f.svc.CancelAppointment(ctx, f.bob, a.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden), "other patient")

	cancelled, err := f.svc.CancelAppointment(ctx, f.alice, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)

	av, err := f.svc.ListAvailableSlots(ctx, f.doctor.ID, monday)
	require.NoError(t, err)
	assert.True(t, av.Slots[0].Available)

	_, err = f.book(t, f.bob, monday, "09:00 AM")
	assert.NoError(t, err, "slot bookable again")

	again, err := f.svc.CancelAppointment(ctx, f.alice, a.ID)
	require.NoError(t, err, "cancelling twice is a no-op")
	assert.Equal(t, model.AppointmentStatusCancelled, again.Status)

	stored, err := f.store.Appointments.Get(ctx, a.ID)
	require.NoError(t, err, "soft cancel keeps the row")
	assert.Equal(t, model.AppointmentStatusCancelled, stored.Status)
}

func TestCancelByDoctorAndStaff(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	a, err := f.book(t, f.alice, monday, "09:00 AM")
	require.NoError(t, err)
	_, err = f.svc.CancelAppointment(ctx, f.docUser, a.ID)
	assert.NoError(t, err)

	b, err := f.book(t, f.alice, monday, "10:00 AM")
	require.NoError(t, err)
	_, err = f.svc.CancelAppointment(ctx, f.staff, b.ID)
	assert.NoError(t, err)
}

func TestCancelCompletedConflicts(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	a, err := f.book(t, f.alice, monday, "09:00 AM")
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.docUser, a.ID, "Completed")
	require.NoError(t, err)

	_, err = f.svc.CancelAppointment(ctx, f.alice, a.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestUpdateStatusRules(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	a, err := f.book(t, f.alice, monday, "09:00 AM")
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.alice, a.ID, "Completed")
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden), "patients cannot complete")

	_, err = f.svc.UpdateStatus(ctx, f.staff, a.ID, "Pending")
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	same, err := f.svc.UpdateStatus(ctx, f.staff, a.ID, "scheduled")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, same.Status)

	done, err := f.svc.UpdateStatus(ctx, f.staff, a.ID, "Completed")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, done.Status)

	_, err = f.svc.UpdateStatus(ctx, f.staff, a.ID, "Scheduled")
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict), "no way back to Scheduled")

	b, err := f.book(t, f.alice, monday, "10:00 AM")
	require.NoError(t, err)
	cancelled, err := f.svc.UpdateStatus(ctx, f.alice, b.ID, "Cancelled")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
}

func TestToggleArchive(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	a, err := f.book(t, f.alice, monday, "09:00 AM")
	require.NoError(t, err)

	_, err = f.svc.ToggleArchive(ctx, f.alice, a.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	on, err := f.svc.ToggleArchive(ctx, f.staff, a.ID)
	require.NoError(t, err)
	assert.True(t, on.IsArchived)
	off, err := f.svc.ToggleArchive(ctx, f.staff, a.ID)
	require.NoError(t, err)
	assert.False(t, off.IsArchived)
}

func TestListAppointmentsScoped(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	_, err := f.book(t, f.alice, monday, "09:00 AM")
	require.NoError(t, err)
	_, err = f.book(t, f.bob, monday, "10:00 AM")
	require.NoError(t, err)

	mine, err := f.svc.ListAppointments(ctx, f.alice, model.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Alice Test", mine[0].PatientSnapshot.Name)

	docs, err := f.svc.ListAppointments(ctx, f.docUser, model.AppointmentFilter{})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	all, err := f.svc.ListAppointments(ctx, f.staff, model.AppointmentFilter{Date: monday})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.GetAppointment(ctx, f.bob, mine[0].ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestSetWeeklyScheduleReplaces(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	s1 := model.WeeklySchedule{{DayOfWeek: "Monday", TimeSlots: []string{"09:00 AM", "10:00 AM"}}}
	_, err := f.svc.SetOwnSchedule(ctx, f.docUser, s1)
	require.NoError(t, err)

	s2 := model.WeeklySchedule{{DayOfWeek: "Monday", TimeSlots: []string{"02:00 PM"}}}
	grouped, err := f.svc.SetWeeklySchedule(ctx, f.staff, f.doctor.ID, s2)
	require.NoError(t, err)
	assert.Equal(t, map[model.Weekday][]model.TimeSlot{"Monday": {"02:00 PM"}}, grouped)

	av, err := f.svc.ListAvailableSlots(ctx, f.doctor.ID, monday)
	require.NoError(t, err)
	assert.Equal(t, []model.SlotAvailability{{Time: "02:00 PM", Available: true}}, av.Slots)

	weekly, err := f.svc.GetWeeklySchedule(ctx, f.doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, grouped, weekly)
}

func TestSetWeeklyScheduleRejectsUnknownSlots(t *testing.T) {
	f := newFixture(t, defaultConfig())
	_, err := f.svc.SetOwnSchedule(context.Background(), f.docUser,
		model.WeeklySchedule{{DayOfWeek: "Monday", TimeSlots: []string{"<img src=x>"}}})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	weekly, err := f.svc.GetWeeklySchedule(context.Background(), f.doctor.ID)
	require.NoError(t, err)
	assert.Len(t, weekly["Monday"], 2, "unchanged")
}

func TestSetWeeklyScheduleAuthorization(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	s := model.WeeklySchedule{{DayOfWeek: "Friday", TimeSlots: []string{"08:00 AM"}}}

	_, err := f.svc.SetWeeklySchedule(ctx, f.alice, f.doctor.ID, s)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	_, err = f.svc.SetOwnSchedule(ctx, f.alice, s)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	other := &model.User{FirstName: "Other", LastName: "Doc", Email: "other@clinic.test", Role: model.RoleDoctor}
	require.NoError(t, f.store.Doctors.CreateWithUser(ctx, other, &model.Doctor{IsActive: true}))
	_, err = f.svc.SetWeeklySchedule(ctx, other.Principal(), f.doctor.ID, s)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}
