package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

func seedDoctor(t *testing.T, s *repository.Store) *model.Doctor {
	t.Helper()
	user := &model.User{FirstName: "Gregory", LastName: "House", Email: "house@clinic.test", Role: model.RoleDoctor}
	doc := &model.Doctor{IsActive: true, Schedules: []model.ScheduleEntry{
		{Day: "Monday", Slot: "10:00 AM"},
		{Day: "Monday", Slot: "09:00 AM"},
	}}
	require.NoError(t, s.Doctors.CreateWithUser(context.Background(), user, doc))
	return doc
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	s := New()
	doc := seedDoctor(t, s)
	ctx := context.Background()

	const n = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dupes     int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Appointments.Create(ctx, &model.Appointment{
				DoctorID: doc.ID, DoctorName: doc.Name,
				Date: "2030-01-07", Time: "09:00 AM",
				Status: model.AppointmentStatusScheduled,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, repository.ErrDuplicate):
				dupes++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, dupes)

	all, err := s.Appointments.List(ctx, model.AppointmentFilter{DoctorID: doc.ID})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCancelFreesSlot(t *testing.T) {
	s := New()
	doc := seedDoctor(t, s)
	ctx := context.Background()

	first := &model.Appointment{DoctorID: doc.ID, Date: "2030-01-07", Time: "09:00 AM", Status: model.AppointmentStatusScheduled}
	require.NoError(t, s.Appointments.Create(ctx, first))

	booked, err := s.Appointments.BookedTimes(ctx, doc.ID, "2030-01-07")
	require.NoError(t, err)
	assert.Equal(t, []model.TimeSlot{"09:00 AM"}, booked)

	require.NoError(t, s.Appointments.UpdateStatus(ctx, first.ID, model.AppointmentStatusCancelled))

	booked, err = s.Appointments.BookedTimes(ctx, doc.ID, "2030-01-07")
	require.NoError(t, err)
	assert.Empty(t, booked)

	_, err = s.Appointments.FindActiveBySlot(ctx, first.Slot())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	second := &model.Appointment{DoctorID: doc.ID, Date: "2030-01-07", Time: "09:00 AM", Status: model.AppointmentStatusScheduled}
	require.NoError(t, s.Appointments.Create(ctx, second))
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateAppointmentUnknownDoctor(t *testing.T) {
	s := New()
	err := s.Appointments.Create(context.Background(), &model.Appointment{DoctorID: uuid.New(), Date: "2030-01-07", Time: "09:00 AM", Status: model.AppointmentStatusScheduled})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReplaceScheduleOverwrites(t *testing.T) {
	s := New()
	doc := seedDoctor(t, s)
	ctx := context.Background()

	got, err := s.Doctors.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.ScheduleEntry{{Day: "Monday", Slot: "09:00 AM"}, {Day: "Monday", Slot: "10:00 AM"}}, got.Schedules)

	require.NoError(t, s.Doctors.ReplaceSchedule(ctx, doc.ID, []model.ScheduleEntry{{Day: "Friday", Slot: "02:00 PM"}}))
	got, err = s.Doctors.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.ScheduleEntry{{Day: "Friday", Slot: "02:00 PM"}}, got.Schedules)

	assert.ErrorIs(t, s.Doctors.ReplaceSchedule(ctx, uuid.New(), nil), repository.ErrNotFound)
}

func TestDoctorLookups(t *testing.T) {
	s := New()
	doc := seedDoctor(t, s)
	ctx := context.Background()

	byName, err := s.Doctors.GetByName(ctx, "gregory house")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, byName.ID)

	byUser, err := s.Doctors.GetByUserID(ctx, doc.UserID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, byUser.ID)
}

func TestGetByNamePrefersOldestDoctor(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i, email := range []string{"c@clinic.test", "a@clinic.test", "b@clinic.test"} {
		user := &model.User{FirstName: "Pat", LastName: "Lee", Email: email, Role: model.RoleDoctor}
		doc := &model.Doctor{IsActive: true}
		// Second doctor registered first.
		offset := []int{2, 0, 1}[i]
		doc.CreatedAt = base.Add(time.Duration(offset) * time.Hour)
		require.NoError(t, s.Doctors.CreateWithUser(ctx, user, doc))
		ids = append(ids, doc.ID)
	}

	for i := 0; i < 5; i++ {
		got, err := s.Doctors.GetByName(ctx, "Pat Lee")
		require.NoError(t, err)
		assert.Equal(t, ids[1], got.ID)
	}
}

func TestUserEmailUnique(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Users.Create(ctx, &model.User{Email: "A@Example.com", Role: model.RolePatient}))
	err := s.Users.Create(ctx, &model.User{Email: "a@example.com ", Role: model.RolePatient})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	u, err := s.Users.GetByEmail(ctx, "A@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)
}

func TestPatientRecordCreatedOnce(t *testing.T) {
	s := New()
	ctx := context.Background()
	user := &model.User{Email: "p@example.com", Role: model.RolePatient}
	require.NoError(t, s.Users.Create(ctx, user))

	first, err := s.PatientRecords.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	second, err := s.PatientRecords.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	entry := &model.ConsultationEntry{RecordID: first.ID, Date: "2030-01-07", Complaint: "cough"}
	require.NoError(t, s.PatientRecords.AddConsultation(ctx, entry))

	rec, err := s.PatientRecords.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, rec.ConsultationHistory, 1)
	assert.Equal(t, "cough", rec.ConsultationHistory[0].Complaint)

	_, err = s.PatientRecords.GetOrCreate(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
