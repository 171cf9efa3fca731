package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

// Doctors

type doctorRepo struct{ d *db }

func (r *doctorRepo) hydrate(doc model.Doctor) *model.Doctor {
	doc.Schedules = append([]model.ScheduleEntry(nil), doc.Schedules...)
	if doc.SpecializationID != nil {
		if s, ok := r.d.specializations[*doc.SpecializationID]; ok {
			doc.SpecializationName = s.Name
		}
	}
	return &doc
}

func (r *doctorRepo) CreateWithUser(ctx context.Context, user *model.User, doctor *model.Doctor) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if doctor.SpecializationID != nil {
		if _, ok := r.d.specializations[*doctor.SpecializationID]; !ok {
			return repository.ErrNotFound
		}
	}
	users := &userRepo{r.d}
	if err := users.insert(user); err != nil {
		return err
	}
	doctor.UserID = user.ID
	if doctor.Name == "" {
		doctor.Name = user.DisplayName()
	}
	doctor.Touch(r.d.now())
	model.SortScheduleEntries(doctor.Schedules)
	stored := *doctor
	stored.Schedules = append([]model.ScheduleEntry(nil), doctor.Schedules...)
	r.d.doctors[doctor.ID] = stored
	return nil
}

func (r *doctorRepo) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	doc, ok := r.d.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.hydrate(doc), nil
}

func (r *doctorRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	for _, doc := range r.d.doctors {
		if doc.UserID == userID {
			return r.hydrate(doc), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *doctorRepo) GetByName(ctx context.Context, name string) (*model.Doctor, error) {
	name = strings.TrimSpace(name)
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	// Shared names resolve to the longest-registered doctor.
	var found *model.Doctor
	for id := range r.d.doctors {
		doc := r.d.doctors[id]
		if !strings.EqualFold(doc.Name, name) {
			continue
		}
		if found == nil || doc.CreatedAt.Before(found.CreatedAt) {
			found = &doc
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return r.hydrate(*found), nil
}

func (r *doctorRepo) List(ctx context.Context, filter model.DoctorFilter) ([]*model.Doctor, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var out []*model.Doctor
	for _, doc := range r.d.doctors {
		if filter.ActiveOnly && !doc.IsActive {
			continue
		}
		if filter.SpecializationID != uuid.Nil && (doc.SpecializationID == nil || *doc.SpecializationID != filter.SpecializationID) {
			continue
		}
		out = append(out, r.hydrate(doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *doctorRepo) ReplaceSchedule(ctx context.Context, doctorID uuid.UUID, entries []model.ScheduleEntry) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	doc, ok := r.d.doctors[doctorID]
	if !ok {
		return repository.ErrNotFound
	}
	doc.Schedules = append([]model.ScheduleEntry(nil), entries...)
	model.SortScheduleEntries(doc.Schedules)
	doc.UpdatedAt = r.d.now()
	r.d.doctors[doctorID] = doc
	return nil
}

// Appointments

type appointmentRepo struct{ d *db }

// Create performs the slot check and the insert under one write lock, the
// in-memory counterpart of the partial unique index.
func (r *appointmentRepo) Create(ctx context.Context, a *model.Appointment) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	if _, ok := r.d.doctors[a.DoctorID]; !ok {
		return repository.ErrNotFound
	}
	if a.OccupiesSlot() {
		if _, taken := r.d.activeSlots[a.Slot()]; taken {
			return repository.ErrDuplicate
		}
	}
	a.Touch(r.d.now())
	r.d.appointments[a.ID] = *a
	if a.OccupiesSlot() {
		r.d.activeSlots[a.Slot()] = a.ID
	}
	return nil
}

func (r *appointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	a, ok := r.d.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *appointmentRepo) FindActiveBySlot(ctx context.Context, slot model.SlotKey) (*model.Appointment, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	id, ok := r.d.activeSlots[slot]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a := r.d.appointments[id]
	return &a, nil
}

func (r *appointmentRepo) BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]model.TimeSlot, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	out := []model.TimeSlot{}
	for key := range r.d.activeSlots {
		if key.DoctorID == doctorID && key.Date == date {
			out = append(out, key.Time)
		}
	}
	model.SortTimeSlots(out)
	return out, nil
}

func (r *appointmentRepo) List(ctx context.Context, f model.AppointmentFilter) ([]*model.Appointment, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var out []*model.Appointment
	for _, a := range r.d.appointments {
		switch {
		case f.DoctorID != uuid.Nil && a.DoctorID != f.DoctorID,
			f.UserID != uuid.Nil && !a.OwnedBy(f.UserID),
			f.Date != "" && a.Date != f.Date,
			f.Status != "" && a.Status != f.Status,
			f.Archived != nil && a.IsArchived != *f.Archived:
			continue
		}
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time.Before(out[j].Time)
	})
	return page(out, f.Pagination), nil
}

func (r *appointmentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	a, ok := r.d.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	wasActive := a.OccupiesSlot()
	a.Status = status
	if !wasActive && a.OccupiesSlot() {
		if _, taken := r.d.activeSlots[a.Slot()]; taken {
			return repository.ErrDuplicate
		}
		r.d.activeSlots[a.Slot()] = a.ID
	}
	if wasActive && !a.OccupiesSlot() {
		delete(r.d.activeSlots, a.Slot())
	}
	a.UpdatedAt = r.d.now()
	r.d.appointments[id] = a
	return nil
}

func (r *appointmentRepo) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	a, ok := r.d.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.IsArchived = archived
	a.UpdatedAt = r.d.now()
	r.d.appointments[id] = a
	return nil
}
