// Package memory is a process-local repository backend with the same
// constraints as the SQL schema, including the one-active-booking-per-slot
// rule. It backs local runs and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type db struct {
	mu  sync.RWMutex
	now func() time.Time

	users           map[uuid.UUID]model.User
	specializations map[uuid.UUID]model.Specialization
	doctors         map[uuid.UUID]model.Doctor
	appointments    map[uuid.UUID]model.Appointment
	activeSlots     map[model.SlotKey]uuid.UUID
	records         map[uuid.UUID]model.PatientRecord
	consultations   map[uuid.UUID][]model.ConsultationEntry
	inventory       map[uuid.UUID]model.InventoryItem
	financial       []model.FinancialRecord
	audit           []model.AuditLog
}

// New returns an empty store.
func New() *repository.Store {
	d := &db{
		now:             time.Now,
		users:           make(map[uuid.UUID]model.User),
		specializations: make(map[uuid.UUID]model.Specialization),
		doctors:         make(map[uuid.UUID]model.Doctor),
		appointments:    make(map[uuid.UUID]model.Appointment),
		activeSlots:     make(map[model.SlotKey]uuid.UUID),
		records:         make(map[uuid.UUID]model.PatientRecord),
		consultations:   make(map[uuid.UUID][]model.ConsultationEntry),
		inventory:       make(map[uuid.UUID]model.InventoryItem),
	}
	return &repository.Store{
		Users:           &userRepo{d},
		Specializations: &specializationRepo{d},
		Doctors:         &doctorRepo{d},
		Appointments:    &appointmentRepo{d},
		PatientRecords:  &recordRepo{d},
		Inventory:       &inventoryRepo{d},
		Financial:       &financialRepo{d},
		AuditLogs:       &auditRepo{d},
		Ping:            func(context.Context) error { return nil },
	}
}

func page[T any](items []T, p model.Pagination) []T {
	p = p.Normalize()
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Users

type userRepo struct{ d *db }

func (r *userRepo) emailTaken(email string, except uuid.UUID) bool {
	for id, u := range r.d.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (r *userRepo) insert(user *model.User) error {
	user.Email = model.NormalizeEmail(user.Email)
	if r.emailTaken(user.Email, uuid.Nil) {
		return repository.ErrDuplicate
	}
	user.Touch(r.d.now())
	r.d.users[user.ID] = *user
	return nil
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return r.insert(user)
}

func (r *userRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	u, ok := r.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	for _, u := range r.d.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	existing, ok := r.d.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	user.Email = model.NormalizeEmail(user.Email)
	if r.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicate
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = r.d.now()
	r.d.users[user.ID] = *user
	return nil
}

func (r *userRepo) List(ctx context.Context, filter model.UserFilter) ([]*model.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	term := strings.ToLower(filter.SearchTerm)
	var out []*model.User
	for _, u := range r.d.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(u.DisplayName()+" "+u.Email), term) {
			continue
		}
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, filter.Pagination), nil
}

// Specializations

type specializationRepo struct{ d *db }

func (r *specializationRepo) Create(ctx context.Context, s *model.Specialization) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, existing := range r.d.specializations {
		if strings.EqualFold(existing.Name, s.Name) {
			return repository.ErrDuplicate
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.d.specializations[s.ID] = *s
	return nil
}

func (r *specializationRepo) Get(ctx context.Context, id uuid.UUID) (*model.Specialization, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	s, ok := r.d.specializations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *specializationRepo) List(ctx context.Context) ([]*model.Specialization, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	out := make([]*model.Specialization, 0, len(r.d.specializations))
	for _, s := range r.d.specializations {
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
