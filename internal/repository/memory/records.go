package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

// Patient records

type recordRepo struct{ d *db }

func (r *recordRepo) view(rec model.PatientRecord) *model.PatientRecord {
	rec.Allergies = append([]string{}, rec.Allergies...)
	rec.Conditions = append([]string{}, rec.Conditions...)
	rec.ConsultationHistory = append([]model.ConsultationEntry{}, r.d.consultations[rec.ID]...)
	return &rec
}

func (r *recordRepo) GetOrCreate(ctx context.Context, userID uuid.UUID) (*model.PatientRecord, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, rec := range r.d.records {
		if rec.UserID == userID {
			return r.view(rec), nil
		}
	}
	if _, ok := r.d.users[userID]; !ok {
		return nil, repository.ErrNotFound
	}
	rec := model.PatientRecord{UserID: userID}
	rec.Touch(r.d.now())
	r.d.records[rec.ID] = rec
	return r.view(rec), nil
}

func (r *recordRepo) AddConsultation(ctx context.Context, entry *model.ConsultationEntry) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	rec, ok := r.d.records[entry.RecordID]
	if !ok {
		return repository.ErrNotFound
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = r.d.now()
	r.d.consultations[rec.ID] = append(r.d.consultations[rec.ID], *entry)
	rec.UpdatedAt = entry.CreatedAt
	r.d.records[rec.ID] = rec
	return nil
}

func (r *recordRepo) GetConsultation(ctx context.Context, recordID, entryID uuid.UUID) (*model.ConsultationEntry, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	for _, e := range r.d.consultations[recordID] {
		if e.ID == entryID {
			e := e
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *recordRepo) UpdateMedicalInfo(ctx context.Context, recordID uuid.UUID, allergies, conditions []string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	rec, ok := r.d.records[recordID]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Allergies = append([]string{}, allergies...)
	rec.Conditions = append([]string{}, conditions...)
	rec.UpdatedAt = r.d.now()
	r.d.records[recordID] = rec
	return nil
}

// Inventory

type inventoryRepo struct{ d *db }

func (r *inventoryRepo) nameTaken(name string, except uuid.UUID) bool {
	for id, it := range r.d.inventory {
		if id != except && strings.EqualFold(it.Name, name) {
			return true
		}
	}
	return false
}

func (r *inventoryRepo) Create(ctx context.Context, item *model.InventoryItem) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if r.nameTaken(item.Name, uuid.Nil) {
		return repository.ErrDuplicate
	}
	item.Touch(r.d.now())
	r.d.inventory[item.ID] = *item
	return nil
}

func (r *inventoryRepo) Get(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	it, ok := r.d.inventory[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (r *inventoryRepo) Update(ctx context.Context, item *model.InventoryItem) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	existing, ok := r.d.inventory[item.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.nameTaken(item.Name, item.ID) {
		return repository.ErrDuplicate
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = r.d.now()
	r.d.inventory[item.ID] = *item
	return nil
}

func (r *inventoryRepo) List(ctx context.Context) ([]*model.InventoryItem, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	out := make([]*model.InventoryItem, 0, len(r.d.inventory))
	for _, it := range r.d.inventory {
		it := it
		out = append(out, &it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Financial records

type financialRepo struct{ d *db }

func (r *financialRepo) Create(ctx context.Context, rec *model.FinancialRecord) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	rec.Touch(r.d.now())
	r.d.financial = append(r.d.financial, *rec)
	return nil
}

func (r *financialRepo) List(ctx context.Context, p model.Pagination) ([]*model.FinancialRecord, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	out := make([]*model.FinancialRecord, 0, len(r.d.financial))
	for i := len(r.d.financial) - 1; i >= 0; i-- {
		rec := r.d.financial[i]
		out = append(out, &rec)
	}
	return page(out, p), nil
}

// Audit logs

type auditRepo struct{ d *db }

func (r *auditRepo) Create(ctx context.Context, l *model.AuditLog) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = r.d.now()
	r.d.audit = append(r.d.audit, *l)
	return nil
}

// List returns newest first.
func (r *auditRepo) List(ctx context.Context, f model.AuditFilter) ([]*model.AuditLog, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var out []*model.AuditLog
	for i := len(r.d.audit) - 1; i >= 0; i-- {
		l := r.d.audit[i]
		if f.ActorID != uuid.Nil && l.ActorID != f.ActorID {
			continue
		}
		if f.Action != "" && l.Action != f.Action {
			continue
		}
		out = append(out, &l)
	}
	return page(out, f.Pagination), nil
}
