package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"

	"github.com/google/uuid"
)

// Service tracks clinic supplies and their purchases. Only staff and
// admins reach it; the router enforces the role.
type Service struct {
	items     repository.InventoryRepository
	financial repository.FinancialRepository
	now       func() time.Time
}

func NewService(items repository.InventoryRepository, financial repository.FinancialRepository) *Service {
	return &Service{items: items, financial: financial, now: time.Now}
}

func nameTaken(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.Conflict("an item with this name already exists", err)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("inventory item", err)
	}
	return apperrors.Internal(err)
}

func (s *Service) CreateItem(ctx context.Context, req model.CreateInventoryItemRequest) (*model.InventoryItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.FieldRequired("name")
	}
	if req.Quantity < 0 {
		return nil, apperrors.InvalidField("quantity", "must be at least 0")
	}
	item := &model.InventoryItem{Name: name, Quantity: req.Quantity, ReorderLevel: req.ReorderLevel}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, nameTaken(err)
	}
	return item, nil
}

func (s *Service) UpdateItem(ctx context.Context, id uuid.UUID, req model.UpdateInventoryItemRequest) (*model.InventoryItem, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, nameTaken(err)
	}
	if req.Name != nil {
		if item.Name = strings.TrimSpace(*req.Name); item.Name == "" {
			return nil, apperrors.FieldRequired("name")
		}
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, apperrors.InvalidField("quantity", "must be at least 0")
		}
		item.Quantity = *req.Quantity
	}
	if req.ReorderLevel != nil {
		item.ReorderLevel = *req.ReorderLevel
	}
	if err := s.items.Update(ctx, item); err != nil {
		return nil, nameTaken(err)
	}
	return item, nil
}

func (s *Service) ListItems(ctx context.Context) ([]*model.InventoryItem, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return items, nil
}

// RecordPurchase logs a purchase. A missing purchase date means today.
func (s *Service) RecordPurchase(ctx context.Context, actor model.Principal, req model.CreateFinancialRecordRequest) (*model.FinancialRecord, error) {
	item := strings.TrimSpace(req.Item)
	if item == "" {
		return nil, apperrors.FieldRequired("item")
	}
	if req.Quantity < 1 {
		return nil, apperrors.InvalidField("quantity", "must be at least 1")
	}
	if req.Price < 0 {
		return nil, apperrors.InvalidField("price", "must be at least 0")
	}
	bought := s.now().UTC().Truncate(24 * time.Hour)
	if req.PurchaseDate != "" {
		d, err := time.Parse(model.DateLayout, req.PurchaseDate)
		if err != nil {
			return nil, apperrors.InvalidField("purchaseDate", "must be a date in YYYY-MM-DD format")
		}
		bought = d
	}
	rec := &model.FinancialRecord{
		Item:         item,
		Price:        req.Price,
		Quantity:     req.Quantity,
		PurchaseDate: bought,
		RecordedBy:   actor.UserID,
	}
	if err := s.financial.Create(ctx, rec); err != nil {
		return nil, apperrors.Internal(err)
	}
	return rec, nil
}

func (s *Service) ListPurchases(ctx context.Context, p model.Pagination) ([]*model.FinancialRecord, error) {
	recs, err := s.financial.List(ctx, p)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return recs, nil
}
