package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type inventoryRepository struct {
	BaseRepository
}

func NewInventoryRepository(base BaseRepository) repository.InventoryRepository {
	return &inventoryRepository{base}
}

func (r *inventoryRepository) Create(ctx context.Context, item *model.InventoryItem) error {
	item.Touch(r.now())
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO inventory_items (id, name, quantity, reorder_level, created_at, updated_at)
		VALUES (:id, :name, :quantity, :reorder_level, :created_at, :updated_at)
	`, item)
	return wrap(err, "create inventory item")
}

func (r *inventoryRepository) Get(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.GetContext(ctx, &item,
		`SELECT id, name, quantity, reorder_level, created_at, updated_at FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return nil, wrap(err, "get inventory item")
	}
	return &item, nil
}

func (r *inventoryRepository) Update(ctx context.Context, item *model.InventoryItem) error {
	item.UpdatedAt = r.now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE inventory_items SET name = $1, quantity = $2, reorder_level = $3, updated_at = $4 WHERE id = $5`,
		item.Name, item.Quantity, item.ReorderLevel, item.UpdatedAt, item.ID)
	if err != nil {
		return wrap(err, "update inventory item")
	}
	return mustAffect(res, "update inventory item")
}

func (r *inventoryRepository) List(ctx context.Context) ([]*model.InventoryItem, error) {
	items := []*model.InventoryItem{}
	err := r.db.SelectContext(ctx, &items,
		`SELECT id, name, quantity, reorder_level, created_at, updated_at FROM inventory_items ORDER BY name`)
	if err != nil {
		return nil, wrap(err, "list inventory items")
	}
	return items, nil
}

type financialRepository struct {
	BaseRepository
}

func NewFinancialRepository(base BaseRepository) repository.FinancialRepository {
	return &financialRepository{base}
}

func (r *financialRepository) Create(ctx context.Context, rec *model.FinancialRecord) error {
	rec.Touch(r.now())
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO financial_records (id, item, price, quantity, purchase_date, recorded_by, created_at, updated_at)
		VALUES (:id, :item, :price, :quantity, :purchase_date, :recorded_by, :created_at, :updated_at)
	`, rec)
	return wrap(err, "create financial record")
}

func (r *financialRepository) List(ctx context.Context, p model.Pagination) ([]*model.FinancialRecord, error) {
	p = p.Normalize()
	out := []*model.FinancialRecord{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, item, price, quantity, purchase_date, recorded_by, created_at, updated_at
		FROM financial_records
		ORDER BY purchase_date DESC, created_at DESC
		LIMIT $1 OFFSET $2
	`, p.PageSize, p.Offset())
	if err != nil {
		return nil, wrap(err, "list financial records")
	}
	return out, nil
}
