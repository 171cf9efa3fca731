package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type StockStatus string

const (
	StockOut StockStatus = "Out of Stock"
	StockLow StockStatus = "Low Stock"
	StockIn  StockStatus = "In Stock"
)

// InventoryItem is a stocked supply. Its status is derived, never stored.
type InventoryItem struct {
	Base
	Name         string `json:"name" db:"name"`
	Quantity     int    `json:"quantity" db:"quantity"`
	ReorderLevel int    `json:"reorderLevel" db:"reorder_level"`
}

func (i InventoryItem) Status() StockStatus {
	switch {
	case i.Quantity <= 0:
		return StockOut
	case i.Quantity <= i.ReorderLevel:
		return StockLow
	default:
		return StockIn
	}
}

func (i InventoryItem) MarshalJSON() ([]byte, error) {
	type alias InventoryItem
	return json.Marshal(struct {
		alias
		Status StockStatus `json:"status"`
	}{alias(i), i.Status()})
}

// FinancialRecord is a purchase entry. Its total is derived, never stored.
type FinancialRecord struct {
	Base
	Item         string    `json:"item" db:"item"`
	Price        float64   `json:"price" db:"price"`
	Quantity     int       `json:"quantity" db:"quantity"`
	PurchaseDate time.Time `json:"purchaseDate" db:"purchase_date"`
	RecordedBy   uuid.UUID `json:"recordedBy" db:"recorded_by"`
}

func (f FinancialRecord) TotalPrice() float64 {
	return f.Price * float64(f.Quantity)
}

func (f FinancialRecord) MarshalJSON() ([]byte, error) {
	type alias FinancialRecord
	return json.Marshal(struct {
		alias
		TotalPrice float64 `json:"totalPrice"`
	}{alias(f), f.TotalPrice()})
}

type CreateInventoryItemRequest struct {
	Name         string `json:"name" binding:"required"`
	Quantity     int    `json:"quantity" binding:"min=0"`
	ReorderLevel int    `json:"reorderLevel" binding:"min=0"`
}

// UpdateInventoryItemRequest changes only the fields that are set.
type UpdateInventoryItemRequest struct {
	Name         *string `json:"name"`
	Quantity     *int    `json:"quantity" binding:"omitempty,min=0"`
	ReorderLevel *int    `json:"reorderLevel" binding:"omitempty,min=0"`
}

type CreateFinancialRecordRequest struct {
	Item         string  `json:"item" binding:"required"`
	Price        float64 `json:"price" binding:"min=0"`
	Quantity     int     `json:"quantity" binding:"required,min=1"`
	PurchaseDate string  `json:"purchaseDate" binding:"omitempty,isodate"`
}
