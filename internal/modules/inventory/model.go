package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// LogAction tags what kind of mutation produced a product log row.
type LogAction string

const (
	ActionRestock   LogAction = "RESTOCK"
	ActionStocktake LogAction = "STOCKTAKE"
	ActionDiscard   LogAction = "DISCARD"
)

// ProductLog records one admin stock mutation: the product name is
// snapshotted so the log stays readable after renames.
type ProductLog struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Action      LogAction `json:"action"`
	Delta       int       `json:"delta"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AdjustRequest changes a simple product's stock by a signed delta.
type AdjustRequest struct {
	Delta int    `json:"delta"`
	Note  string `json:"note"`
}

// StocktakeRequest sets a simple product's stock to a counted amount.
type StocktakeRequest struct {
	Stock int    `json:"stock"`
	Note  string `json:"note"`
}

// AdjustResult reports the stock left after a mutation.
type AdjustResult struct {
	ProductID uuid.UUID `json:"product_id"`
	Stock     int       `json:"stock"`
}

var (
	// ErrProductNotFound is returned when the target product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrCompositeHasNoStock is returned when a stock write targets a
	// composite: composites derive purchasability from their ingredients
	// and carry no stock of their own.
	ErrCompositeHasNoStock = errors.New("composite products have no stock of their own")

	// ErrStockWouldGoNegative is returned when a delta would take the
	// stock below zero.
	ErrStockWouldGoNegative = errors.New("stock cannot go negative")
)
