package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID        uuid.UUID       `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Active    bool            `json:"active"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type MovementReason string

const (
	MovementRestock        MovementReason = "restock"
	MovementAdjustment     MovementReason = "adjustment"
	MovementOrderConfirmed MovementReason = "order_confirmed"
	MovementOrderCancelled MovementReason = "order_cancelled"
	MovementOrderReturned  MovementReason = "order_returned"
)

func (r MovementReason) Validate() error {
	switch r {
	case MovementRestock, MovementAdjustment, MovementOrderConfirmed,
		MovementOrderCancelled, MovementOrderReturned:
		return nil
	default:
		return fmt.Errorf("invalid movement reason: %s", r)
	}
}

// Manual reports whether operators may record the reason directly.
func (r MovementReason) Manual() bool {
	return r == MovementRestock || r == MovementAdjustment
}

type StockMovement struct {
	ID        uuid.UUID      `json:"id"`
	ProductID uuid.UUID      `json:"product_id"`
	Delta     int            `json:"delta"`
	Reason    MovementReason `json:"reason"`
	OrderID   *uuid.UUID     `json:"order_id,omitempty"`
	Note      string         `json:"note"`
	CreatedBy *uuid.UUID     `json:"created_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
