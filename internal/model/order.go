package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusNoAnswer   OrderStatus = "no_answer"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusDispatched OrderStatus = "dispatched"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusReturned   OrderStatus = "returned"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusNew:        {OrderStatusConfirmed, OrderStatusCancelled, OrderStatusNoAnswer},
	OrderStatusNoAnswer:   {OrderStatusConfirmed, OrderStatusCancelled, OrderStatusNoAnswer},
	OrderStatusConfirmed:  {OrderStatusDispatched, OrderStatusCancelled},
	OrderStatusDispatched: {OrderStatusDelivered, OrderStatusReturned},
}

func (s OrderStatus) Validate() error {
	switch s {
	case OrderStatusNew, OrderStatusNoAnswer, OrderStatusConfirmed, OrderStatusCancelled,
		OrderStatusDispatched, OrderStatusDelivered, OrderStatusReturned:
		return nil
	default:
		return fmt.Errorf("invalid order status: %s", s)
	}
}

// CanTransitionTo reports whether an order may move from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// Editable reports whether customer and delivery details may still change.
func (s OrderStatus) Editable() bool {
	return s == OrderStatusNew || s == OrderStatusNoAnswer
}

type OrderSource string

const (
	OrderSourceManual OrderSource = "manual"
	OrderSourceSheets OrderSource = "sheets"
	OrderSourceAPI    OrderSource = "api"
)

func (s OrderSource) Validate() error {
	switch s {
	case OrderSourceManual, OrderSourceSheets, OrderSourceAPI:
		return nil
	default:
		return fmt.Errorf("invalid order source: %s", s)
	}
}

type Order struct {
	ID                uuid.UUID       `json:"id"`
	Reference         string          `json:"reference"`
	Status            OrderStatus     `json:"status"`
	Source            OrderSource     `json:"source"`
	ExternalRef       *string         `json:"external_ref,omitempty"`
	CustomerName      string          `json:"customer_name"`
	Phone             string          `json:"phone"`
	Phone2            *string         `json:"phone2,omitempty"`
	WilayaID          int             `json:"wilaya_id"`
	BaladiaID         int             `json:"baladia_id"`
	Address           string          `json:"address"`
	DeliveryType      DeliveryType    `json:"delivery_type"`
	DeliveryPrice     decimal.Decimal `json:"delivery_price"`
	ItemsTotal        decimal.Decimal `json:"items_total"`
	Total             decimal.Decimal `json:"total"`
	Notes             string          `json:"notes"`
	DuplicateOf       *uuid.UUID      `json:"duplicate_of,omitempty"`
	TrackingNumber    *string         `json:"tracking_number,omitempty"`
	ShippingAccountID *uuid.UUID      `json:"shipping_account_id,omitempty"`
	CreatedBy         *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Items             []OrderItem     `json:"items"`
}

type OrderItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LineTotal is UnitPrice * Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsSum adds the line totals of items.
func ItemsSum(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// OrderFilter narrows ListOrders; zero values mean no constraint.
type OrderFilter struct {
	Status         *OrderStatus
	WilayaID       *int
	Phone          *string
	DuplicatesOnly bool
	From           *time.Time
	To             *time.Time
	Search         *string
	Limit          int
	Offset         int
}
