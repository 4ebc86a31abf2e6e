package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/orderdesk/internal/model"
)

const (
	TopicProductCreated     = "product.created"
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
	TopicOrderConfirmed     = "order.confirmed"
)

type ProductCreatedEvent struct {
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
}

type OrderCreatedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	Reference   string            `json:"reference"`
	Source      model.OrderSource `json:"source"`
	Phone       string            `json:"phone"`
	WilayaID    int               `json:"wilaya_id"`
	Total       decimal.Decimal   `json:"total"`
	DuplicateOf *uuid.UUID        `json:"duplicate_of,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

type OrderStatusChangedEvent struct {
	OrderID   uuid.UUID         `json:"order_id"`
	Reference string            `json:"reference"`
	From      model.OrderStatus `json:"from"`
	To        model.OrderStatus `json:"to"`
	ChangedBy *uuid.UUID        `json:"changed_by,omitempty"`
	ChangedAt time.Time         `json:"changed_at"`
}

// OrderConfirmedEvent drives shipment dispatch.
type OrderConfirmedEvent struct {
	OrderID           uuid.UUID  `json:"order_id"`
	Reference         string     `json:"reference"`
	ShippingAccountID *uuid.UUID `json:"shipping_account_id,omitempty"`
	ConfirmedAt       time.Time  `json:"confirmed_at"`
}
