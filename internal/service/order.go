package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/auth"
	"github.com/tuanvumaihuynh/orderdesk/internal/config"
	"github.com/tuanvumaihuynh/orderdesk/internal/dedupe"
	"github.com/tuanvumaihuynh/orderdesk/internal/event"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/repository"
	"github.com/tuanvumaihuynh/orderdesk/internal/shipping"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
	"github.com/tuanvumaihuynh/orderdesk/pkg/dzphone"
)

const (
	DefaultOrderListLimit = 50
	MaxOrderListLimit     = 500
)

type OrderItemParams struct {
	ProductID *uuid.UUID
	SKU       string
	Quantity  int
	// UnitPrice overrides the catalogue price when set.
	UnitPrice *decimal.Decimal
}

// CreateOrderParams locates the destination either by id or by free-text
// name; ids win when both are given.
type CreateOrderParams struct {
	Source       model.OrderSource
	ExternalRef  *string
	CustomerName string
	Phone        string
	Phone2       *string
	WilayaID     *int
	Wilaya       string
	BaladiaID    *int
	Baladia      string
	Address      string
	DeliveryType model.DeliveryType
	// DeliveryPrice skips the price quote when set.
	DeliveryPrice *decimal.Decimal
	Notes         string
	Items         []OrderItemParams
}

type UpdateOrderParams struct {
	CustomerName mo.Option[string]
	Phone        mo.Option[string]
	// Phone2 set to an empty string clears it.
	Phone2        mo.Option[string]
	WilayaID      mo.Option[int]
	BaladiaID     mo.Option[int]
	Address       mo.Option[string]
	DeliveryType  mo.Option[model.DeliveryType]
	DeliveryPrice mo.Option[decimal.Decimal]
	Notes         mo.Option[string]
	Items         mo.Option[[]OrderItemParams]
}

type ListOrdersResult struct {
	Orders []model.Order `json:"orders"`
	Total  int           `json:"total"`
}

type TrackingResult struct {
	Order    model.Order           `json:"order"`
	Tracking shipping.TrackingInfo `json:"tracking"`
	// Updated is true when the provider status moved the order.
	Updated bool `json:"updated"`
}

// Shipper creates and tracks shipments on the provider accounts.
type Shipper interface {
	Dispatch(ctx context.Context, preferred *uuid.UUID, req shipping.ShipmentRequest) (shipping.Shipment, error)
	Track(ctx context.Context, account model.ShippingAccount, tracking string) (shipping.TrackingInfo, error)
}

type OrderService interface {
	CreateOrder(ctx context.Context, params CreateOrderParams) (model.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (model.Order, error)
	ListOrders(ctx context.Context, filter model.OrderFilter) (ListOrdersResult, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, params UpdateOrderParams) (model.Order, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, to model.OrderStatus) (model.Order, error)
	// Ship creates the shipment with account fallback and marks the order
	// dispatched. Shipping an already dispatched order returns it unchanged.
	Ship(ctx context.Context, id uuid.UUID, accountID *uuid.UUID) (model.Order, error)
	MarkDispatched(ctx context.Context, id uuid.UUID, tracking string, accountID uuid.UUID) (model.Order, error)
	RefreshTracking(ctx context.Context, id uuid.UUID) (TrackingResult, error)
}

type orderService struct {
	cfg                 config.Orders
	logger              *slog.Logger
	db                  db.DB
	locations           LocationService
	delivery            DeliveryService
	shipper             Shipper
	orderRepo           repository.OrderRepository
	productRepo         repository.ProductRepository
	stockRepo           repository.StockRepository
	shippingAccountRepo repository.ShippingAccountRepository
	outboxMsgRepo       repository.OutboxMsgRepository
}

func NewOrderService(
	cfg config.Orders,
	logger *slog.Logger,
	db db.DB,
	locations LocationService,
	delivery DeliveryService,
	shipper Shipper,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	shippingAccountRepo repository.ShippingAccountRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) OrderService {
	return &orderService{
		cfg:                 cfg,
		logger:              logger.With(slog.String("service", "order")),
		db:                  db,
		locations:           locations,
		delivery:            delivery,
		shipper:             shipper,
		orderRepo:           orderRepo,
		productRepo:         productRepo,
		stockRepo:           stockRepo,
		shippingAccountRepo: shippingAccountRepo,
		outboxMsgRepo:       outboxMsgRepo,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, params CreateOrderParams) (model.Order, error) {
	if params.Source == "" {
		params.Source = model.OrderSourceManual
	}
	if err := params.Source.Validate(); err != nil {
		return model.Order{}, apperr.ValidationErr.WithMsg("%s", err.Error())
	}
	if params.DeliveryType == "" {
		params.DeliveryType = model.DeliveryTypeHome
	}
	if err := params.DeliveryType.Validate(); err != nil {
		return model.Order{}, apperr.ValidationErr.WithMsg("%s", err.Error())
	}
	name := strings.TrimSpace(params.CustomerName)
	if name == "" {
		return model.Order{}, apperr.ValidationErr.WithMsg("customer name is required")
	}

	phone, err := normalizePhone(params.Phone)
	if err != nil {
		return model.Order{}, err
	}
	var phone2 *string
	if params.Phone2 != nil && strings.TrimSpace(*params.Phone2) != "" {
		p, err := normalizePhone(*params.Phone2)
		if err != nil {
			return model.Order{}, err
		}
		if p != phone {
			phone2 = &p
		}
	}

	wilaya, baladia, err := s.resolveLocation(ctx, params)
	if err != nil {
		return model.Order{}, err
	}

	items, err := s.buildItems(ctx, params.Items)
	if err != nil {
		return model.Order{}, err
	}

	deliveryPrice, err := s.deliveryPrice(ctx, wilaya.ID, baladia.ID, params.DeliveryType, params.DeliveryPrice)
	if err != nil {
		return model.Order{}, err
	}

	id, err := newID()
	if err != nil {
		return model.Order{}, err
	}
	now := time.Now()
	reference, err := newReference(now)
	if err != nil {
		return model.Order{}, err
	}

	itemsTotal := model.ItemsSum(items)
	order := model.Order{
		ID:            id,
		Reference:     reference,
		Status:        model.OrderStatusNew,
		Source:        params.Source,
		ExternalRef:   params.ExternalRef,
		CustomerName:  name,
		Phone:         phone,
		Phone2:        phone2,
		WilayaID:      wilaya.ID,
		BaladiaID:     baladia.ID,
		Address:       strings.TrimSpace(params.Address),
		DeliveryType:  params.DeliveryType,
		DeliveryPrice: deliveryPrice,
		ItemsTotal:    itemsTotal,
		Total:         itemsTotal.Add(deliveryPrice),
		Notes:         strings.TrimSpace(params.Notes),
		CreatedBy:     auth.UserIDFromContext(ctx),
		CreatedAt:     now,
		UpdatedAt:     now,
		Items:         items,
	}

	candidates, err := s.orderRepo.ListRecentByPhones(ctx, lo.Compact([]string{phone, lo.FromPtr(phone2)}), now.Add(-s.cfg.DuplicateWindow))
	if err != nil {
		return model.Order{}, fmt.Errorf("order repository list recent by phones: %w", err)
	}
	if match, ok := dedupe.Detect(order, candidates); ok {
		order.DuplicateOf = &match.OrderID
		s.logger.InfoContext(ctx, "order flagged as duplicate",
			slog.String("reference", order.Reference),
			slog.String("duplicate_of", match.OrderID.String()),
			slog.Int("score", match.Score),
		)
	}

	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		if err := s.orderRepo.
			WithDB(tx).
			CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("order repository create order: %w", err)
		}

		return writeEvent(ctx, tx, s.outboxMsgRepo, event.TopicOrderCreated, order.ID, event.OrderCreatedEvent{
			OrderID:     order.ID,
			Reference:   order.Reference,
			Source:      order.Source,
			Phone:       order.Phone,
			WilayaID:    order.WilayaID,
			Total:       order.Total,
			DuplicateOf: order.DuplicateOf,
			CreatedAt:   order.CreatedAt,
		})
	}); err != nil {
		return model.Order{}, fmt.Errorf("db with tx: %w", err)
	}

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (model.Order, error) {
	order, err := s.orderRepo.GetOrder(ctx, id)
	if err != nil {
		return model.Order{}, fmt.Errorf("order repository get order: %w", err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter model.OrderFilter) (ListOrdersResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultOrderListLimit
	}
	filter.Limit = min(filter.Limit, MaxOrderListLimit)
	filter.Offset = max(filter.Offset, 0)

	if filter.Status != nil {
		if err := filter.Status.Validate(); err != nil {
			return ListOrdersResult{}, apperr.ValidationErr.WithMsg("%s", err.Error())
		}
	}
	if filter.Phone != nil {
		p, err := normalizePhone(*filter.Phone)
		if err != nil {
			return ListOrdersResult{}, err
		}
		filter.Phone = &p
	}

	orders, total, err := s.orderRepo.ListOrders(ctx, filter)
	if err != nil {
		return ListOrdersResult{}, fmt.Errorf("order repository list orders: %w", err)
	}

	return ListOrdersResult{Orders: orders, Total: total}, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, id uuid.UUID, params UpdateOrderParams) (model.Order, error) {
	var items []model.OrderItem
	if rawItems, ok := params.Items.Get(); ok {
		built, err := s.buildItems(ctx, rawItems)
		if err != nil {
			return model.Order{}, err
		}
		items = built
	}

	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		order, err := s.orderRepo.
			WithDB(tx).
			GetOrderForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("order repository get order for update: %w", err)
		}
		if !order.Status.Editable() {
			return apperr.OrderNotEditableErr.WithMsg("order %s is %s", order.Reference, order.Status)
		}

		if name, ok := params.CustomerName.Get(); ok {
			order.CustomerName = strings.TrimSpace(name)
			if order.CustomerName == "" {
				return apperr.ValidationErr.WithMsg("customer name is required")
			}
		}
		if phone, ok := params.Phone.Get(); ok {
			if order.Phone, err = normalizePhone(phone); err != nil {
				return err
			}
		}
		if phone2, ok := params.Phone2.Get(); ok {
			order.Phone2 = nil
			if strings.TrimSpace(phone2) != "" {
				p, err := normalizePhone(phone2)
				if err != nil {
					return err
				}
				order.Phone2 = &p
			}
		}
		if address, ok := params.Address.Get(); ok {
			order.Address = strings.TrimSpace(address)
		}
		if notes, ok := params.Notes.Get(); ok {
			order.Notes = strings.TrimSpace(notes)
		}
		if items != nil {
			order.Items = items
		}

		relocated := params.WilayaID.IsPresent() || params.BaladiaID.IsPresent() || params.DeliveryType.IsPresent()
		order.WilayaID = params.WilayaID.OrElse(order.WilayaID)
		order.BaladiaID = params.BaladiaID.OrElse(order.BaladiaID)
		order.DeliveryType = params.DeliveryType.OrElse(order.DeliveryType)
		if err := order.DeliveryType.Validate(); err != nil {
			return apperr.ValidationErr.WithMsg("%s", err.Error())
		}

		if price, ok := params.DeliveryPrice.Get(); ok || relocated {
			var explicit *decimal.Decimal
			if ok {
				explicit = &price
			}
			if order.DeliveryPrice, err = s.deliveryPrice(ctx, order.WilayaID, order.BaladiaID, order.DeliveryType, explicit); err != nil {
				return err
			}
		}

		order.ItemsTotal = model.ItemsSum(order.Items)
		order.Total = order.ItemsTotal.Add(order.DeliveryPrice)
		order.UpdatedAt = time.Now()

		if err := s.orderRepo.
			WithDB(tx).
			UpdateOrder(ctx, order); err != nil {
			return fmt.Errorf("order repository update order: %w", err)
		}

		return nil
	}); err != nil {
		return model.Order{}, fmt.Errorf("db with tx: %w", err)
	}

	return s.GetOrder(ctx, id)
}

func (s *orderService) ChangeStatus(ctx context.Context, id uuid.UUID, to model.OrderStatus) (model.Order, error) {
	if err := to.Validate(); err != nil {
		return model.Order{}, apperr.ValidationErr.WithMsg("%s", err.Error())
	}
	if to == model.OrderStatusDispatched {
		return model.Order{}, apperr.InvalidStatusTransitionErr.WithMsg("orders are dispatched by shipping them")
	}

	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		order, err := s.orderRepo.
			WithDB(tx).
			GetOrderForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("order repository get order for update: %w", err)
		}

		return s.transition(ctx, tx, order, to)
	}); err != nil {
		return model.Order{}, fmt.Errorf("db with tx: %w", err)
	}

	return s.GetOrder(ctx, id)
}

// transition moves a locked order to status to, applying its stock effect
// and writing the events.
func (s *orderService) transition(ctx context.Context, tx db.DB, order model.Order, to model.OrderStatus) error {
	if !order.Status.CanTransitionTo(to) {
		return apperr.InvalidStatusTransitionErr.WithMsg("cannot move order from %s to %s", order.Status, to)
	}

	now := time.Now()
	if reason, sign := stockEffect(order.Status, to); sign != 0 {
		for _, item := range order.Items {
			movementID, err := newID()
			if err != nil {
				return err
			}
			if _, err := s.stockRepo.
				WithDB(tx).
				ApplyMovement(ctx, model.StockMovement{
					ID:        movementID,
					ProductID: item.ProductID,
					Delta:     sign * item.Quantity,
					Reason:    reason,
					OrderID:   &order.ID,
					Note:      order.Reference,
					CreatedBy: auth.UserIDFromContext(ctx),
					CreatedAt: now,
				}); err != nil {
				return fmt.Errorf("stock repository apply movement for %s: %w", item.SKU, err)
			}
		}
	}

	if err := s.orderRepo.
		WithDB(tx).
		UpdateStatus(ctx, order.ID, to, now); err != nil {
		return fmt.Errorf("order repository update status: %w", err)
	}

	return s.writeStatusEvents(ctx, tx, order, to, now)
}

func (s *orderService) writeStatusEvents(ctx context.Context, tx db.DB, order model.Order, to model.OrderStatus, now time.Time) error {
	if err := writeEvent(ctx, tx, s.outboxMsgRepo, event.TopicOrderStatusChanged, order.ID, event.OrderStatusChangedEvent{
		OrderID:   order.ID,
		Reference: order.Reference,
		From:      order.Status,
		To:        to,
		ChangedBy: auth.UserIDFromContext(ctx),
		ChangedAt: now,
	}); err != nil {
		return err
	}

	if to != model.OrderStatusConfirmed {
		return nil
	}
	return writeEvent(ctx, tx, s.outboxMsgRepo, event.TopicOrderConfirmed, order.ID, event.OrderConfirmedEvent{
		OrderID:           order.ID,
		Reference:         order.Reference,
		ShippingAccountID: order.ShippingAccountID,
		ConfirmedAt:       now,
	})
}

// stockEffect tells how a transition moves stock: sign is -1 to take the
// items out, +1 to put them back, 0 for no movement.
func stockEffect(from, to model.OrderStatus) (model.MovementReason, int) {
	switch {
	case to == model.OrderStatusConfirmed:
		return model.MovementOrderConfirmed, -1
	case to == model.OrderStatusCancelled && from == model.OrderStatusConfirmed:
		return model.MovementOrderCancelled, 1
	case to == model.OrderStatusReturned:
		return model.MovementOrderReturned, 1
	default:
		return "", 0
	}
}

func (s *orderService) Ship(ctx context.Context, id uuid.UUID, accountID *uuid.UUID) (model.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return model.Order{}, err
	}
	if order.Status == model.OrderStatusDispatched && order.TrackingNumber != nil {
		return order, nil
	}
	if order.Status != model.OrderStatusConfirmed {
		return model.Order{}, apperr.OrderNotShippableErr.WithMsg("order %s is %s", order.Reference, order.Status)
	}

	req, err := s.shipmentRequest(ctx, order)
	if err != nil {
		return model.Order{}, err
	}

	shipment, err := s.shipper.Dispatch(ctx, accountID, req)
	if err != nil {
		return model.Order{}, fmt.Errorf("shipper dispatch: %w", err)
	}

	shipped, err := s.MarkDispatched(ctx, id, shipment.Tracking, shipment.AccountID)
	if err != nil {
		s.logger.ErrorContext(ctx, "shipment created but order not marked dispatched",
			slog.String("reference", order.Reference),
			slog.String("tracking", shipment.Tracking),
			slog.String("account", shipment.AccountName),
			slog.Any("error", err),
		)
		return model.Order{}, err
	}

	return shipped, nil
}

func (s *orderService) MarkDispatched(ctx context.Context, id uuid.UUID, tracking string, accountID uuid.UUID) (model.Order, error) {
	tracking = strings.TrimSpace(tracking)
	if tracking == "" {
		return model.Order{}, apperr.ValidationErr.WithMsg("tracking number is required")
	}
	if _, err := s.shippingAccountRepo.GetShippingAccount(ctx, accountID); err != nil {
		return model.Order{}, fmt.Errorf("shipping account repository get shipping account: %w", err)
	}

	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		order, err := s.orderRepo.
			WithDB(tx).
			GetOrderForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("order repository get order for update: %w", err)
		}
		if order.Status != model.OrderStatusConfirmed {
			return apperr.OrderNotShippableErr.WithMsg("order %s is %s", order.Reference, order.Status)
		}

		now := time.Now()
		if err := s.orderRepo.
			WithDB(tx).
			SetShipment(ctx, repository.SetShipmentParams{
				OrderID:           id,
				TrackingNumber:    tracking,
				ShippingAccountID: accountID,
				UpdatedAt:         now,
			}); err != nil {
			return fmt.Errorf("order repository set shipment: %w", err)
		}

		return s.writeStatusEvents(ctx, tx, order, model.OrderStatusDispatched, now)
	}); err != nil {
		return model.Order{}, fmt.Errorf("db with tx: %w", err)
	}

	return s.GetOrder(ctx, id)
}

func (s *orderService) RefreshTracking(ctx context.Context, id uuid.UUID) (TrackingResult, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return TrackingResult{}, err
	}
	if order.TrackingNumber == nil || order.ShippingAccountID == nil {
		return TrackingResult{}, apperr.OrderNotTrackedErr
	}

	account, err := s.shippingAccountRepo.GetShippingAccount(ctx, *order.ShippingAccountID)
	if err != nil {
		return TrackingResult{}, fmt.Errorf("shipping account repository get shipping account: %w", err)
	}

	info, err := s.shipper.Track(ctx, account, *order.TrackingNumber)
	if err != nil {
		return TrackingResult{}, fmt.Errorf("shipper track: %w", err)
	}

	result := TrackingResult{Order: order, Tracking: info}
	next, ok := shipping.MapStatus(info.Status)
	if !ok || next == order.Status {
		return result, nil
	}

	if err := s.db.WithTx(ctx, func(tx db.DB) error {
		locked, err := s.orderRepo.
			WithDB(tx).
			GetOrderForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("order repository get order for update: %w", err)
		}
		if !locked.Status.CanTransitionTo(next) {
			return nil
		}
		result.Updated = true
		return s.transition(ctx, tx, locked, next)
	}); err != nil {
		return TrackingResult{}, fmt.Errorf("db with tx: %w", err)
	}

	if result.Updated {
		if result.Order, err = s.GetOrder(ctx, id); err != nil {
			return TrackingResult{}, err
		}
	}

	return result, nil
}

func (s *orderService) shipmentRequest(ctx context.Context, order model.Order) (shipping.ShipmentRequest, error) {
	baladia, err := s.locations.GetBaladia(ctx, order.BaladiaID)
	if err != nil {
		return shipping.ShipmentRequest{}, err
	}

	products := lo.Map(order.Items, func(it model.OrderItem, _ int) string {
		return fmt.Sprintf("%s x%d", it.Name, it.Quantity)
	})

	return shipping.ShipmentRequest{
		Reference:    order.Reference,
		CustomerName: order.CustomerName,
		Phone:        order.Phone,
		Phone2:       lo.FromPtr(order.Phone2),
		Address:      order.Address,
		WilayaID:     order.WilayaID,
		Commune:      baladia.Name,
		Amount:       order.Total,
		Products:     strings.Join(products, ", "),
		Notes:        order.Notes,
		StopDesk:     order.DeliveryType == model.DeliveryTypeStopDesk,
	}, nil
}

func (s *orderService) resolveLocation(ctx context.Context, params CreateOrderParams) (model.Wilaya, model.Baladia, error) {
	var (
		wilaya model.Wilaya
		err    error
	)
	switch {
	case params.WilayaID != nil:
		wilaya, err = s.locations.GetWilaya(ctx, *params.WilayaID)
	case strings.TrimSpace(params.Wilaya) != "":
		wilaya, err = s.locations.ResolveWilaya(ctx, params.Wilaya)
	default:
		err = apperr.ValidationErr.WithMsg("wilaya is required")
	}
	if err != nil {
		return model.Wilaya{}, model.Baladia{}, err
	}

	var baladia model.Baladia
	switch {
	case params.BaladiaID != nil:
		baladia, err = s.locations.GetBaladia(ctx, *params.BaladiaID)
		if err == nil && baladia.WilayaID != wilaya.ID {
			err = apperr.BaladiaNotFoundErr.WithMsg("baladia %d is not in wilaya %d", baladia.ID, wilaya.ID)
		}
	case strings.TrimSpace(params.Baladia) != "":
		baladia, err = s.locations.ResolveBaladia(ctx, wilaya.ID, params.Baladia)
	default:
		err = apperr.ValidationErr.WithMsg("baladia is required")
	}
	if err != nil {
		return model.Wilaya{}, model.Baladia{}, err
	}

	return wilaya, baladia, nil
}

// buildItems prices the requested lines from the catalogue. Lines naming the
// same product are merged.
func (s *orderService) buildItems(ctx context.Context, params []OrderItemParams) ([]model.OrderItem, error) {
	if len(params) == 0 {
		return nil, apperr.ValidationErr.WithMsg("at least one item is required")
	}

	items := make([]model.OrderItem, 0, len(params))
	index := make(map[uuid.UUID]int, len(params))
	for _, p := range params {
		if p.Quantity <= 0 {
			return nil, apperr.ValidationErr.WithMsg("item quantity must be positive")
		}

		var (
			product model.Product
			err     error
		)
		switch {
		case p.ProductID != nil:
			product, err = s.productRepo.GetProduct(ctx, *p.ProductID)
		case strings.TrimSpace(p.SKU) != "":
			product, err = s.productRepo.GetProductBySKU(ctx, strings.ToUpper(strings.TrimSpace(p.SKU)))
		default:
			err = apperr.ValidationErr.WithMsg("item needs a product id or sku")
		}
		if err != nil {
			return nil, err
		}
		if !product.Active {
			return nil, apperr.ProductInactiveErr.WithMsg("product %s is not active", product.SKU)
		}

		unitPrice := product.Price
		if p.UnitPrice != nil {
			if p.UnitPrice.IsNegative() {
				return nil, apperr.ValidationErr.WithMsg("unit price must not be negative")
			}
			unitPrice = *p.UnitPrice
		}

		if i, ok := index[product.ID]; ok {
			items[i].Quantity += p.Quantity
			continue
		}
		index[product.ID] = len(items)
		items = append(items, model.OrderItem{
			ProductID: product.ID,
			SKU:       product.SKU,
			Name:      product.Name,
			Quantity:  p.Quantity,
			UnitPrice: unitPrice,
		})
	}

	return items, nil
}

func (s *orderService) deliveryPrice(
	ctx context.Context,
	wilayaID, baladiaID int,
	deliveryType model.DeliveryType,
	explicit *decimal.Decimal,
) (decimal.Decimal, error) {
	if explicit != nil {
		if explicit.IsNegative() {
			return decimal.Zero, apperr.ValidationErr.WithMsg("delivery price must not be negative")
		}
		b, err := s.locations.GetBaladia(ctx, baladiaID)
		if err != nil {
			return decimal.Zero, err
		}
		if b.WilayaID != wilayaID {
			return decimal.Zero, apperr.BaladiaNotFoundErr.WithMsg("baladia %d is not in wilaya %d", baladiaID, wilayaID)
		}
		return *explicit, nil
	}

	quote, err := s.delivery.Quote(ctx, QuoteParams{
		WilayaID:     wilayaID,
		BaladiaID:    baladiaID,
		DeliveryType: deliveryType,
	})
	if err != nil {
		return decimal.Zero, err
	}
	return quote.Price, nil
}

func normalizePhone(raw string) (string, error) {
	phone, err := dzphone.Normalize(raw)
	if err != nil {
		return "", apperr.InvalidPhoneErr.WithMsg("invalid phone number %q", raw).WrapParent(err)
	}
	return phone, nil
}

const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newReference builds ORD-YYYYMMDD-XXXXXX.
func newReference(now time.Time) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random reference: %w", err)
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), buf), nil
}
