package http

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/service"
)

type orderItemInput struct {
	ProductID *uuid.UUID       `json:"product_id" validate:"required_without=SKU"`
	SKU       string           `json:"sku" validate:"omitempty,sku"`
	Quantity  int              `json:"quantity" validate:"required,gt=0,lte=1000"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"omitempty,gte=0"`
}

type createOrderRequest struct {
	CustomerName  string              `json:"customer_name" validate:"required,max=200"`
	Phone         string              `json:"phone" validate:"required,max=32"`
	Phone2        *string             `json:"phone2" validate:"omitempty,max=32"`
	WilayaID      *int                `json:"wilaya_id" validate:"omitempty,gte=1,lte=58"`
	Wilaya        string              `json:"wilaya" validate:"max=120"`
	BaladiaID     *int                `json:"baladia_id" validate:"omitempty,gt=0"`
	Baladia       string              `json:"baladia" validate:"max=120"`
	Address       string              `json:"address" validate:"max=500"`
	DeliveryType  *model.DeliveryType `json:"delivery_type" validate:"omitempty,enum"`
	DeliveryPrice *decimal.Decimal    `json:"delivery_price" validate:"omitempty,gte=0"`
	Notes         string              `json:"notes" validate:"max=2000"`
	Items         []orderItemInput    `json:"items" validate:"required,min=1,max=50,dive"`
}

type updateOrderRequest struct {
	CustomerName  *string             `json:"customer_name" validate:"omitempty,min=1,max=200"`
	Phone         *string             `json:"phone" validate:"omitempty,max=32"`
	Phone2        *string             `json:"phone2" validate:"omitempty,max=32"`
	WilayaID      *int                `json:"wilaya_id" validate:"omitempty,gte=1,lte=58"`
	BaladiaID     *int                `json:"baladia_id" validate:"omitempty,gt=0"`
	Address       *string             `json:"address" validate:"omitempty,max=500"`
	DeliveryType  *model.DeliveryType `json:"delivery_type" validate:"omitempty,enum"`
	DeliveryPrice *decimal.Decimal    `json:"delivery_price" validate:"omitempty,gte=0"`
	Notes         *string             `json:"notes" validate:"omitempty,max=2000"`
	Items         *[]orderItemInput   `json:"items" validate:"omitempty,min=1,max=50,dive"`
}

type changeStatusRequest struct {
	Status model.OrderStatus `json:"status" validate:"required,enum"`
}

type shipOrderRequest struct {
	AccountID *uuid.UUID `json:"account_id"`
}

type markDispatchedRequest struct {
	TrackingNumber string    `json:"tracking_number" validate:"required,max=64"`
	AccountID      uuid.UUID `json:"account_id" validate:"required"`
}

func toItemParams(items []orderItemInput) []service.OrderItemParams {
	return lo.Map(items, func(it orderItemInput, _ int) service.OrderItemParams {
		return service.OrderItemParams{
			ProductID: it.ProductID,
			SKU:       it.SKU,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	})
}

func (s *Service) listOrders(r *http.Request) (response, error) {
	q := r.URL.Query()
	var (
		filter         model.OrderFilter
		limit, offset  *int
		duplicatesOnly *bool
	)
	binds := []struct {
		name string
		dest any
	}{
		{"status", &filter.Status},
		{"wilaya_id", &filter.WilayaID},
		{"phone", &filter.Phone},
		{"duplicates", &duplicatesOnly},
		{"from", &filter.From},
		{"to", &filter.To},
		{"search", &filter.Search},
		{"limit", &limit},
		{"offset", &offset},
	}
	for _, b := range binds {
		if err := queryParam(q, b.name, b.dest); err != nil {
			return response{}, err
		}
	}
	filter.DuplicatesOnly = lo.FromPtr(duplicatesOnly)
	filter.Limit = lo.FromPtr(limit)
	filter.Offset = lo.FromPtr(offset)

	res, err := s.orderSvc.ListOrders(r.Context(), filter)
	if err != nil {
		return response{}, fmt.Errorf("order service list orders: %w", err)
	}
	if res.Orders == nil {
		res.Orders = []model.Order{}
	}
	return ok(res), nil
}

func (s *Service) createOrder(r *http.Request) (response, error) {
	var req createOrderRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	order, err := s.orderSvc.CreateOrder(r.Context(), service.CreateOrderParams{
		Source:        model.OrderSourceManual,
		CustomerName:  req.CustomerName,
		Phone:         req.Phone,
		Phone2:        req.Phone2,
		WilayaID:      req.WilayaID,
		Wilaya:        req.Wilaya,
		BaladiaID:     req.BaladiaID,
		Baladia:       req.Baladia,
		Address:       req.Address,
		DeliveryType:  lo.FromPtrOr(req.DeliveryType, model.DeliveryTypeHome),
		DeliveryPrice: req.DeliveryPrice,
		Notes:         req.Notes,
		Items:         toItemParams(req.Items),
	})
	if err != nil {
		return response{}, fmt.Errorf("order service create order: %w", err)
	}
	return created(order), nil
}

func (s *Service) getOrder(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}

	order, err := s.orderSvc.GetOrder(r.Context(), id)
	if err != nil {
		return response{}, fmt.Errorf("order service get order: %w", err)
	}
	return ok(order), nil
}

func (s *Service) updateOrder(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}
	var req updateOrderRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	params := service.UpdateOrderParams{
		CustomerName:  mo.PointerToOption(req.CustomerName),
		Phone:         mo.PointerToOption(req.Phone),
		Phone2:        mo.PointerToOption(req.Phone2),
		WilayaID:      mo.PointerToOption(req.WilayaID),
		BaladiaID:     mo.PointerToOption(req.BaladiaID),
		Address:       mo.PointerToOption(req.Address),
		DeliveryType:  mo.PointerToOption(req.DeliveryType),
		DeliveryPrice: mo.PointerToOption(req.DeliveryPrice),
		Notes:         mo.PointerToOption(req.Notes),
	}
	if req.Items != nil {
		params.Items = mo.Some(toItemParams(*req.Items))
	}

	order, err := s.orderSvc.UpdateOrder(r.Context(), id, params)
	if err != nil {
		return response{}, fmt.Errorf("order service update order: %w", err)
	}
	return ok(order), nil
}

func (s *Service) changeOrderStatus(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}
	var req changeStatusRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	order, err := s.orderSvc.ChangeStatus(r.Context(), id, req.Status)
	if err != nil {
		return response{}, fmt.Errorf("order service change status: %w", err)
	}
	return ok(order), nil
}

func (s *Service) shipOrder(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}
	var req shipOrderRequest
	if r.ContentLength != 0 {
		if err := s.decode(r, &req); err != nil {
			return response{}, err
		}
	}

	order, err := s.orderSvc.Ship(r.Context(), id, req.AccountID)
	if err != nil {
		return response{}, fmt.Errorf("order service ship: %w", err)
	}
	return ok(order), nil
}

// markDispatched records a shipment created outside orderdesk, for example
// from the provider's own dashboard.
func (s *Service) markDispatched(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}
	var req markDispatchedRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	order, err := s.orderSvc.MarkDispatched(r.Context(), id, req.TrackingNumber, req.AccountID)
	if err != nil {
		return response{}, fmt.Errorf("order service mark dispatched: %w", err)
	}
	return ok(order), nil
}

func (s *Service) refreshTracking(r *http.Request) (response, error) {
	id, err := pathID(r)
	if err != nil {
		return response{}, err
	}

	res, err := s.orderSvc.RefreshTracking(r.Context(), id)
	if err != nil {
		return response{}, fmt.Errorf("order service refresh tracking: %w", err)
	}
	return ok(res), nil
}
