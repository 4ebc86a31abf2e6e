package http

import (
	"fmt"
	"net/http"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/service"
)

type setDeliveryPriceRequest struct {
	WilayaID  int                `json:"wilaya_id" validate:"required,gte=1,lte=58"`
	BaladiaID *int               `json:"baladia_id" validate:"omitempty,gt=0"`
	Type      model.DeliveryType `json:"type" validate:"required,enum"`
	Price     decimal.Decimal    `json:"price" validate:"gte=0"`
}

func (s *Service) quoteDelivery(r *http.Request) (response, error) {
	q := r.URL.Query()
	var params service.QuoteParams
	if err := requiredQueryParam(q, "wilaya_id", &params.WilayaID); err != nil {
		return response{}, err
	}
	if err := requiredQueryParam(q, "baladia_id", &params.BaladiaID); err != nil {
		return response{}, err
	}
	var deliveryType *model.DeliveryType
	if err := queryParam(q, "type", &deliveryType); err != nil {
		return response{}, err
	}
	params.DeliveryType = lo.FromPtrOr(deliveryType, model.DeliveryTypeHome)

	quote, err := s.deliverySvc.Quote(r.Context(), params)
	if err != nil {
		return response{}, fmt.Errorf("delivery service quote: %w", err)
	}
	return ok(quote), nil
}

func (s *Service) listDeliveryPrices(r *http.Request) (response, error) {
	var wilayaID *int
	if err := queryParam(r.URL.Query(), "wilaya_id", &wilayaID); err != nil {
		return response{}, err
	}

	prices, err := s.deliverySvc.ListPrices(r.Context(), wilayaID)
	if err != nil {
		return response{}, fmt.Errorf("delivery service list prices: %w", err)
	}
	return ok(list(prices)), nil
}

func (s *Service) setDeliveryPrice(r *http.Request) (response, error) {
	var req setDeliveryPriceRequest
	if err := s.decode(r, &req); err != nil {
		return response{}, err
	}

	price, err := s.deliverySvc.SetPrice(r.Context(), model.DeliveryPrice{
		WilayaID:  req.WilayaID,
		BaladiaID: req.BaladiaID,
		Type:      req.Type,
		Price:     req.Price,
	})
	if err != nil {
		return response{}, fmt.Errorf("delivery service set price: %w", err)
	}
	return ok(price), nil
}

func (s *Service) deleteDeliveryPrice(r *http.Request) (response, error) {
	q := r.URL.Query()
	var (
		wilayaID     int
		baladiaID    *int
		deliveryType model.DeliveryType
	)
	if err := requiredQueryParam(q, "wilaya_id", &wilayaID); err != nil {
		return response{}, err
	}
	if err := queryParam(q, "baladia_id", &baladiaID); err != nil {
		return response{}, err
	}
	if err := requiredQueryParam(q, "type", &deliveryType); err != nil {
		return response{}, err
	}

	if err := s.deliverySvc.DeletePrice(r.Context(), wilayaID, baladiaID, deliveryType); err != nil {
		return response{}, fmt.Errorf("delivery service delete price: %w", err)
	}
	return noContent(), nil
}
