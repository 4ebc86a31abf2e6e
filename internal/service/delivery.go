package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/repository"
)

type QuoteParams struct {
	WilayaID     int
	BaladiaID    int
	DeliveryType model.DeliveryType
}

type PriceLevel string

const (
	PriceLevelCommune PriceLevel = "commune"
	PriceLevelWilaya  PriceLevel = "wilaya"
)

type Quote struct {
	WilayaID     int                `json:"wilaya_id"`
	BaladiaID    int                `json:"baladia_id"`
	DeliveryType model.DeliveryType `json:"delivery_type"`
	Price        decimal.Decimal    `json:"price"`
	Level        PriceLevel         `json:"level"`
}

type DeliveryService interface {
	// Quote prefers a commune price over the wilaya price.
	Quote(ctx context.Context, params QuoteParams) (Quote, error)
	SetPrice(ctx context.Context, price model.DeliveryPrice) (model.DeliveryPrice, error)
	DeletePrice(ctx context.Context, wilayaID int, baladiaID *int, deliveryType model.DeliveryType) error
	ListPrices(ctx context.Context, wilayaID *int) ([]model.DeliveryPrice, error)
}

type deliveryService struct {
	locations         LocationService
	deliveryPriceRepo repository.DeliveryPriceRepository
}

func NewDeliveryService(
	locations LocationService,
	deliveryPriceRepo repository.DeliveryPriceRepository,
) DeliveryService {
	return &deliveryService{
		locations:         locations,
		deliveryPriceRepo: deliveryPriceRepo,
	}
}

func (s *deliveryService) Quote(ctx context.Context, params QuoteParams) (Quote, error) {
	if err := params.DeliveryType.Validate(); err != nil {
		return Quote{}, apperr.ValidationErr.WithMsg("%s", err.Error())
	}

	baladia, err := s.locations.GetBaladia(ctx, params.BaladiaID)
	if err != nil {
		return Quote{}, err
	}
	if baladia.WilayaID != params.WilayaID {
		return Quote{}, apperr.BaladiaNotFoundErr.WithMsg("baladia %d is not in wilaya %d", params.BaladiaID, params.WilayaID)
	}
	if params.DeliveryType == model.DeliveryTypeStopDesk && !baladia.HasStopDesk {
		return Quote{}, apperr.StopDeskUnavailableErr
	}

	prices, err := s.deliveryPriceRepo.FindPrices(ctx, params.WilayaID, &params.BaladiaID, params.DeliveryType)
	if err != nil {
		return Quote{}, fmt.Errorf("delivery price repository find prices: %w", err)
	}

	q := Quote{
		WilayaID:     params.WilayaID,
		BaladiaID:    params.BaladiaID,
		DeliveryType: params.DeliveryType,
	}
	var wilayaPrice *model.DeliveryPrice
	for i, p := range prices {
		if p.BaladiaID != nil && *p.BaladiaID == params.BaladiaID {
			q.Price, q.Level = p.Price, PriceLevelCommune
			return q, nil
		}
		if p.BaladiaID == nil {
			wilayaPrice = &prices[i]
		}
	}
	if wilayaPrice == nil {
		return Quote{}, apperr.DeliveryPriceNotFoundErr
	}

	q.Price, q.Level = wilayaPrice.Price, PriceLevelWilaya
	return q, nil
}

func (s *deliveryService) SetPrice(ctx context.Context, price model.DeliveryPrice) (model.DeliveryPrice, error) {
	if err := price.Type.Validate(); err != nil {
		return model.DeliveryPrice{}, apperr.ValidationErr.WithMsg("%s", err.Error())
	}
	if price.Price.IsNegative() {
		return model.DeliveryPrice{}, apperr.ValidationErr.WithMsg("price must not be negative")
	}
	if _, err := s.locations.GetWilaya(ctx, price.WilayaID); err != nil {
		return model.DeliveryPrice{}, err
	}
	if price.BaladiaID != nil {
		b, err := s.locations.GetBaladia(ctx, *price.BaladiaID)
		if err != nil {
			return model.DeliveryPrice{}, err
		}
		if b.WilayaID != price.WilayaID {
			return model.DeliveryPrice{}, apperr.BaladiaNotFoundErr.WithMsg("baladia %d is not in wilaya %d", b.ID, price.WilayaID)
		}
	}

	if err := s.deliveryPriceRepo.UpsertPrice(ctx, price); err != nil {
		return model.DeliveryPrice{}, fmt.Errorf("delivery price repository upsert price: %w", err)
	}

	return price, nil
}

func (s *deliveryService) DeletePrice(ctx context.Context, wilayaID int, baladiaID *int, deliveryType model.DeliveryType) error {
	if err := s.deliveryPriceRepo.DeletePrice(ctx, wilayaID, baladiaID, deliveryType); err != nil {
		return fmt.Errorf("delivery price repository delete price: %w", err)
	}
	return nil
}

func (s *deliveryService) ListPrices(ctx context.Context, wilayaID *int) ([]model.DeliveryPrice, error) {
	prices, err := s.deliveryPriceRepo.ListPrices(ctx, wilayaID)
	if err != nil {
		return nil, fmt.Errorf("delivery price repository list prices: %w", err)
	}
	return prices, nil
}
