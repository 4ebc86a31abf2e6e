package event

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/pkg/ptr"
)

func (s *Service) handleProductCreated(ctx context.Context, ev ProductCreatedEvent) error {
	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", ev.ProductID.String()),
		slog.String("sku", ev.SKU),
		slog.Int("stock", ev.Stock),
	)
	return nil
}

func (s *Service) handleOrderCreated(ctx context.Context, ev OrderCreatedEvent) error {
	s.metrics.orderCreated(ev.Source, ev.DuplicateOf != nil)

	attrs := []any{
		slog.String("order_id", ev.OrderID.String()),
		slog.String("reference", ev.Reference),
		slog.String("source", string(ev.Source)),
		slog.Int("wilaya_id", ev.WilayaID),
	}
	if ev.DuplicateOf != nil {
		s.logger.WarnContext(ctx, "possible duplicate order",
			append(attrs, slog.String("duplicate_of", ev.DuplicateOf.String()))...,
		)
		return nil
	}

	s.logger.InfoContext(ctx, "order created", attrs...)
	return nil
}

func (s *Service) handleOrderStatusChanged(ctx context.Context, ev OrderStatusChangedEvent) error {
	s.metrics.statusChanged(ev.From, ev.To)

	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", ev.OrderID.String()),
		slog.String("reference", ev.Reference),
		slog.String("from", string(ev.From)),
		slog.String("to", string(ev.To)),
	)
	return nil
}

// handleOrderConfirmed ships the order when auto dispatch is on. Orders that
// moved on before the event arrived are left alone.
func (s *Service) handleOrderConfirmed(ctx context.Context, ev OrderConfirmedEvent) error {
	if !s.cfg.AutoDispatch {
		return nil
	}

	order, err := s.shipper.Ship(ctx, ev.OrderID, ev.ShippingAccountID)
	switch {
	case errors.Is(err, apperr.OrderNotShippableErr), errors.Is(err, apperr.OrderNotFoundErr):
		s.logger.InfoContext(ctx, "skip auto dispatch",
			slog.String("reference", ev.Reference),
			slog.String("reason", err.Error()),
		)
		s.metrics.autoDispatched("skipped")
		return nil
	case err != nil:
		s.metrics.autoDispatched("failed")
		return err
	}

	s.metrics.autoDispatched("dispatched")
	s.logger.InfoContext(ctx, "order auto dispatched",
		slog.String("reference", order.Reference),
		slog.String("tracking", ptr.Deref(order.TrackingNumber)),
	)
	return nil
}
