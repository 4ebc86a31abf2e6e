package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/orderdesk/internal/config"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/mq"
)

// OrderShipper ships confirmed orders.
type OrderShipper interface {
	Ship(ctx context.Context, id uuid.UUID, accountID *uuid.UUID) (model.Order, error)
}

// Service consumes the domain events relayed from the outbox.
type Service struct {
	cfg        config.Shipping
	logger     *slog.Logger
	mqConsumer mq.Consumer
	shipper    OrderShipper
	metrics    *Metrics
}

// New creates a new event service.
func New(
	cfg config.Shipping,
	logger *slog.Logger,
	mqConsumer mq.Consumer,
	shipper OrderShipper,
	metrics *Metrics,
) *Service {
	return &Service{
		cfg:        cfg,
		logger:     logger.With(slog.String("service", "event")),
		mqConsumer: mqConsumer,
		shipper:    shipper,
		metrics:    metrics,
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	handlers := map[string]mq.HandlerFunc{
		TopicProductCreated:     handle(s.handleProductCreated),
		TopicOrderCreated:       handle(s.handleOrderCreated),
		TopicOrderStatusChanged: handle(s.handleOrderStatusChanged),
		TopicOrderConfirmed:     handle(s.handleOrderConfirmed),
	}
	for topic, fn := range handlers {
		if err := s.mqConsumer.RegisterHandler(topic, fn); err != nil {
			return nil, fmt.Errorf("register %s event handler: %w", topic, err)
		}
	}

	mqCleanup, err := s.mqConsumer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run mq consumer: %w", err)
	}

	cleanup := func() {
		mqCleanup()
	}

	return cleanup, nil
}

// handle decodes the payload into T before calling fn.
func handle[T any](fn func(context.Context, T) error) mq.HandlerFunc {
	return func(ctx context.Context, topic string, payload []byte) error {
		var ev T
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s event: %w", topic, err)
		}

		if err := fn(ctx, ev); err != nil {
			return fmt.Errorf("handle %s event: %w", topic, err)
		}

		return nil
	}
}
