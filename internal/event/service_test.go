package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/config"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/mq"
	"github.com/tuanvumaihuynh/orderdesk/pkg/ptr"
)

type fakeConsumer struct {
	handlers map[string]mq.HandlerFunc
	running  bool
}

func (c *fakeConsumer) RegisterHandler(topic string, handler mq.HandlerFunc) error {
	if c.handlers == nil {
		c.handlers = make(map[string]mq.HandlerFunc)
	}
	c.handlers[topic] = handler
	return nil
}

func (c *fakeConsumer) Run(context.Context) (mq.CleanupFunc, error) {
	c.running = true
	return func() { c.running = false }, nil
}

func (c *fakeConsumer) deliver(t *testing.T, topic string, ev any) error {
	t.Helper()
	payload, err := json.Marshal(ev)
	require.NoError(t, err)
	fn, ok := c.handlers[topic]
	require.True(t, ok, topic)
	return fn(context.Background(), topic, payload)
}

type fakeShipper struct {
	err   error
	calls []uuid.UUID
}

func (s *fakeShipper) Ship(_ context.Context, id uuid.UUID, _ *uuid.UUID) (model.Order, error) {
	s.calls = append(s.calls, id)
	if s.err != nil {
		return model.Order{}, s.err
	}
	return model.Order{ID: id, Reference: "ORD-1", TrackingNumber: ptr.New("T1")}, nil
}

func newTestService(t *testing.T, autoDispatch bool) (*Service, *fakeConsumer, *fakeShipper, *Metrics) {
	t.Helper()
	consumer := &fakeConsumer{}
	shipper := &fakeShipper{}
	metrics := NewMetrics(prometheus.NewRegistry())
	svc := New(config.Shipping{AutoDispatch: autoDispatch}, slog.New(slog.DiscardHandler), consumer, shipper, metrics)

	cleanup, err := svc.Run(context.Background())
	require.NoError(t, err)
	t.Cleanup(cleanup)
	require.True(t, consumer.running)

	return svc, consumer, shipper, metrics
}

func TestRunRegistersEveryTopic(t *testing.T) {
	_, consumer, _, _ := newTestService(t, false)

	assert.Len(t, consumer.handlers, 4)
	for _, topic := range []string{TopicProductCreated, TopicOrderCreated, TopicOrderStatusChanged, TopicOrderConfirmed} {
		assert.Contains(t, consumer.handlers, topic)
	}
}

func TestOrderConfirmedAutoDispatch(t *testing.T) {
	id := uuid.New()

	t.Run("disabled", func(t *testing.T) {
		_, consumer, shipper, _ := newTestService(t, false)
		require.NoError(t, consumer.deliver(t, TopicOrderConfirmed, OrderConfirmedEvent{OrderID: id}))
		assert.Empty(t, shipper.calls)
	})

	t.Run("ships the order", func(t *testing.T) {
		_, consumer, shipper, metrics := newTestService(t, true)
		require.NoError(t, consumer.deliver(t, TopicOrderConfirmed, OrderConfirmedEvent{OrderID: id}))
		assert.Equal(t, []uuid.UUID{id}, shipper.calls)
		assert.InDelta(t, 1, testutil.ToFloat64(metrics.AutoDispatches.WithLabelValues("dispatched")), 0)
	})

	t.Run("skips orders no longer confirmed", func(t *testing.T) {
		_, consumer, shipper, metrics := newTestService(t, true)
		shipper.err = apperr.OrderNotShippableErr
		require.NoError(t, consumer.deliver(t, TopicOrderConfirmed, OrderConfirmedEvent{OrderID: id}))
		assert.InDelta(t, 1, testutil.ToFloat64(metrics.AutoDispatches.WithLabelValues("skipped")), 0)
	})

	t.Run("reports shipping failures", func(t *testing.T) {
		_, consumer, shipper, metrics := newTestService(t, true)
		shipper.err = apperr.ShippingFailedErr
		err := consumer.deliver(t, TopicOrderConfirmed, OrderConfirmedEvent{OrderID: id})
		require.ErrorIs(t, err, apperr.ShippingFailedErr)
		assert.InDelta(t, 1, testutil.ToFloat64(metrics.AutoDispatches.WithLabelValues("failed")), 0)
	})
}

func TestOrderEventsMetrics(t *testing.T) {
	_, consumer, _, metrics := newTestService(t, false)

	require.NoError(t, consumer.deliver(t, TopicOrderCreated, OrderCreatedEvent{OrderID: uuid.New(), Source: model.OrderSourceSheets}))
	dup := uuid.New()
	require.NoError(t, consumer.deliver(t, TopicOrderCreated, OrderCreatedEvent{OrderID: uuid.New(), Source: model.OrderSourceSheets, DuplicateOf: &dup}))
	require.NoError(t, consumer.deliver(t, TopicOrderStatusChanged, OrderStatusChangedEvent{
		OrderID: uuid.New(),
		From:    model.OrderStatusNew,
		To:      model.OrderStatusConfirmed,
	}))

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.OrdersCreated.WithLabelValues("sheets", "false")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.OrdersCreated.WithLabelValues("sheets", "true")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.StatusChanges.WithLabelValues("new", "confirmed")), 0)

	err := consumer.handlers[TopicOrderCreated](context.Background(), TopicOrderCreated, []byte("{"))
	require.Error(t, err)
}
