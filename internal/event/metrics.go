package event

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tuanvumaihuynh/orderdesk/internal/model"
)

type Metrics struct {
	OrdersCreated  *prometheus.CounterVec
	StatusChanges  *prometheus.CounterVec
	AutoDispatches *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OrdersCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Orders created by source and duplicate flag.",
		}, []string{"source", "duplicate"}),
		StatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "orders",
			Name:      "status_changes_total",
			Help:      "Order status transitions.",
		}, []string{"from", "to"}),
		AutoDispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "orders",
			Name:      "auto_dispatches_total",
			Help:      "Shipments attempted from order.confirmed events by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) orderCreated(source model.OrderSource, duplicate bool) {
	if m == nil {
		return
	}
	m.OrdersCreated.WithLabelValues(string(source), strconv.FormatBool(duplicate)).Inc()
}

func (m *Metrics) statusChanged(from, to model.OrderStatus) {
	if m == nil {
		return
	}
	m.StatusChanges.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) autoDispatched(outcome string) {
	if m == nil {
		return
	}
	m.AutoDispatches.WithLabelValues(outcome).Inc()
}
