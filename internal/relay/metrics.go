package relay

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Messages      *prometheus.CounterVec
	BatchDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "relay",
			Name:      "messages_total",
			Help:      "Outbox messages relayed by topic and outcome.",
		}, []string{"topic", "outcome"}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "orderdesk",
			Subsystem: "relay",
			Name:      "batch_duration_seconds",
			Help:      "Time to relay one outbox batch.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observeMessage(topic string, err error) {
	if m == nil {
		return
	}
	outcome := "published"
	if err != nil {
		outcome = "failed"
	}
	m.Messages.WithLabelValues(topic, outcome).Inc()
}

func (m *Metrics) observeBatch(d time.Duration) {
	if m == nil {
		return
	}
	m.BatchDuration.Observe(d.Seconds())
}
