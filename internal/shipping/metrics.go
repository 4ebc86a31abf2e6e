package shipping

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess  = "success"
	outcomeAccount  = "account_error"
	outcomeRejected = "rejected"
)

type Metrics struct {
	Requests *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderdesk",
			Subsystem: "shipping",
			Name:      "requests_total",
			Help:      "Shipping provider calls by account, operation and outcome.",
		}, []string{"provider", "account", "operation", "outcome"}),
	}
}

func (m *Metrics) observe(provider, account, operation string, err error) {
	if m == nil {
		return
	}

	outcome := outcomeSuccess
	switch {
	case err == nil:
	case IsRequestError(err):
		outcome = outcomeRejected
	default:
		outcome = outcomeAccount
	}

	m.Requests.WithLabelValues(provider, account, operation, outcome).Inc()
}
