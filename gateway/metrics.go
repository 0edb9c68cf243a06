package gateway

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics is nil-safe: a Gateway built without WithMetrics records nothing.
type metrics struct {
	requests *prometheus.CounterVec
	expiries prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "examflow",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Outbound API requests by method and response code (\"error\" for transport failures).",
		}, []string{"method", "code"}),
		expiries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "examflow",
			Subsystem: "gateway",
			Name:      "session_expiries_total",
			Help:      "Responses that reported an expired credential and cleared the session.",
		}),
	}
	reg.MustRegister(m.requests, m.expiries)
	return m
}

func (m *metrics) response(method string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (m *metrics) transportError(method string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, "error").Inc()
}

func (m *metrics) expired() {
	if m == nil {
		return
	}
	m.expiries.Inc()
}
