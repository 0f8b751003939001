package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks calls to the remote Readify API and login outcomes.
type Metrics struct {
	APIRequests        *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	Logins             *prometheus.CounterVec
}

// New registers all frontend metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		APIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "readify_api_requests_total",
			Help: "Requests sent to the Readify API by method, route and status code (0 for transport failures)",
		}, []string{"method", "route", "status"}),
		APIRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "readify_api_request_duration_seconds",
			Help:    "Latency of Readify API requests",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "readify_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveAPIRequest records one API call. Call with time.Now() taken before the request was sent.
func (m *Metrics) ObserveAPIRequest(method, route string, status int, start time.Time) {
	m.APIRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.APIRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveLogin(outcome string) {
	m.Logins.WithLabelValues(outcome).Inc()
}
