package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records catalog round-trips and served HTTP requests.
type Metrics struct {
	catalogDuration *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
}

// New registers the metrics on the provided registerer. A nil registerer
// yields a Metrics whose methods are no-ops.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	catalogDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_request_duration_seconds",
		Help:    "Duration of remote catalog requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served, by route and status.",
	}, []string{"method", "route", "status"})
	reg.MustRegister(catalogDuration, httpRequests)
	return &Metrics{
		catalogDuration: catalogDuration,
		httpRequests:    httpRequests,
	}
}

// ObserveCatalog records one catalog call.
func (m *Metrics) ObserveCatalog(operation string, err error, d time.Duration) {
	if m == nil || m.catalogDuration == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.catalogDuration.WithLabelValues(operation, outcome).Observe(d.Seconds())
}

// IncHTTP counts one served request. Unmatched routes are folded together.
func (m *Metrics) IncHTTP(method, route string, status int) {
	if m == nil || m.httpRequests == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
