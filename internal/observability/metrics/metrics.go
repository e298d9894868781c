package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors. It is constructor
// injected so tests can use their own registry.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	authFailuresTotal   *prometheus.CounterVec
	searchCacheTotal    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interactions_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "interactions_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		authFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interactions_auth_failures_total",
			Help: "Count of failed authentication and authorization checks",
		}, []string{"reason"}),
		searchCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "interactions_search_cache_total",
			Help: "Search cache lookups by outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.authFailuresTotal,
		m.searchCacheTotal,
	)
	return m
}

// ObserveHTTPRequest records one handled request.
func (m *Metrics) ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveAuthFailure counts a failed authentication or authorization
// check by reason.
func (m *Metrics) ObserveAuthFailure(reason string) {
	m.authFailuresTotal.WithLabelValues(reason).Inc()
}

// ObserveSearchCache counts a cache lookup outcome ("hit" or "miss").
func (m *Metrics) ObserveSearchCache(outcome string) {
	m.searchCacheTotal.WithLabelValues(outcome).Inc()
}
