package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/letzgrade/letzgrade/pkg/grades"
)

// Metrics holds the Prometheus collectors for the API.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	targets  *prometheus.CounterVec
	gatherer prometheus.Gatherer
}

// NewMetrics registers the API collectors on reg. When reg is also a
// Gatherer, Handler serves its contents.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "letzgrade",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "letzgrade",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		targets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "letzgrade",
			Name:      "target_queries_total",
			Help:      "Target-grade queries by outcome.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.requests, m.latency, m.targets)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Handler serves the registered metrics.
func (m *Metrics) Handler() http.Handler {
	if m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRequest(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.latency.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) observeTarget(reason grades.Reason) {
	if m == nil {
		return
	}
	m.targets.WithLabelValues(string(reason)).Inc()
}
