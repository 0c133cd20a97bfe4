package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus metrics for the service
type Metrics struct {
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	WriteAttempts    *prometheus.CounterVec
	WriteOutcomes    *prometheus.CounterVec
	HookOutcomes     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates a metrics set registered on reg
func NewMetrics(serviceName string, reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notebin",
				Subsystem: serviceName,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "notebin",
				Subsystem: serviceName,
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "notebin",
				Subsystem: serviceName,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		WriteAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notebin",
				Subsystem: serviceName,
				Name:      "store_write_attempts_total",
				Help:      "Optimistic write attempts by result (committed, conflict, error)",
			},
			[]string{"result"},
		),
		WriteOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notebin",
				Subsystem: serviceName,
				Name:      "store_writes_total",
				Help:      "Logical optimistic writes by outcome (committed, failed, rejected)",
			},
			[]string{"outcome"},
		),
		HookOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notebin",
				Subsystem: serviceName,
				Name:      "content_hook_calls_total",
				Help:      "Content pipeline hook calls by hook and outcome (applied, fallback)",
			},
			[]string{"hook", "outcome"},
		),
		gatherer: reg,
	}
}

// Handler serves the metrics in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request count, duration and in-flight requests.
// The route label is the matched ServeMux pattern, which keeps label
// cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		start := time.Now()
		captured := httpsnoop.CaptureMetrics(next, w, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(captured.Code)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
