// Package metrics exposes Prometheus instrumentation for the HTTP layer
// and the split/settlement computations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the registered collectors. One instance is shared by the
// router and the services.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	allocationsTotal *prometheus.CounterVec
	settlementsTotal prometheus.Counter
	transfersEmitted prometheus.Counter
}

// New creates a Metrics instance with its own registry, so tests can
// instantiate it repeatedly without duplicate-registration panics.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "splitly_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "splitly_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		allocationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "splitly_allocations_total",
			Help: "Line-item allocations by split policy.",
		}, []string{"policy"}),
		settlementsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "splitly_settlement_runs_total",
			Help: "Debt-simplification computations performed.",
		}),
		transfersEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "splitly_settlement_transfers_total",
			Help: "Transfers emitted by the settlement engine.",
		}),
	}
}

// Handler returns the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAllocation counts one allocation under the given policy.
func (m *Metrics) ObserveAllocation(policy string) {
	m.allocationsTotal.WithLabelValues(policy).Inc()
}

// ObserveSettlement counts one settlement run and its emitted transfers.
func (m *Metrics) ObserveSettlement(transfers int) {
	m.settlementsTotal.Inc()
	m.transfersEmitted.Add(float64(transfers))
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware instruments request counts and latency.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		m.requestsTotal.WithLabelValues(r.Method, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
