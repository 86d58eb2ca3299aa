// Package telemetry provides Prometheus instrumentation for the syncpoint
// server.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the server. A nil *Metrics is
// valid and turns every method into a no-op, so telemetry can be disabled
// without sprinkling conditionals through the call sites.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	activeRequests  prometheus.Gauge

	waitsTotal *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance backed by its own Prometheus
// registry, with the standard Go and process collectors registered.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "syncpoint_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route", "status_code"}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "syncpoint_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		activeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Name: "syncpoint_http_active_requests",
			Help: "Number of currently in-flight HTTP requests",
		}),
		waitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "syncpoint_waits_total",
			Help: "Total number of completed wait calls by outcome",
		}, []string{"outcome"}),
	}
}

// Handler returns the /metrics endpoint handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordWait counts a completed wait call by outcome label.
func (m *Metrics) RecordWait(outcome string) {
	if m == nil {
		return
	}
	m.waitsTotal.WithLabelValues(outcome).Inc()
}

// RegisterActiveWaits exposes the number of in-flight rendezvous entries as
// a gauge sampled at scrape time.
func (m *Metrics) RegisterActiveWaits(fn func() float64) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "syncpoint_active_waits",
		Help: "Number of wait IDs currently awaiting a second party",
	}, fn))
}
