// Package metrics exposes Prometheus instrumentation for the API and worker
// binaries. Each binary owns its own registry.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPMetrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inflight        prometheus.Gauge
}

func NewHTTPMetrics() *HTTPMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &HTTPMetrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),
	}
	registry.MustRegister(m.requestsTotal, m.requestDuration, m.inflight)
	return m
}

func (m *HTTPMetrics) Registry() *prometheus.Registry { return m.registry }

func (m *HTTPMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPMetrics) ObserveRequest(method, path, status string, elapsed time.Duration) {
	route := normalizeRoute(path)
	m.requestsTotal.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *HTTPMetrics) IncInFlight() { m.inflight.Inc() }
func (m *HTTPMetrics) DecInFlight() { m.inflight.Dec() }

// normalizeRoute collapses matter and file identifiers so the route label
// stays low-cardinality.
func normalizeRoute(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if i > 0 && segments[i-1] == "matters" && seg != "" && seg != "intake" {
			segments[i] = ":matter_id"
		}
		if i > 0 && segments[i-1] == "documents" && seg != "" {
			segments[i] = ":file_id"
		}
	}
	return "/" + strings.Join(segments, "/")
}
