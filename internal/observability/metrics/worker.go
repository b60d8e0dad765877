package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics instruments the audit worker.
type WorkerMetrics struct {
	registry *prometheus.Registry

	eventsProcessed *prometheus.CounterVec
}

func NewWorkerMetrics() *WorkerMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &WorkerMetrics{
		registry: registry,
		eventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_events_processed_total",
			Help: "Audit events consumed from the stream by outcome.",
		}, []string{"outcome"}),
	}
	registry.MustRegister(m.eventsProcessed)
	return m
}

func (m *WorkerMetrics) EventProcessed(outcome string) {
	m.eventsProcessed.WithLabelValues(outcome).Inc()
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
