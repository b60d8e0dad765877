package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/casebinder/casebinder/internal/core/domain"
)

// EngineMetrics implements the compilation-engine telemetry port.
type EngineMetrics struct {
	lowConfidence   *prometheus.CounterVec
	binderCompiles  *prometheus.CounterVec
	deadlineBlocked *prometheus.CounterVec
}

func NewEngineMetrics(registry *prometheus.Registry) *EngineMetrics {
	m := &EngineMetrics{
		lowConfidence: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "low_confidence_classifications_total",
			Help: "Uploads routed to review because classification confidence fell under the threshold.",
		}, []string{"forum", "profile"}),
		binderCompiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "binder_compile_total",
			Help: "Binder compilations by resulting integrity status.",
		}, []string{"status"}),
		deadlineBlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deadline_blocked_total",
			Help: "Package evaluations blocked by an elapsed filing deadline.",
		}, []string{"forum", "profile"}),
	}
	registry.MustRegister(m.lowConfidence, m.binderCompiles, m.deadlineBlocked)
	return m
}

func (m *EngineMetrics) LowConfidenceClassification(forum, profile string) {
	m.lowConfidence.WithLabelValues(forum, profile).Inc()
}

func (m *EngineMetrics) BinderCompiled(status domain.IntegrityStatus) {
	m.binderCompiles.WithLabelValues(string(status)).Inc()
}

func (m *EngineMetrics) DeadlineBlocked(forum, profile string) {
	m.deadlineBlocked.WithLabelValues(forum, profile).Inc()
}
