package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Label values for the "pipeline" dimension of core metrics.
const (
	PipelineCache     = "cache"
	PipelineRateLimit = "ratelimit"
)

// Label values for the "outcome" dimension of GuardedCalls.
const (
	OutcomeHit     = "hit"
	OutcomeMiss    = "miss"
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// Label values for the "trigger" dimension of Rollbacks.
const (
	RollbackOnDenial  = "denial"
	RollbackOnFailure = "failure"
)

// Metrics contains all engine-level metrics (not per-store)
type Metrics struct {
	// GuardedCalls counts guarded invocations by pipeline and outcome
	GuardedCalls *prometheus.CounterVec

	// BackendErrors counts isolated per-backend operation failures
	BackendErrors *prometheus.CounterVec

	// Rollbacks counts compensation attempts by trigger and status
	Rollbacks *prometheus.CounterVec

	// ActiveStores tracks registered stores by kind
	ActiveStores *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all engine metrics
func NewMetrics() *Metrics {
	return &Metrics{
		GuardedCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "guardrail",
				Subsystem: "pipeline",
				Name:      "guarded_calls_total",
				Help:      "Total number of guarded invocations by pipeline and outcome",
			},
			[]string{"pipeline", "outcome"},
		),

		BackendErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "guardrail",
				Subsystem: "pipeline",
				Name:      "backend_errors_total",
				Help:      "Total number of per-backend operation failures captured by the error handler",
			},
			[]string{"pipeline", "operation"},
		),

		Rollbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "guardrail",
				Subsystem: "pipeline",
				Name:      "rollbacks_total",
				Help:      "Total number of quota rollback attempts by trigger and status",
			},
			[]string{"trigger", "status"},
		),

		ActiveStores: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "guardrail",
				Subsystem: "manager",
				Name:      "active_stores",
				Help:      "Number of stores currently registered, by kind",
			},
			[]string{"kind"},
		),
	}
}

// RecordGuardedCall increments the guarded-call counter for a pipeline outcome
func (m *Metrics) RecordGuardedCall(pipeline, outcome string) {
	m.GuardedCalls.WithLabelValues(pipeline, outcome).Inc()
}

// RecordBackendError increments the backend-error counter for an operation
func (m *Metrics) RecordBackendError(pipeline, operation string) {
	m.BackendErrors.WithLabelValues(pipeline, operation).Inc()
}

// RecordRollback increments the rollback counter for a trigger and status
func (m *Metrics) RecordRollback(trigger string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	m.Rollbacks.WithLabelValues(trigger, status).Inc()
}
