package services

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/manthysbr/muse/internal/core/domain"
)

// RoutingMetrics counts backend attempts and task outcomes.
type RoutingMetrics struct {
	attempts *prometheus.CounterVec
	outcomes *prometheus.CounterVec
}

// NewRoutingMetrics creates the counters and registers them on reg.
func NewRoutingMetrics(reg prometheus.Registerer) *RoutingMetrics {
	m := &RoutingMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "muse",
			Name:      "backend_attempts_total",
			Help:      "Backend attempts made by the orchestrator.",
		}, []string{"task", "backend", "result"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "muse",
			Name:      "task_outcomes_total",
			Help:      "Orchestrator runs by task and final result.",
		}, []string{"task", "result"}),
	}
	reg.MustRegister(m.attempts, m.outcomes)
	return m
}

func (m *RoutingMetrics) RecordAttempt(attempt domain.RoutingAttempt) {
	m.attempts.WithLabelValues(string(attempt.Task), string(attempt.Backend), resultLabel(attempt.Succeeded, attempt.ErrorKind)).Inc()
}

func (m *RoutingMetrics) RecordOutcome(outcome domain.RoutingOutcome) {
	m.outcomes.WithLabelValues(string(outcome.Task), resultLabel(outcome.Succeeded, outcome.ErrorKind)).Inc()
}

func resultLabel(ok bool, kind domain.ErrorKind) string {
	if ok {
		return "success"
	}
	if kind == domain.KindNone {
		return string(domain.KindInternal)
	}
	return string(kind)
}
