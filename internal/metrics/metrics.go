// Package metrics provides Prometheus instrumentation for the decision flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// DecisionsTotal counts policy decisions by selected action.
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskgate",
			Name:      "decisions_total",
			Help:      "Total policy decisions by action.",
		},
		[]string{"action"},
	)

	// StepUpIssuedTotal counts issued step-up challenges by outcome.
	StepUpIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskgate",
			Name:      "stepup_issued_total",
			Help:      "Total step-up challenge issue attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// StepUpVerifyTotal counts step-up verification attempts by outcome.
	StepUpVerifyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riskgate",
			Name:      "stepup_verify_total",
			Help:      "Total step-up verification attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// AuditWriteFailures counts swallowed auth-log write errors.
	AuditWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "riskgate",
			Name:      "audit_write_failures_total",
			Help:      "Total auth log writes that failed and were swallowed.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		DecisionsTotal,
		StepUpIssuedTotal,
		StepUpVerifyTotal,
		AuditWriteFailures,
	)
}
