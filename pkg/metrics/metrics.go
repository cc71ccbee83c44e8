// Package metrics declares the Prometheus collectors exported on /metrics.
// Collectors register with the default registry at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "attendance"

func counter(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
}

var (
	// SignatureLogins is labelled by result: success, mismatch or failure.
	SignatureLogins = counter("signature_logins_total", "Signature login attempts.", "result")

	// PermissionChecks is labelled by action and result: allowed, denied or error.
	PermissionChecks = counter("permission_checks_total", "Permission evaluations.", "action", "result")

	// StateTransitions result is applied or conflict.
	StateTransitions = counter("state_transitions_total", "Workflow state transitions.", "entity", "transition", "result")

	CheckIns = counter("check_ins_total", "Attendance check-ins by result.", "result")

	// CacheLookups covers event short-code resolution: hit, miss or error.
	CacheLookups = counter("cache_lookups_total", "Event short-code cache lookups.", "result")

	APILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_latency_seconds",
		Help:      "HTTP request latency by matched route.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "route", "status"})
)
