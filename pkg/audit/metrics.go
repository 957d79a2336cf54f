// Copyright 2025 Certen Protocol
//
// Engine-level metrics. The teacher's go.mod carries
// prometheus/client_golang but no teacher source file actually
// registers a collector with it; this is the audit engine's home for
// that otherwise-unwired dependency.

package audit

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the counters/histograms the engine updates on every
// public operation.
type Metrics struct {
	Operations      *prometheus.CounterVec
	OperationErrors *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
	ProofSubmissions prometheus.Counter
}

// NewMetrics registers a fresh Metrics set against reg. Pass
// prometheus.NewRegistry() for isolated tests, or
// prometheus.DefaultRegisterer for production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aig",
			Subsystem: "audit",
			Name:      "operations_total",
			Help:      "Audit engine operations by name.",
		}, []string{"operation"}),
		OperationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aig",
			Subsystem: "audit",
			Name:      "operation_errors_total",
			Help:      "Audit engine operation failures by name and error kind.",
		}, []string{"operation", "kind"}),
		OperationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aig",
			Subsystem: "audit",
			Name:      "operation_duration_seconds",
			Help:      "Audit engine operation latency by name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		ProofSubmissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aig",
			Subsystem: "audit",
			Name:      "proof_submissions_total",
			Help:      "Proof collaborator submissions issued.",
		}),
	}
	reg.MustRegister(m.Operations, m.OperationErrors, m.OperationLatency, m.ProofSubmissions)
	return m
}
