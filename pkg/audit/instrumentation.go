// Copyright 2025 Certen Protocol

package audit

import (
	"time"

	"github.com/certen/aig/pkg/aigerr"
)

// track records an operation start and returns a func to call on exit,
// recording latency and an operations_total increment.
func (e *Engine) track(operation string) func() {
	start := time.Now()
	if e.metrics != nil {
		e.metrics.Operations.WithLabelValues(operation).Inc()
	}
	return func() {
		if e.metrics != nil {
			e.metrics.OperationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		}
	}
}

func (e *Engine) countError(operation string, err error) {
	kind, ok := aigerr.KindOf(err)
	if !ok {
		kind = "unknown"
	}
	e.logger.Warn("audit engine operation failed", "operation", operation, "kind", kind, "error", err)
	if e.metrics != nil {
		e.metrics.OperationErrors.WithLabelValues(operation, string(kind)).Inc()
	}
}
