// Package metrics records sweep activity. The Prometheus collector backs
// GET /metrics; the no-op collector is used when metrics are disabled.
package metrics

import "context"

// Collector is the interface for metrics collection.
type Collector interface {
	RecordOperation(ctx context.Context, component string, status string, durationMs int64)
	RecordStage(ctx context.Context, component string, stage string, durationMs int64)
	RecordError(ctx context.Context, component string, errorType string)
	SetPersonCount(ctx context.Context, count int64)
}
