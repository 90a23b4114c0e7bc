package metrics

import "context"

// NoopCollector discards everything.
type NoopCollector struct{}

// NewNoopCollector creates a no-op collector
func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (n *NoopCollector) RecordOperation(ctx context.Context, component string, status string, durationMs int64) {
}

func (n *NoopCollector) RecordStage(ctx context.Context, component string, stage string, durationMs int64) {
}

func (n *NoopCollector) RecordError(ctx context.Context, component string, errorType string) {}

func (n *NoopCollector) SetPersonCount(ctx context.Context, count int64) {}
