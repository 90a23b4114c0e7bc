package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector keeps sweep metrics in its own registry.
type PrometheusCollector struct {
	runsTotal     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	errorsTotal   *prometheus.CounterVec
	persons       prometheus.Gauge
	registry      *prometheus.Registry
}

// NewPrometheusCollector creates a collector with a fresh registry.
func NewPrometheusCollector() *PrometheusCollector {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidemark_person_runs_total",
			Help: "Per-person component runs by component and status",
		},
		[]string{"component", "status"},
	)

	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tidemark_stage_duration_seconds",
			Help:    "Duration of read, compute and write stages by component",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"component", "stage"},
	)

	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tidemark_errors_total",
			Help: "Errors by component and classified type",
		},
		[]string{"component", "error_type"},
	)

	persons := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tidemark_persons",
		Help: "Persons seen by the last sweep",
	})

	registry.MustRegister(runsTotal, stageDuration, errorsTotal, persons)

	return &PrometheusCollector{
		runsTotal:     runsTotal,
		stageDuration: stageDuration,
		errorsTotal:   errorsTotal,
		persons:       persons,
		registry:      registry,
	}
}

// RecordOperation counts one finished per-person run.
func (m *PrometheusCollector) RecordOperation(ctx context.Context, component string, status string, durationMs int64) {
	m.runsTotal.WithLabelValues(component, status).Inc()
	m.stageDuration.WithLabelValues(component, "total").Observe(float64(durationMs) / 1000.0)
}

// RecordStage observes the duration of one stage.
func (m *PrometheusCollector) RecordStage(ctx context.Context, component string, stage string, durationMs int64) {
	m.stageDuration.WithLabelValues(component, stage).Observe(float64(durationMs) / 1000.0)
}

// RecordError counts a classified error.
func (m *PrometheusCollector) RecordError(ctx context.Context, component string, errorType string) {
	m.errorsTotal.WithLabelValues(component, errorType).Inc()
}

// SetPersonCount sets the population gauge.
func (m *PrometheusCollector) SetPersonCount(ctx context.Context, count int64) {
	m.persons.Set(float64(count))
}

// Registry returns the Prometheus registry for HTTP exposure.
func (m *PrometheusCollector) Registry() *prometheus.Registry {
	return m.registry
}
