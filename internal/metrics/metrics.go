// Package metrics exposes the pipeline's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline collectors. Construct one per process and pass
// it to the components that record into it.
type Metrics struct {
	QueueDepth     prometheus.Gauge
	QueueDropped   prometheus.Counter
	StageProcessed *prometheus.CounterVec
	StageFailed    *prometheus.CounterVec
	StageLatency   *prometheus.HistogramVec
	DeadLetters    prometheus.Counter
	ResultsServed  prometheus.Counter
}

// New creates and registers the pipeline collectors on reg. Pass
// prometheus.DefaultRegisterer in binaries and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pipeline_queue_depth",
			Help: "Current number of readings buffered in the ingestion queue.",
		}),
		QueueDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_queue_dropped_total",
			Help: "Readings lost to the queue backpressure policy.",
		}),
		StageProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_stage_processed_total",
			Help: "Readings successfully processed per stage.",
		}, []string{"stage"}),
		StageFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_stage_failed_total",
			Help: "Per-item chain failures per stage.",
		}, []string{"stage"}),
		StageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_stage_latency_seconds",
			Help:    "Execution time of one stage task.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"stage"}),
		DeadLetters: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_dead_letters_total",
			Help: "Failed items routed to the dead-letter table.",
		}),
		ResultsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_results_served_total",
			Help: "Results delivered to the consumption loop.",
		}),
	}

	reg.MustRegister(
		m.QueueDepth, m.QueueDropped,
		m.StageProcessed, m.StageFailed, m.StageLatency,
		m.DeadLetters, m.ResultsServed,
	)
	return m
}

// Nop returns metrics backed by an unexported registry, for callers that do
// not care about observability (mostly tests).
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
