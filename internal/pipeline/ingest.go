package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telemetry-pipeline/internal/generator"
	"telemetry-pipeline/internal/metrics"
	"telemetry-pipeline/internal/queue"
)

// Producer feeds the ingestion queue on its own timer, independent of all
// downstream state. It never coordinates with the consumption rate; only
// the queue's backpressure policy constrains it.
type Producer struct {
	gen      generator.Generator
	queue    *queue.Queue
	interval time.Duration
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// NewProducer wires a generator to the queue.
func NewProducer(gen generator.Generator, q *queue.Queue, interval time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Producer {
	if interval <= 0 {
		interval = time.Second
	}
	return &Producer{
		gen:      gen,
		queue:    q,
		interval: interval,
		logger:   logger.With().Str("component", "producer").Logger(),
		metrics:  m,
	}
}

// Start launches the producer loop: generate one reading, enqueue, pause,
// forever. It runs until ctx is cancelled.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		var lastDropped uint64
		for {
			r := p.gen.Generate()
			if !p.queue.Enqueue(ctx, r) {
				if ctx.Err() != nil {
					return
				}
				p.logger.Debug().Str("machine_id", r.MachineID()).Msg("reading dropped by queue policy")
			}
			if p.metrics != nil {
				p.metrics.QueueDepth.Set(float64(p.queue.Len()))
				if d := p.queue.Dropped(); d > lastDropped {
					p.metrics.QueueDropped.Add(float64(d - lastDropped))
					lastDropped = d
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
