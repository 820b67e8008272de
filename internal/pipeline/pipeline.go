// Package pipeline wires the staged telemetry pipeline: a producer-fed
// queue, the distribution layer chaining validate → enrich → persist over a
// worker pool, and a bounded consumption loop over the completed results.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"telemetry-pipeline/internal/directory"
	"telemetry-pipeline/internal/distribute"
	"telemetry-pipeline/internal/metrics"
	"telemetry-pipeline/internal/model"
	"telemetry-pipeline/internal/queue"
	"telemetry-pipeline/internal/store"
)

// Stage names, in chain order.
const (
	StageValidate = "validate"
	StageEnrich   = "enrich"
	StagePersist  = "persist"
)

// chain is the fixed per-item stage order.
var chain = []string{StageValidate, StageEnrich, StagePersist}

// NewStages builds the stage registry executed by the worker pool.
func NewStages(schema model.SchemaSpec, dir *directory.Directory, st *store.Store, logger zerolog.Logger) distribute.Stages {
	return distribute.Stages{
		StageValidate: NewValidateStage(schema, logger),
		StageEnrich:   NewEnrichStage(dir, logger),
		StagePersist:  NewPersistStage(st, logger),
	}
}

// Pipeline drives readings from the queue through the distribution layer
// and forwards completed results, dead-lettering failed items on the way.
type Pipeline struct {
	queue        *queue.Queue
	pool         distribute.Pool
	store        *store.Store
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	pollInterval time.Duration
	results      chan model.TaskResult
}

// New assembles a pipeline over an already-constructed queue, pool and
// store.
func New(q *queue.Queue, pool distribute.Pool, st *store.Store, logger zerolog.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		queue:        q,
		pool:         pool,
		store:        st,
		logger:       logger.With().Str("component", "pipeline").Logger(),
		metrics:      m,
		pollInterval: 50 * time.Millisecond,
		results:      make(chan model.TaskResult, 64),
	}
}

// Start launches the distribution loop: drain whatever the producer has
// queued, hand the batch to the pool, chain the stages, and forward results
// in completion order. Runs until ctx is cancelled.
func (p *Pipeline) Start(ctx context.Context) {
	go func() {
		defer close(p.results)
		for {
			if ctx.Err() != nil {
				return
			}

			batch := p.queue.Drain()
			if p.metrics != nil {
				p.metrics.QueueDepth.Set(float64(p.queue.Len()))
			}
			if len(batch) == 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(p.pollInterval):
				}
				continue
			}

			handles := p.pool.Distribute(ctx, batch)
			for _, stage := range chain {
				handles = p.pool.Apply(stage, handles)
			}

			for res := range distribute.Collect(ctx, handles) {
				if res.Failed() {
					p.deadLetter(ctx, res)
				}
				select {
				case p.results <- res:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

// Results exposes the stream of completed results, completion-ordered.
func (p *Pipeline) Results() <-chan model.TaskResult {
	return p.results
}

// deadLetter records a failed item so it is observable rather than silently
// dropped. A dead-letter write failure is logged and swallowed: it must not
// take down the loop.
func (p *Pipeline) deadLetter(ctx context.Context, res model.TaskResult) {
	payload, _ := json.Marshal(res.Reading)
	dl := model.DeadLetter{
		TaskID:    res.ID,
		MachineID: res.Reading.MachineID(),
		Stage:     res.Stage,
		Reason:    res.Err.Error(),
		Payload:   string(payload),
		CreatedAt: time.Now().UTC(),
	}

	if p.metrics != nil {
		p.metrics.DeadLetters.Inc()
	}
	p.logger.Warn().
		Str("task_id", res.ID).
		Str("stage", res.Stage).
		Str("machine_id", dl.MachineID).
		Err(res.Err).
		Msg("item dead-lettered")

	if err := p.store.InsertDeadLetter(ctx, dl); err != nil {
		p.logger.Error().Err(err).Str("task_id", res.ID).Msg("dead-letter write failed")
	}
}
