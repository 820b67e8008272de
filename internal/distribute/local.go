package distribute

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telemetry-pipeline/internal/metrics"
	"telemetry-pipeline/internal/model"
)

// LocalPool executes stage tasks on a fixed set of in-process worker
// goroutines. It honors the same contract as the NATS pool and backs tests
// and single-process deployments.
type LocalPool struct {
	stages  Stages
	tasks   chan func()
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	timeout time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewLocalPool starts workers goroutines executing stages from the given
// registry. taskTimeout bounds one stage task; zero means no bound.
func NewLocalPool(workers int, stages Stages, taskTimeout time.Duration, logger zerolog.Logger, m *metrics.Metrics) *LocalPool {
	if workers <= 0 {
		workers = 1
	}
	p := &LocalPool{
		stages:  stages,
		tasks:   make(chan func(), workers),
		timeout: taskTimeout,
		logger:  logger.With().Str("component", "local-pool").Logger(),
		metrics: m,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			for fn := range p.tasks {
				fn()
			}
		}()
	}
	return p
}

// Distribute seeds one resolved handle per item.
func (p *LocalPool) Distribute(_ context.Context, items []model.Reading) []Handle {
	handles := make([]Handle, len(items))
	for i, item := range items {
		handles[i] = resolved(uuid.New().String(), item)
	}
	p.logger.Debug().Int("items", len(items)).Msg("distributed batch")
	return handles
}

// Apply chains stage onto each handle. A chain that already failed skips
// the stage and carries its failure through.
func (p *LocalPool) Apply(stage string, handles []Handle) []Handle {
	next := make([]Handle, len(handles))
	for i, h := range handles {
		out := Handle{ID: h.ID, done: make(chan outcome, 1)}
		next[i] = out

		// Submission waits for the previous stage so a worker never sits
		// idle holding a task whose input is not ready yet.
		go func(prev Handle, out Handle) {
			o := <-prev.done
			if o.err != nil {
				out.done <- o
				return
			}
			if !p.submit(func() { out.done <- p.run(stage, o.reading) }) {
				out.done <- outcome{reading: o.reading, stage: stage, err: ErrPoolClosed}
			}
		}(h, out)
	}
	return next
}

func (p *LocalPool) run(stage string, r model.Reading) outcome {
	fn, ok := p.stages[stage]
	if !ok {
		return outcome{stage: stage, err: fmt.Errorf("unknown stage %q", stage)}
	}

	ctx := context.Background()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := fn(ctx, r)
	if p.metrics != nil {
		p.metrics.StageLatency.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if p.metrics != nil {
			p.metrics.StageFailed.WithLabelValues(stage).Inc()
		}
		return outcome{reading: r, stage: stage, err: fmt.Errorf("stage %s: %w", stage, err)}
	}
	if p.metrics != nil {
		p.metrics.StageProcessed.WithLabelValues(stage).Inc()
	}
	return outcome{reading: res}
}

// submit hands the task to a worker unless the pool has closed. The mutex
// keeps Close from closing the channel underneath an in-flight send.
func (p *LocalPool) submit(fn func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.tasks <- fn
	return true
}

// Close stops the workers. Accepted tasks finish first; chains whose stage
// has not been submitted yet fail with ErrPoolClosed.
func (p *LocalPool) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()
	p.wg.Wait()
	return nil
}

var _ Pool = (*LocalPool)(nil)
