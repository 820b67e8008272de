// Package distribute owns the distribution layer: moving queued readings
// onto a worker pool and chaining named transform stages over each item.
//
// The ordering contract of Collect is COMPLETION ORDER: results surface as
// each item's chain finishes, not in the order items were distributed.
// Within one item's chain the stages run strictly in the order they were
// applied. Failures are isolated per item: one chain's failure is reported
// as a failed TaskResult and never affects other items.
package distribute

import (
	"context"
	"errors"
	"sync"

	"telemetry-pipeline/internal/model"
)

// ErrPoolClosed fails a chain whose stage was applied against a pool that
// has been closed in the meantime.
var ErrPoolClosed = errors.New("distribute: pool closed")

// StageFunc is one per-item transform: it consumes one stage's output and
// produces the next stage's input.
type StageFunc func(ctx context.Context, r model.Reading) (model.Reading, error)

// Stages maps stage names to their transforms. Both pool implementations
// and the remote worker runtime execute stages from the same registry.
type Stages map[string]StageFunc

// Handle represents one item's pending computation on the pool. A handle is
// single-use: Apply consumes its inputs, Collect consumes the final set.
type Handle struct {
	ID   string
	done chan outcome
}

type outcome struct {
	reading model.Reading
	stage   string // stage that failed, empty otherwise
	err     error
}

// resolved builds a handle whose computation has already completed, used by
// Distribute to seed each item's chain.
func resolved(id string, r model.Reading) Handle {
	ch := make(chan outcome, 1)
	ch <- outcome{reading: r}
	return Handle{ID: id, done: ch}
}

// Pool hands collections to a worker pool and chains stages over them.
type Pool interface {
	// Distribute takes a snapshot of items onto the pool and returns one
	// handle per item. Non-blocking.
	Distribute(ctx context.Context, items []model.Reading) []Handle

	// Apply chains the named stage onto each pending handle and returns
	// the next set of handles immediately; execution happens on workers.
	Apply(stage string, handles []Handle) []Handle

	// Close releases the pool. The pool must not be used afterwards.
	Close() error
}

// Collect materializes completed results as they become available, in
// completion order. The returned channel closes once every handle has
// yielded a result or ctx is cancelled.
func Collect(ctx context.Context, handles []Handle) <-chan model.TaskResult {
	out := make(chan model.TaskResult, len(handles))

	var wg sync.WaitGroup
	for _, h := range handles {
		wg.Add(1)
		go func(h Handle) {
			defer wg.Done()
			select {
			case o := <-h.done:
				res := model.TaskResult{ID: h.ID, Reading: o.reading, Stage: o.stage, Err: o.err}
				select {
				case out <- res:
				case <-ctx.Done():
				}
			case <-ctx.Done():
			}
		}(h)
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
