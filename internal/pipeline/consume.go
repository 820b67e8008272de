package pipeline

import (
	"context"

	"telemetry-pipeline/internal/model"
)

// Consume pulls up to n results from the pipeline, reporting each as it
// arrives together with the current producer-side queue depth. It is a
// bounded sample of an unbounded stream: the producer keeps running after
// it returns, and the queue keeps growing. Failed items are reported
// distinctly from successes; both count against n.
func (p *Pipeline) Consume(ctx context.Context, n int) []model.TaskResult {
	out := make([]model.TaskResult, 0, n)

	for len(out) < n {
		select {
		case <-ctx.Done():
			return out
		case res, ok := <-p.results:
			if !ok {
				return out
			}
			out = append(out, res)
			if p.metrics != nil {
				p.metrics.ResultsServed.Inc()
			}

			depth := p.queue.Len()
			if res.Failed() {
				p.logger.Info().
					Int("sample", len(out)).
					Str("task_id", res.ID).
					Str("stage", res.Stage).
					Err(res.Err).
					Int("queue_depth", depth).
					Msg("consumed failed item")
				continue
			}
			p.logger.Info().
				Int("sample", len(out)).
				Str("machine_id", res.Reading.MachineID()).
				Bool("warning", res.Reading.Warning()).
				Str("brand", res.Reading.Brand()).
				Time("processed_at", res.Reading.ProcessedAt()).
				Int("queue_depth", depth).
				Msg("consumed reading")
		}
	}
	return out
}
