package distribute

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"telemetry-pipeline/internal/metrics"
)

// Worker is the remote side of the NATS pool: it subscribes to the stage
// subjects and executes stage tasks against its local registry. Several
// workers share the queue group, so requests load-balance across them.
type Worker struct {
	nc      *nats.Conn
	stages  Stages
	timeout time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
	sub     *nats.Subscription
}

// NewWorker connects a worker to the pool endpoint.
func NewWorker(url string, stages Stages, taskTimeout time.Duration, logger zerolog.Logger, m *metrics.Metrics) (*Worker, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect worker pool %s: %w", url, err)
	}
	return &Worker{
		nc:      nc,
		stages:  stages,
		timeout: taskTimeout,
		logger:  logger.With().Str("component", "worker").Logger(),
		metrics: m,
	}, nil
}

// Start subscribes to every stage subject and serves tasks until Stop.
func (w *Worker) Start() error {
	sub, err := w.nc.QueueSubscribe(SubjectPrefix+"*", WorkerQueueGroup, w.handle)
	if err != nil {
		return fmt.Errorf("subscribe stage subjects: %w", err)
	}
	w.sub = sub
	w.logger.Info().Int("stages", len(w.stages)).Msg("worker serving stage tasks")
	return nil
}

func (w *Worker) handle(msg *nats.Msg) {
	stage := msg.Subject[len(SubjectPrefix):]

	var payload taskPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		w.reply(msg, taskReply{Error: fmt.Sprintf("decode request: %v", err)})
		return
	}

	fn, ok := w.stages[stage]
	if !ok {
		w.reply(msg, taskReply{ID: payload.ID, Error: fmt.Sprintf("unknown stage %q", stage)})
		return
	}

	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := fn(ctx, normalizeReading(payload.Reading))
	if w.metrics != nil {
		w.metrics.StageLatency.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if w.metrics != nil {
			w.metrics.StageFailed.WithLabelValues(stage).Inc()
		}
		w.logger.Warn().Err(err).Str("stage", stage).Str("task_id", payload.ID).Msg("stage task failed")
		w.reply(msg, taskReply{ID: payload.ID, Error: err.Error()})
		return
	}
	if w.metrics != nil {
		w.metrics.StageProcessed.WithLabelValues(stage).Inc()
	}
	w.reply(msg, taskReply{ID: payload.ID, Reading: res})
}

func (w *Worker) reply(msg *nats.Msg, r taskReply) {
	data, err := json.Marshal(r)
	if err != nil {
		w.logger.Error().Err(err).Msg("encode reply")
		return
	}
	if err := msg.Respond(data); err != nil {
		w.logger.Error().Err(err).Msg("send reply")
	}
}

// Stop unsubscribes and drains the connection.
func (w *Worker) Stop() error {
	if w.sub != nil {
		if err := w.sub.Drain(); err != nil {
			return err
		}
	}
	return w.nc.Drain()
}
