package distribute

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"telemetry-pipeline/internal/model"
)

// SubjectPrefix is the subject namespace stage requests travel on. One
// request on "pipeline.stage.<name>" carries one item; the worker replies
// with the transformed reading or an error payload.
const SubjectPrefix = "pipeline.stage."

// WorkerQueueGroup load-balances stage requests across subscribed workers.
const WorkerQueueGroup = "pipeline-workers"

// taskPayload is one stage request on the wire.
type taskPayload struct {
	ID      string        `json:"id"`
	Reading model.Reading `json:"reading"`
}

// taskReply is the worker's answer: the transformed reading or an error.
type taskReply struct {
	ID      string        `json:"id"`
	Reading model.Reading `json:"reading,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// NATSPool runs each stage task as a request to a remote worker pool
// reachable through a NATS endpoint. Construction connects immediately:
// an unreachable endpoint means no pool, per the startup contract.
type NATSPool struct {
	nc      *nats.Conn
	timeout time.Duration
	logger  zerolog.Logger
}

// NewNATSPool connects to the worker-pool endpoint. A connection failure
// here is fatal to pipeline construction — no partial pool is returned.
func NewNATSPool(url string, requestTimeout time.Duration, logger zerolog.Logger) (*NATSPool, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect worker pool %s: %w", url, err)
	}
	if requestTimeout <= 0 {
		requestTimeout = 5 * time.Second
	}
	return &NATSPool{
		nc:      nc,
		timeout: requestTimeout,
		logger:  logger.With().Str("component", "nats-pool").Logger(),
	}, nil
}

// Distribute seeds one resolved handle per item. Items stay caller-side
// until the first Apply ships them to a worker.
func (p *NATSPool) Distribute(_ context.Context, items []model.Reading) []Handle {
	handles := make([]Handle, len(items))
	for i, item := range items {
		handles[i] = resolved(uuid.New().String(), item)
	}
	p.logger.Debug().Int("items", len(items)).Msg("distributed batch")
	return handles
}

// Apply chains stage onto each handle as a remote request. Consecutive
// stages of one item may land on different workers; a chain that already
// failed carries its failure through without another request.
func (p *NATSPool) Apply(stage string, handles []Handle) []Handle {
	next := make([]Handle, len(handles))
	for i, h := range handles {
		out := Handle{ID: h.ID, done: make(chan outcome, 1)}
		next[i] = out

		go func(prev Handle, out Handle) {
			o := <-prev.done
			if o.err != nil {
				out.done <- o
				return
			}
			out.done <- p.request(stage, prev.ID, o.reading)
		}(h, out)
	}
	return next
}

func (p *NATSPool) request(stage, id string, r model.Reading) outcome {
	data, err := json.Marshal(taskPayload{ID: id, Reading: r})
	if err != nil {
		return outcome{reading: r, stage: stage, err: fmt.Errorf("stage %s: encode request: %w", stage, err)}
	}

	msg, err := p.nc.Request(SubjectPrefix+stage, data, p.timeout)
	if err != nil {
		// Covers timeouts and no-responder alike: the item's chain fails,
		// other items proceed.
		return outcome{reading: r, stage: stage, err: fmt.Errorf("stage %s: %w", stage, err)}
	}

	var reply taskReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return outcome{reading: r, stage: stage, err: fmt.Errorf("stage %s: decode reply: %w", stage, err)}
	}
	if reply.Error != "" {
		return outcome{reading: r, stage: stage, err: fmt.Errorf("stage %s: %s", stage, reply.Error)}
	}
	return outcome{reading: normalizeReading(reply.Reading)}
}

// Close drains the connection.
func (p *NATSPool) Close() error {
	return p.nc.Drain()
}

var _ Pool = (*NATSPool)(nil)

// normalizeReading undoes JSON's type flattening after a wire crossing:
// processed_at comes back as an RFC3339 string and is restored to a time.
func normalizeReading(r model.Reading) model.Reading {
	if r == nil {
		return r
	}
	if s, ok := r[model.FieldProcessedAt].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			r[model.FieldProcessedAt] = t
		}
	}
	return r
}
