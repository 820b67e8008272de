// Package queue provides the bounded in-memory ingestion queue sitting
// between the reading producer and the distribution layer.
package queue

import (
	"context"
	"sync/atomic"

	"telemetry-pipeline/internal/model"
)

// Policy decides what happens when a reading arrives at a full queue.
type Policy string

// Backpressure policies.
const (
	PolicyBlock      Policy = "block"       // producer waits for space
	PolicyDropOldest Policy = "drop_oldest" // evict the head, keep the new reading
	PolicyDropNewest Policy = "drop_newest" // discard the new reading
)

// Queue is a bounded FIFO of readings, safe for one producer and one
// consumer side. The bound plus an explicit policy replaces the unbounded
// growth a free-running producer would otherwise cause.
type Queue struct {
	ch      chan model.Reading
	policy  Policy
	dropped atomic.Uint64
}

// New creates a queue with the given capacity and backpressure policy.
func New(capacity int, policy Policy) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{
		ch:     make(chan model.Reading, capacity),
		policy: policy,
	}
}

// Enqueue adds a reading according to the queue's policy. It returns false
// if the reading was dropped or the context was cancelled while blocking.
func (q *Queue) Enqueue(ctx context.Context, r model.Reading) bool {
	switch q.policy {
	case PolicyDropNewest:
		select {
		case q.ch <- r:
			return true
		default:
			q.dropped.Add(1)
			return false
		}
	case PolicyDropOldest:
		for {
			select {
			case q.ch <- r:
				return true
			default:
			}
			select {
			case <-q.ch:
				q.dropped.Add(1)
			default:
			}
		}
	default: // PolicyBlock
		select {
		case q.ch <- r:
			return true
		case <-ctx.Done():
			return false
		}
	}
}

// Drain removes and returns everything currently queued, preserving FIFO
// order. It never blocks; an empty queue yields nil.
func (q *Queue) Drain() []model.Reading {
	var out []model.Reading
	for {
		select {
		case r := <-q.ch:
			out = append(out, r)
		default:
			return out
		}
	}
}

// Len returns the current queue depth.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Dropped returns the number of readings lost to the drop policies.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
