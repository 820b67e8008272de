package model

import "time"

// TaskResult is one completed per-item chain surfaced by Collect. Either
// Reading is the fully-processed reading, or Err/Stage describe where the
// item's chain failed. Failures are per-item: a failed result never implies
// anything about other items.
type TaskResult struct {
	ID      string  `json:"id"` // task id assigned at Distribute time
	Reading Reading `json:"reading,omitempty"`
	Stage   string  `json:"stage,omitempty"` // stage that failed, empty on success
	Err     error   `json:"-"`
}

// Failed reports whether the item's chain failed at some stage.
func (r TaskResult) Failed() bool {
	return r.Err != nil
}

// DeadLetter is a failed item routed to the dead-letter path instead of
// being silently dropped.
type DeadLetter struct {
	ID        int64     `json:"id"`
	TaskID    string    `json:"task_id"`
	MachineID string    `json:"machine_id"`
	Stage     string    `json:"stage"`
	Reason    string    `json:"reason"`
	Payload   string    `json:"payload"` // reading serialized as JSON
	CreatedAt time.Time `json:"created_at"`
}
