package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telemetry-pipeline/internal/model"
)

func reading(id string) model.Reading {
	return model.Reading{model.FieldMachineID: id}
}

func TestQueuePreservesFIFOOrder(t *testing.T) {
	q := New(8, PolicyBlock)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.True(t, q.Enqueue(ctx, reading(id)))
	}
	assert.Equal(t, 3, q.Len())

	drained := q.Drain()
	require.Len(t, drained, 3)
	assert.Equal(t, "a", drained[0].MachineID())
	assert.Equal(t, "b", drained[1].MachineID())
	assert.Equal(t, "c", drained[2].MachineID())
	assert.Equal(t, 0, q.Len())
	assert.Nil(t, q.Drain())
}

func TestQueueDropNewest(t *testing.T) {
	q := New(2, PolicyDropNewest)
	ctx := context.Background()

	assert.True(t, q.Enqueue(ctx, reading("a")))
	assert.True(t, q.Enqueue(ctx, reading("b")))
	assert.False(t, q.Enqueue(ctx, reading("c")), "full queue discards the new reading")

	drained := q.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "a", drained[0].MachineID())
	assert.Equal(t, "b", drained[1].MachineID())
	assert.Equal(t, uint64(1), q.Dropped())
}

func TestQueueDropOldest(t *testing.T) {
	q := New(2, PolicyDropOldest)
	ctx := context.Background()

	assert.True(t, q.Enqueue(ctx, reading("a")))
	assert.True(t, q.Enqueue(ctx, reading("b")))
	assert.True(t, q.Enqueue(ctx, reading("c")), "full queue evicts the head")

	drained := q.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "b", drained[0].MachineID())
	assert.Equal(t, "c", drained[1].MachineID())
	assert.Equal(t, uint64(1), q.Dropped())
}

func TestQueueBlockHonorsContext(t *testing.T) {
	q := New(1, PolicyBlock)
	ctx, cancel := context.WithCancel(context.Background())

	require.True(t, q.Enqueue(ctx, reading("a")))

	done := make(chan bool)
	go func() {
		done <- q.Enqueue(ctx, reading("b"))
	}()

	select {
	case <-done:
		t.Fatal("enqueue on a full queue should block")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case ok := <-done:
		assert.False(t, ok, "cancelled enqueue reports failure")
	case <-time.After(time.Second):
		t.Fatal("enqueue did not observe cancellation")
	}
}

func TestQueueBlockUnblocksOnDrain(t *testing.T) {
	q := New(1, PolicyBlock)
	ctx := context.Background()

	require.True(t, q.Enqueue(ctx, reading("a")))

	done := make(chan bool)
	go func() {
		done <- q.Enqueue(ctx, reading("b"))
	}()

	time.Sleep(10 * time.Millisecond)
	q.Drain()

	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("enqueue did not unblock after drain")
	}
}
