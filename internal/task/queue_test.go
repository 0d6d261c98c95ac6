package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestQueue_RunsEveryEnqueuedTask(t *testing.T) {
	q := NewQueue(3, 16, zap.NewNop())

	var ran int32
	for i := 0; i < 10; i++ {
		ok := q.Enqueue(func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
		if !ok {
			t.Fatalf("enqueue %d was dropped", i)
		}
	}

	q.Stop()

	if got := atomic.LoadInt32(&ran); got != 10 {
		t.Errorf("expected 10 tasks run, got %d", got)
	}
}

func TestQueue_FailingTaskDoesNotStopWorkers(t *testing.T) {
	q := NewQueue(1, 4, zap.NewNop())

	var ran int32
	q.Enqueue(func(ctx context.Context) error {
		return errors.New("scan failed")
	})
	q.Enqueue(func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})

	q.Stop()

	if atomic.LoadInt32(&ran) != 1 {
		t.Error("task after a failure must still run")
	}
}

func TestQueue_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	q := NewQueue(1, 1, zap.NewNop())

	var release sync.WaitGroup
	release.Add(1)

	// Occupy the single worker so the buffer backs up
	q.Enqueue(func(ctx context.Context) error {
		release.Wait()
		return nil
	})

	// Fill the buffer, then overflow it
	accepted := 0
	for i := 0; i < 5; i++ {
		if q.Enqueue(func(ctx context.Context) error { return nil }) {
			accepted++
		}
	}
	if accepted >= 5 {
		t.Error("expected at least one drop once the buffer is full")
	}

	release.Done()
	q.Stop()
}

func TestQueue_EnqueueAfterStopIsRejected(t *testing.T) {
	q := NewQueue(1, 4, zap.NewNop())
	q.Stop()

	if q.Enqueue(func(ctx context.Context) error { return nil }) {
		t.Error("enqueue after Stop must report false")
	}
}
