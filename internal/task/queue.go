// Package task provides a small in-process background task queue. Checkout
// uses it to dispatch the low-stock scan after commit: the enqueue is
// fire-and-forget, and a failing task never affects the request that
// enqueued it.
package task

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of background work
type Task func(ctx context.Context) error

// Queue runs tasks on a fixed pool of worker goroutines
type Queue struct {
	tasks   chan Task
	logger  *zap.Logger
	wg      sync.WaitGroup
	stopped chan struct{}
	once    sync.Once
}

// NewQueue creates a queue with the given buffer size and starts workers
func NewQueue(workers, buffer int, logger *zap.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}

	q := &Queue{
		tasks:   make(chan Task, buffer),
		logger:  logger,
		stopped: make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	return q
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()

	for t := range q.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := t(ctx); err != nil {
			q.logger.Error("Background task failed",
				zap.Int("worker", id),
				zap.Error(err),
			)
		}
		cancel()
	}
}

// Enqueue submits a task without blocking. If the queue is full or already
// stopped, the task is dropped and false is returned; callers treat this as
// best-effort delivery.
func (q *Queue) Enqueue(t Task) bool {
	select {
	case <-q.stopped:
		return false
	default:
	}

	select {
	case q.tasks <- t:
		return true
	default:
		q.logger.Warn("Task queue full, dropping task")
		return false
	}
}

// Stop closes the queue and waits for in-flight tasks to finish
func (q *Queue) Stop() {
	q.once.Do(func() {
		close(q.stopped)
		close(q.tasks)
	})
	q.wg.Wait()
}
