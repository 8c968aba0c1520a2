package tasks

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EagerQueue runs every task inline on Enqueue. Tests that enqueue work see
// its effects — and its error — immediately, with no workers involved.
type EagerQueue struct {
	log *zap.Logger

	mu     sync.Mutex
	closed bool
	ran    []string
}

// NewEagerQueue creates an EagerQueue.
func NewEagerQueue(log *zap.Logger) *EagerQueue {
	if log == nil {
		log = zap.NewNop()
	}
	return &EagerQueue{log: log}
}

// Enqueue runs the task synchronously and returns its error.
func (q *EagerQueue) Enqueue(ctx context.Context, name string, task Task) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.ran = append(q.ran, name)
	q.mu.Unlock()

	q.log.Debug("running task eagerly", zap.String("task", name))
	return task(ctx)
}

// Close marks the queue closed. There is never in-flight work to wait for.
func (q *EagerQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}

// Ran returns the names of tasks executed so far, in order. Useful for
// asserting that an operation enqueued the expected work.
func (q *EagerQueue) Ran() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.ran))
	copy(out, q.ran)
	return out
}
