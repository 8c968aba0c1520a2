// Package tasks provides the background task queue used by the application,
// with an eager mode that runs tasks inline so test suites see their effects
// synchronously.
package tasks

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/gotestkit/testkit/pkg/settings"
)

// ErrQueueClosed is returned by Enqueue after the queue has been closed.
var ErrQueueClosed = errors.New("task queue closed")

// Task is a unit of background work.
type Task func(ctx context.Context) error

// Queue defines the interface for enqueuing background work.
type Queue interface {
	// Enqueue submits a task for execution. Eager queues run the task
	// inline and return its error; async queues return once the task is
	// accepted.
	Enqueue(ctx context.Context, name string, task Task) error

	// Close stops accepting tasks and waits for in-flight work to finish
	// or ctx to expire.
	Close(ctx context.Context) error
}

// Settings keys consumed by New.
const (
	KeyAlwaysEager = "tasks.always_eager"
	KeyWorkers     = "tasks.workers"
	KeyBuffer      = "tasks.buffer"
	KeyRateLimit   = "tasks.rate_limit"
	KeyBurst       = "tasks.burst"
)

// New builds a queue from settings. When "tasks.always_eager" is true — the
// usual state under a test overlay — tasks run synchronously on Enqueue.
func New(s *settings.Settings, log *zap.Logger) Queue {
	if s.Bool(KeyAlwaysEager, false) {
		return NewEagerQueue(log)
	}
	return NewAsyncQueue(AsyncConfig{
		Workers:   s.Int(KeyWorkers, defaultWorkers),
		Buffer:    s.Int(KeyBuffer, defaultBuffer),
		RateLimit: s.Float(KeyRateLimit, 0),
		Burst:     s.Int(KeyBurst, 0),
	}, log)
}
