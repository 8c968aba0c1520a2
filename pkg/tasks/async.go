package tasks

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers = 4
	defaultBuffer  = 256
)

// AsyncConfig holds AsyncQueue tuning knobs.
type AsyncConfig struct {
	// Workers is the number of goroutines executing tasks.
	Workers int
	// Buffer is the enqueue channel capacity.
	Buffer int
	// RateLimit caps task starts per second; zero disables throttling.
	RateLimit float64
	// Burst is the throttle burst size; defaults to Workers.
	Burst int
}

// AsyncQueue executes tasks on a pool of worker goroutines.
type AsyncQueue struct {
	tasks   chan queuedTask
	limiter *rate.Limiter
	log     *zap.Logger

	// done is closed by Close so blocked Enqueue calls and idle workers
	// observe shutdown. The tasks channel itself is never closed, which
	// keeps concurrent sends safe.
	done chan struct{}

	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

type queuedTask struct {
	name string
	run  Task
}

// NewAsyncQueue creates a started AsyncQueue.
func NewAsyncQueue(cfg AsyncConfig, log *zap.Logger) *AsyncQueue {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultBuffer
	}
	if log == nil {
		log = zap.NewNop()
	}

	q := &AsyncQueue{
		tasks: make(chan queuedTask, cfg.Buffer),
		log:   log,
		done:  make(chan struct{}),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = cfg.Workers
		}
		q.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	q.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go q.worker()
	}
	return q
}

// Enqueue submits a task. It blocks while the buffer is full and returns
// ErrQueueClosed once Close has been called, including for calls already
// parked on a full buffer.
func (q *AsyncQueue) Enqueue(ctx context.Context, name string, task Task) error {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- queuedTask{name: name, run: task}:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for queued work to drain or ctx to
// expire. No lock is held while waiting, so Enqueue calls parked on a full
// buffer cannot wedge Close past its deadline.
func (q *AsyncQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		// Catch any task whose send raced with shutdown.
		q.drain()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker executes tasks until shutdown, then drains whatever is buffered.
func (q *AsyncQueue) worker() {
	defer q.wg.Done()
	for {
		select {
		case t := <-q.tasks:
			q.runTask(t)
		case <-q.done:
			q.drain()
			return
		}
	}
}

// drain runs buffered tasks until the channel is empty.
func (q *AsyncQueue) drain() {
	for {
		select {
		case t := <-q.tasks:
			q.runTask(t)
		default:
			return
		}
	}
}

func (q *AsyncQueue) runTask(t queuedTask) {
	if q.limiter != nil {
		if err := q.limiter.Wait(context.Background()); err != nil {
			return
		}
	}
	if err := t.run(context.Background()); err != nil {
		q.log.Error("background task failed",
			zap.String("task", t.name),
			zap.Error(err))
	}
}
