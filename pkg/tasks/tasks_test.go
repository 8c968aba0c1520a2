package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gotestkit/testkit/pkg/settings"
)

func TestNew_AlwaysEagerReturnsEagerQueue(t *testing.T) {
	s := settings.New()
	s.Set(KeyAlwaysEager, true)

	q := New(s, zap.NewNop())
	_, ok := q.(*EagerQueue)
	assert.True(t, ok)
}

func TestNew_DefaultReturnsAsyncQueue(t *testing.T) {
	s := settings.New()

	q := New(s, zap.NewNop())
	async, ok := q.(*AsyncQueue)
	require.True(t, ok)
	require.NoError(t, async.Close(context.Background()))
}

func TestEagerQueue_RunsInline(t *testing.T) {
	q := NewEagerQueue(nil)
	var ran bool

	err := q.Enqueue(context.Background(), "send-mail", func(ctx context.Context) error {
		ran = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, []string{"send-mail"}, q.Ran())
}

func TestEagerQueue_ReturnsTaskError(t *testing.T) {
	q := NewEagerQueue(nil)
	errTask := errors.New("boom")

	err := q.Enqueue(context.Background(), "explode", func(ctx context.Context) error {
		return errTask
	})

	assert.ErrorIs(t, err, errTask)
}

func TestEagerQueue_EnqueueAfterClose(t *testing.T) {
	q := NewEagerQueue(nil)
	require.NoError(t, q.Close(context.Background()))

	err := q.Enqueue(context.Background(), "late", func(ctx context.Context) error {
		t.Fatal("task must not run after close")
		return nil
	})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestAsyncQueue_ExecutesTasks(t *testing.T) {
	q := NewAsyncQueue(AsyncConfig{Workers: 2, Buffer: 8}, zap.NewNop())

	var mu sync.Mutex
	seen := make(map[string]bool)
	for _, name := range []string{"a", "b", "c"} {
		name := name
		err := q.Enqueue(context.Background(), name, func(ctx context.Context) error {
			mu.Lock()
			seen[name] = true
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, q.Close(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 3)
}

func TestAsyncQueue_CloseDrainsQueuedWork(t *testing.T) {
	q := NewAsyncQueue(AsyncConfig{Workers: 1, Buffer: 16}, zap.NewNop())

	var mu sync.Mutex
	var count int
	for i := 0; i < 10; i++ {
		err := q.Enqueue(context.Background(), "work", func(ctx context.Context) error {
			mu.Lock()
			count++
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, q.Close(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, count)
}

func TestAsyncQueue_EnqueueAfterClose(t *testing.T) {
	q := NewAsyncQueue(AsyncConfig{Workers: 1}, zap.NewNop())
	require.NoError(t, q.Close(context.Background()))

	err := q.Enqueue(context.Background(), "late", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestAsyncQueue_CloseIsIdempotent(t *testing.T) {
	q := NewAsyncQueue(AsyncConfig{Workers: 1}, zap.NewNop())
	require.NoError(t, q.Close(context.Background()))
	require.NoError(t, q.Close(context.Background()))
}

func TestAsyncQueue_CloseHonorsContext(t *testing.T) {
	q := NewAsyncQueue(AsyncConfig{Workers: 1, Buffer: 4}, zap.NewNop())

	release := make(chan struct{})
	err := q.Enqueue(context.Background(), "slow", func(ctx context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Close(ctx), context.DeadlineExceeded)

	close(release)
}

func TestAsyncQueue_CloseDeadlineHoldsWithParkedEnqueue(t *testing.T) {
	q := NewAsyncQueue(AsyncConfig{Workers: 1, Buffer: 1}, zap.NewNop())

	// Occupy the single worker and fill the single-slot buffer.
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	require.NoError(t, q.Enqueue(context.Background(), "blocker", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	noop := func(ctx context.Context) error { return nil }
	require.NoError(t, q.Enqueue(context.Background(), "filler", noop))

	// Park an Enqueue with an uncancellable context on the full buffer.
	parked := make(chan error, 1)
	go func() {
		parked <- q.Enqueue(context.Background(), "parked", noop)
	}()
	time.Sleep(20 * time.Millisecond)

	// Close must honor its deadline even though the parked Enqueue can
	// never complete its send.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	begin := time.Now()
	err := q.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(begin), 500*time.Millisecond)

	// The parked call observes shutdown instead of staying wedged.
	select {
	case err := <-parked:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("parked Enqueue did not return after Close")
	}
}

func TestAsyncQueue_EnqueueHonorsContext(t *testing.T) {
	q := NewAsyncQueue(AsyncConfig{Workers: 1, Buffer: 1}, zap.NewNop())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = q.Close(ctx)
	}()

	// Occupy the single worker, then fill the single-slot buffer.
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	require.NoError(t, q.Enqueue(context.Background(), "blocker", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	noop := func(ctx context.Context) error { return nil }
	require.NoError(t, q.Enqueue(context.Background(), "filler", noop))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, "overflow", noop)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
