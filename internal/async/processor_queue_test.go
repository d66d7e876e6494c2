package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestQueueProcessesEveryJob(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[int]bool{}
	)
	q := NewProcessorQueue(func(_ context.Context, job Job) error {
		mu.Lock()
		seen[job.Index] = true
		mu.Unlock()
		return nil
	}, quiet(), WithWorkers(3), WithQueueSize(2))

	for i := 0; i < 20; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{Index: i, Path: "x.pdf"}))
	}
	q.Shutdown(context.Background())

	assert.Len(t, seen, 20)
}

func TestQueueIsolatesPanicsAndErrors(t *testing.T) {
	var done atomic.Int32
	q := NewProcessorQueue(func(_ context.Context, job Job) error {
		defer done.Add(1)
		switch job.Index {
		case 0:
			panic("boom")
		case 1:
			return errors.New("bad pdf")
		}
		return nil
	}, quiet(), WithWorkers(1))

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{Index: i}))
	}
	q.Shutdown(context.Background())
	assert.Equal(t, int32(3), done.Load())
}

func TestQueueTimeout(t *testing.T) {
	var got error
	q := NewProcessorQueue(func(ctx context.Context, _ Job) error {
		<-ctx.Done()
		got = ctx.Err()
		return got
	}, quiet(), WithWorkers(1), WithProcessTimeout(10*time.Millisecond))

	require.NoError(t, q.Enqueue(context.Background(), Job{}))
	q.Shutdown(context.Background())
	assert.ErrorIs(t, got, context.DeadlineExceeded)
}

func TestQueueZeroTimeoutMeansNoDeadline(t *testing.T) {
	var hasDeadline, defaultDeadline bool
	q := NewProcessorQueue(func(ctx context.Context, _ Job) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}, quiet(), WithWorkers(1), WithProcessTimeout(0))
	require.NoError(t, q.Enqueue(context.Background(), Job{}))
	q.Shutdown(context.Background())
	assert.False(t, hasDeadline)

	q = NewProcessorQueue(func(ctx context.Context, _ Job) error {
		_, defaultDeadline = ctx.Deadline()
		return nil
	}, quiet(), WithWorkers(1))
	require.NoError(t, q.Enqueue(context.Background(), Job{}))
	q.Shutdown(context.Background())
	assert.True(t, defaultDeadline)
}

func TestQueueBaseContextCancel(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	cancel()
	var got error
	q := NewProcessorQueue(func(ctx context.Context, _ Job) error {
		got = ctx.Err()
		return nil
	}, quiet(), WithWorkers(1), WithBaseContext(base))

	require.NoError(t, q.Enqueue(context.Background(), Job{}))
	q.Shutdown(context.Background())
	assert.ErrorIs(t, got, context.Canceled)
}

func TestEnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(func(context.Context, Job) error { return nil }, quiet())
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{}), ErrQueueClosed)
}
