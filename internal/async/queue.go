package async

import (
	"context"
	"errors"
	"time"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one PDF waiting to be processed.
type Job struct {
	Index       int // position in the input listing; -1 when not part of a listing
	Path        string
	SubmittedAt time.Time
	RunID       string
}

// Handler processes one job. Its context carries the per-job timeout.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
