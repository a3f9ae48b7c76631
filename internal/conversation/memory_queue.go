package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrQueueFull is returned by TrySend when the buffer has no room.
var ErrQueueFull = errors.New("conversation: queue full")

// InboundJob is one accepted inbound message waiting for a reply.
type InboundJob struct {
	ID         string
	MessageID  string
	SenderID   string
	Text       string
	ReceivedAt time.Time
}

// MemoryQueue is a job queue backed by an in-memory buffered channel.
type MemoryQueue struct {
	ch chan InboundJob
}

// NewMemoryQueue creates a MemoryQueue with the provided buffer capacity.
func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 128
	}
	return &MemoryQueue{
		ch: make(chan InboundJob, buffer),
	}
}

// TrySend enqueues a job without blocking. Jobs without an ID get one.
func (q *MemoryQueue) TrySend(job InboundJob) (InboundJob, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.ReceivedAt.IsZero() {
		job.ReceivedAt = time.Now()
	}
	select {
	case q.ch <- job:
		return job, nil
	default:
		return job, ErrQueueFull
	}
}

// Receive blocks until a job is available or ctx is done.
func (q *MemoryQueue) Receive(ctx context.Context) (InboundJob, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-ctx.Done():
		return InboundJob{}, ctx.Err()
	case job := <-q.ch:
		return job, nil
	}
}

// Len reports the number of buffered jobs.
func (q *MemoryQueue) Len() int {
	return len(q.ch)
}
