package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/ghalamif/ProbeFlow/internal/domain"
	"github.com/ghalamif/ProbeFlow/internal/ports"
)

var (
	ErrChannelClosed = ports.ErrChannelClosed
	ErrEndOfStream   = ports.ErrEndOfStream
)

// RecordQueue is a bounded FIFO that blocks the producer while full. It never
// drops or overwrites a record.
type RecordQueue struct {
	items   chan *domain.Record
	dropped chan struct{}

	mu       sync.Mutex
	closed   bool
	dropOnce sync.Once
}

func NewRecordQueue(capacity int) (*RecordQueue, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("queue: capacity must be > 0, got %d", capacity)
	}
	return &RecordQueue{
		items:   make(chan *domain.Record, capacity),
		dropped: make(chan struct{}),
	}, nil
}

// Send enqueues r, suspending while the queue is full. It is only safe to call
// from the single producer goroutine.
func (q *RecordQueue) Send(ctx context.Context, r *domain.Record) error {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return ErrChannelClosed
	}

	select {
	case <-q.dropped:
		return ErrChannelClosed
	default:
	}

	select {
	case q.items <- r:
		return nil
	case <-q.dropped:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive dequeues the oldest record, suspending while the queue is empty.
func (q *RecordQueue) Receive(ctx context.Context) (*domain.Record, error) {
	select {
	case r, ok := <-q.items:
		if !ok {
			return nil, ErrEndOfStream
		}
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close marks the producer side finished. Buffered records stay receivable.
// Must be called by the producer, never concurrently with Send.
func (q *RecordQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.items)
}

// Drop marks the consumer side gone; blocked and future sends fail.
func (q *RecordQueue) Drop() {
	q.dropOnce.Do(func() {
		close(q.dropped)
	})
}

func (q *RecordQueue) Len() int {
	return len(q.items)
}

func (q *RecordQueue) Cap() int {
	return cap(q.items)
}

var _ ports.RecordQueue = (*RecordQueue)(nil)
