package ports

import (
	"context"
	"errors"

	"github.com/ghalamif/ProbeFlow/internal/domain"
)

var (
	// ErrChannelClosed is returned by Send once the consumer side is gone or
	// the producer already closed the queue.
	ErrChannelClosed = errors.New("queue: channel closed")
	// ErrEndOfStream is returned by Receive after Close once every buffered
	// record has been handed out.
	ErrEndOfStream = errors.New("queue: end of stream")
)

// RecordQueue is the bounded single-producer/single-consumer hand-off between
// the ingest and sink tasks.
type RecordQueue interface {
	Send(ctx context.Context, r *domain.Record) error
	Receive(ctx context.Context) (*domain.Record, error)
	Close()
	Drop()
	Len() int
	Cap() int
}
