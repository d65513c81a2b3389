package probeflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ghalamif/ProbeFlow/internal/domain"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("probeflow: channel sink closed")

// RecordHandler is invoked once per delivered record.
type RecordHandler func(Record) error

// NewCallbackSink adapts a RecordHandler into a full Sink implementation so callers
// can plug arbitrary functions without defining structs.
func NewCallbackSink(name string, fn RecordHandler) Sink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes records via a channel; it returns the sink, the read-only channel,
// and a close function that the caller should invoke during shutdown. A full
// channel blocks delivery until the sink timeout expires.
func NewChannelSink(name string, buffer int) (Sink, <-chan Record, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Record, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type callbackSink struct {
	name string
	fn   RecordHandler
}

func (s *callbackSink) Write(_ context.Context, r *domain.Record) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	if r == nil {
		return nil
	}
	return s.fn(*r)
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	ch     chan Record
	closed chan struct{}

	mu   sync.RWMutex
	once sync.Once
}

func (s *channelSink) Write(ctx context.Context, r *domain.Record) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	if r == nil {
		return nil
	}

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	case s.ch <- *r:
		return nil
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		// Wait out in-flight writes before closing the channel they send on.
		s.mu.Lock()
		close(s.ch)
		s.mu.Unlock()
	})
}
