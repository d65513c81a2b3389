package probeflow

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/ghalamif/ProbeFlow/internal/adapters/process"
)

// ErrSourceClosed is returned by Publish once the external source has ended.
var ErrSourceClosed = errors.New("probeflow: external source closed")

// ExternalSource lets a caller that already owns the probe output (a serial
// port reader, an RTT client, a test harness) push lines into a Gateway
// instead of having it spawn a process. End marks a normal end of stream.
type ExternalSource struct {
	lines  chan string
	ended  chan struct{}
	exited chan struct{}

	mu      sync.RWMutex
	endOnce sync.Once
}

// NewExternalSource returns a source whose Publish blocks once buffer lines
// are waiting to be ingested.
func NewExternalSource(buffer int) *ExternalSource {
	if buffer < 0 {
		buffer = 0
	}
	return &ExternalSource{
		lines:  make(chan string, buffer),
		ended:  make(chan struct{}),
		exited: make(chan struct{}),
	}
}

// Publish hands one raw output line to the gateway.
func (s *ExternalSource) Publish(ctx context.Context, line string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	select {
	case <-s.ended:
		return ErrSourceClosed
	default:
	}

	select {
	case s.lines <- line:
		return nil
	case <-s.ended:
		return ErrSourceClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// End closes the stream. Lines already published are still ingested.
func (s *ExternalSource) End() {
	s.endOnce.Do(func() {
		close(s.ended)
		s.mu.Lock()
		close(s.lines)
		s.mu.Unlock()
		close(s.exited)
	})
}

func (s *ExternalSource) Lines() <-chan string { return s.lines }

func (s *ExternalSource) Exited() <-chan struct{} { return s.exited }

func (s *ExternalSource) ExitErr() error { return nil }

func (s *ExternalSource) Terminate(context.Context) error {
	s.End()
	return nil
}

func (s *ExternalSource) Close() error {
	s.End()
	return nil
}

// NewReplaySource streams previously captured probe output from r; the
// gateway stops cleanly at EOF.
func NewReplaySource(name string, r io.Reader) Source {
	return process.NewReaderSource(name, r)
}

var _ Source = (*ExternalSource)(nil)
