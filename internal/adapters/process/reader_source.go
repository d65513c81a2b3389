package process

import (
	"context"
	"io"
	"sync"

	"github.com/ghalamif/ProbeFlow/internal/ports"
)

// ReaderSource replays probe output from any reader, such as a capture taken
// with `probe-rs run ... > capture.log`. Reaching EOF is its normal end.
type ReaderSource struct {
	name     string
	r        io.Reader
	lines    chan string
	released chan struct{}
	exited   chan struct{}

	mu          sync.Mutex
	readErr     error
	releaseOnce sync.Once
}

// NewReaderSource starts streaming lines from r immediately.
func NewReaderSource(name string, r io.Reader) *ReaderSource {
	s := &ReaderSource{
		name:     name,
		r:        r,
		lines:    make(chan string, lineBuffer),
		released: make(chan struct{}),
		exited:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *ReaderSource) Name() string { return s.name }

func (s *ReaderSource) Lines() <-chan string { return s.lines }

func (s *ReaderSource) Exited() <-chan struct{} { return s.exited }

// ExitErr is always nil; a reader running dry is not a failure.
func (s *ReaderSource) ExitErr() error { return nil }

// Err returns the read error that ended the stream early, if any.
func (s *ReaderSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readErr
}

// Terminate stops delivery and closes the underlying reader when it can be
// closed. It does not wait for a blocked Read to return.
func (s *ReaderSource) Terminate(context.Context) error {
	return s.Close()
}

func (s *ReaderSource) Close() error {
	var err error
	s.releaseOnce.Do(func() {
		close(s.released)
		if c, ok := s.r.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}

func (s *ReaderSource) run() {
	defer close(s.exited)
	defer close(s.lines)

	err := scanLines(s.r, func(line string) bool {
		select {
		case s.lines <- line:
			return true
		case <-s.released:
			return false
		}
	}, nil)
	if err != nil {
		s.mu.Lock()
		s.readErr = err
		s.mu.Unlock()
	}
}

var _ ports.Source = (*ReaderSource)(nil)
