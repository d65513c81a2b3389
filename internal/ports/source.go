package ports

import "context"

// Source is a running telemetry producer exposed as a line stream.
type Source interface {
	// Lines yields stdout lines in order and is closed at end of stream.
	Lines() <-chan string
	// Exited is closed once the producer has stopped.
	Exited() <-chan struct{}
	// ExitErr reports an exit nobody asked for; nil otherwise.
	ExitErr() error
	// Terminate stops the producer and returns once it is gone or the
	// bounded wait elapsed. Safe to call repeatedly.
	Terminate(ctx context.Context) error
	// Close releases the stream reader.
	Close() error
}

// Spawner starts a Source.
type Spawner interface {
	Spawn(ctx context.Context) (Source, error)
}

// Process is implemented by sources backed by an operating system process.
type Process interface {
	Pid() int
}
