package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ghalamif/ProbeFlow/internal/ports"
)

// State is the coordinator's lifecycle phase.
type State int32

const (
	StateRunning State = iota
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Trigger names what moved the coordinator into draining.
type Trigger string

const (
	TriggerInterrupt   Trigger = "interrupt"
	TriggerStreamEnded Trigger = "stream_ended"
	TriggerProcessExit Trigger = "process_exit"
)

// Coordinator runs the ingest and sink tasks over one source and drives the
// ordered teardown: terminate the source, drain the queue, release the reader.
type Coordinator struct {
	src  ports.Source
	q    ports.RecordQueue
	sink ports.Sink
	pol  ports.Policy
	obs  ports.Observability

	state atomic.Int32

	mu      sync.Mutex
	trigger Trigger
	ingest  IngestStats
	sinkSt  SinkStats
}

func NewCoordinator(src ports.Source, q ports.RecordQueue, sink ports.Sink, pol ports.Policy, obs ports.Observability) *Coordinator {
	return &Coordinator{src: src, q: q, sink: sink, pol: pol, obs: obs}
}

func (c *Coordinator) State() State { return State(c.state.Load()) }

// Trigger returns what started the drain; empty while running.
func (c *Coordinator) Trigger() Trigger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trigger
}

// Stats returns the task summaries once Run has returned.
func (c *Coordinator) Stats() (IngestStats, SinkStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ingest, c.sinkSt
}

// Run blocks until the source is gone and every record sent before draining
// has reached the sink. Cancelling ctx is the interrupt: it starts the drain
// but does not abort it. The result is nil for an interrupt or a clean end
// of stream, and the source's exit error when it stopped on its own.
func (c *Coordinator) Run(ctx context.Context) error {
	c.setState(StateRunning)

	// Tasks must outlive the interrupt so the queue can drain.
	taskCtx, cancelTasks := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelTasks()

	ingestDone := make(chan IngestStats, 1)
	sinkDone := make(chan SinkStats, 1)

	go func() { ingestDone <- RunIngest(taskCtx, c.src, c.q, c.pol, c.obs) }()
	go func() { sinkDone <- RunSink(taskCtx, c.q, c.sink, c.pol, c.obs) }()

	var (
		trigger   Trigger
		ingestSt  IngestStats
		ingestEnd bool
	)
	select {
	case <-ctx.Done():
		trigger = TriggerInterrupt
	case ingestSt = <-ingestDone:
		trigger = TriggerStreamEnded
		ingestEnd = true
	case <-c.src.Exited():
		trigger = TriggerProcessExit
	}

	c.mu.Lock()
	c.trigger = trigger
	c.mu.Unlock()
	c.setState(StateDraining)
	c.obs.LogInfo("draining", ports.F("trigger", string(trigger)))

	if err := c.src.Terminate(context.WithoutCancel(ctx)); err != nil {
		c.obs.LogError("terminate_failed", err)
	}

	if !ingestEnd {
		ingestSt = <-ingestDone
	}
	sinkSt := <-sinkDone

	if err := c.src.Close(); err != nil {
		c.obs.LogWarn("source_close_failed", ports.F("error", err.Error()))
	}

	c.mu.Lock()
	c.ingest = ingestSt
	c.sinkSt = sinkSt
	c.mu.Unlock()
	c.setState(StateStopped)

	if _, ok := c.src.(ports.Process); ok {
		c.obs.IncCounter(ports.MetricProcessExits, 1)
	}
	exitErr := c.src.ExitErr()
	if exitErr != nil {
		c.obs.LogError("source_exited_abnormally", exitErr,
			ports.F("trigger", string(trigger)),
			ports.F("delivered", sinkSt.Delivered),
		)
	}
	c.obs.LogInfo("stopped",
		ports.F("lines", ingestSt.Lines),
		ports.F("decoded", ingestSt.Decoded),
		ports.F("decode_errors", ingestSt.DecodeErrors),
		ports.F("delivered", sinkSt.Delivered),
		ports.F("sink_errors", sinkSt.Failed),
	)
	return exitErr
}

func (c *Coordinator) setState(s State) { c.state.Store(int32(s)) }
