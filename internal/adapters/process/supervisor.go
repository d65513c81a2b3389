package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ghalamif/ProbeFlow/internal/ports"
)

// Supervisor launches the probe process described by its Config.
type Supervisor struct {
	cfg    Config
	logger *zap.Logger
}

// NewSupervisor validates cfg and returns a Supervisor for it.
func NewSupervisor(cfg Config, logger *zap.Logger) (*Supervisor, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("process config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{cfg: cfg, logger: logger}, nil
}

// Spawn satisfies ports.Spawner.
func (s *Supervisor) Spawn(ctx context.Context) (ports.Source, error) {
	h, err := s.Start(ctx)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Start launches the process in its own process group with stdout captured
// and stderr passed through to ours.
func (s *Supervisor) Start(ctx context.Context) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StartupError{Command: s.cfg.Command, Err: err}
	}

	args := s.cfg.CommandArgs()

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, &StartupError{Command: s.cfg.Command, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	// Not CommandContext: the process outlives ctx until Terminate says so.
	cmd := exec.Command(s.cfg.Command, args...)
	cmd.Dir = s.cfg.Dir
	cmd.Stdout = pw
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Env = os.Environ()
	for k, v := range s.cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, &StartupError{Command: s.cfg.Command, Err: err}
	}
	// The child holds its own copy of the write end; ours must go so EOF can arrive.
	_ = pw.Close()

	h := &Handle{
		cmd:              cmd,
		pid:              cmd.Process.Pid,
		stdout:           pr,
		lines:            make(chan string, lineBuffer),
		released:         make(chan struct{}),
		exited:           make(chan struct{}),
		terminateTimeout: s.cfg.TerminateTimeout,
		logger:           s.logger.With(zap.String("command", s.cfg.Command), zap.Int("pid", cmd.Process.Pid)),
	}

	h.logger.Info("process started", zap.Strings("args", args))

	go h.readLines()
	go h.reap()

	return h, nil
}

// Handle is a running probe process.
type Handle struct {
	cmd              *exec.Cmd
	pid              int
	stdout           *os.File
	lines            chan string
	released         chan struct{}
	exited           chan struct{}
	terminateTimeout time.Duration
	logger           *zap.Logger

	mu                 sync.Mutex
	terminateRequested bool
	unrequestedEnd     bool
	waitErr            error
	readErr            error
	releaseOnce        sync.Once
}

func (h *Handle) Pid() int { return h.pid }

func (h *Handle) Lines() <-chan string { return h.lines }

func (h *Handle) Exited() <-chan struct{} { return h.exited }

// Err returns the stdout read error, if the stream ended on anything but EOF.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.readErr
}

// ExitErr returns an *AbnormalExitError if stdout ended or the process exited
// before Terminate was called.
func (h *Handle) ExitErr() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.unrequestedEnd {
		return nil
	}
	code := -1
	select {
	case <-h.exited:
		if h.cmd.ProcessState != nil {
			code = h.cmd.ProcessState.ExitCode()
		}
	default:
	}
	return &AbnormalExitError{Pid: h.pid, ExitCode: code, Err: h.waitErr}
}

// Terminate sends SIGTERM to the process group and waits up to the configured
// timeout (or ctx) before escalating to SIGKILL. It returns once the process
// has been reaped.
func (h *Handle) Terminate(ctx context.Context) error {
	h.mu.Lock()
	h.terminateRequested = true
	h.mu.Unlock()

	select {
	case <-h.exited:
		return nil
	default:
	}

	h.logger.Info("terminating process")
	h.signal(syscall.SIGTERM)

	timer := time.NewTimer(h.terminateTimeout)
	defer timer.Stop()

	select {
	case <-h.exited:
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	h.logger.Warn("process ignored SIGTERM, killing", zap.Duration("waited", h.terminateTimeout))
	h.signal(syscall.SIGKILL)
	<-h.exited
	return nil
}

// Close stops line delivery and closes the read end of the stdout pipe.
func (h *Handle) Close() error {
	var err error
	h.releaseOnce.Do(func() {
		close(h.released)
		err = h.stdout.Close()
	})
	return err
}

func (h *Handle) signal(sig syscall.Signal) {
	if err := syscall.Kill(-h.pid, sig); err != nil {
		if perr := h.cmd.Process.Signal(sig); perr != nil && !errors.Is(perr, os.ErrProcessDone) {
			h.logger.Warn("signal process", zap.Stringer("signal", sig), zap.Error(perr))
		}
	}
}

func (h *Handle) readLines() {
	defer close(h.lines)

	err := scanLines(h.stdout, func(line string) bool {
		select {
		case h.lines <- line:
			return true
		case <-h.released:
			return false
		}
	}, func(dropped int) {
		h.logger.Warn("stdout line truncated", zap.Int("limit", maxLineSize), zap.Int("dropped_bytes", dropped))
	})

	select {
	case <-h.released:
		return
	default:
	}

	h.mu.Lock()
	if err != nil && !errors.Is(err, os.ErrClosed) {
		h.readErr = err
	}
	if !h.terminateRequested {
		h.unrequestedEnd = true
	}
	readErr := h.readErr
	h.mu.Unlock()

	if readErr != nil {
		h.logger.Error("stdout read failed", zap.Error(readErr))
	}
}

func (h *Handle) reap() {
	err := h.cmd.Wait()

	h.mu.Lock()
	h.waitErr = err
	requested := h.terminateRequested
	if !requested {
		h.unrequestedEnd = true
	}
	h.mu.Unlock()

	code := -1
	if h.cmd.ProcessState != nil {
		code = h.cmd.ProcessState.ExitCode()
	}
	if requested {
		h.logger.Info("process exited", zap.Int("exit_code", code))
	} else {
		h.logger.Error("process exited without a termination request", zap.Int("exit_code", code), zap.Error(err))
	}
	close(h.exited)
}

var (
	_ ports.Source  = (*Handle)(nil)
	_ ports.Process = (*Handle)(nil)
)
