package process

import "fmt"

// StartupError means the probe could not be launched at all; the gateway has
// no source and must abort.
type StartupError struct {
	Command string
	Err     error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("start %q: %v", e.Command, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

// AbnormalExitError reports a probe whose output ended or which exited before
// anyone asked it to stop.
type AbnormalExitError struct {
	Pid      int
	ExitCode int
	Err      error
}

func (e *AbnormalExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("process %d exited unexpectedly (code %d): %v", e.Pid, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("process %d exited unexpectedly (code %d)", e.Pid, e.ExitCode)
}

func (e *AbnormalExitError) Unwrap() error { return e.Err }
