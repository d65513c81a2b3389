package process

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func shellSupervisor(t *testing.T, script string, timeout time.Duration) *Supervisor {
	t.Helper()
	sup, err := NewSupervisor(Config{
		Command:          "sh",
		Args:             []string{"-c", script},
		TerminateTimeout: timeout,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return sup
}

func collectLines(t *testing.T, h *Handle) []string {
	t.Helper()
	var out []string
	deadline := time.After(5 * time.Second)
	for {
		select {
		case line, ok := <-h.Lines():
			if !ok {
				return out
			}
			out = append(out, line)
		case <-deadline:
			t.Fatal("timed out reading process output")
		}
	}
}

func TestSupervisorStreamsStdoutLines(t *testing.T) {
	requireShell(t)
	sup := shellSupervisor(t, `printf 'first\nsecond\n[INFO] JSON sent via VCP: {}\n'; echo oops >&2`, time.Second)

	h, err := sup.Start(context.Background())
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, []string{"first", "second", "[INFO] JSON sent via VCP: {}"}, collectLines(t, h))
	assert.NoError(t, h.Err())

	select {
	case <-h.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("process was never reaped")
	}

	var abnormal *AbnormalExitError
	require.ErrorAs(t, h.ExitErr(), &abnormal)
	assert.Equal(t, 0, abnormal.ExitCode)
	assert.Equal(t, h.Pid(), abnormal.Pid)
}

func TestSupervisorReportsNonZeroExit(t *testing.T) {
	requireShell(t)
	sup := shellSupervisor(t, "exit 3", time.Second)

	h, err := sup.Start(context.Background())
	require.NoError(t, err)
	defer h.Close()

	<-h.Exited()
	require.NoError(t, h.Terminate(context.Background()))

	var abnormal *AbnormalExitError
	require.ErrorAs(t, h.ExitErr(), &abnormal)
	assert.Equal(t, 3, abnormal.ExitCode)
}

func TestSupervisorStartFailure(t *testing.T) {
	sup, err := NewSupervisor(Config{
		Command: "/nonexistent/probe-rs-binary",
		Args:    []string{"run"},
	}, nil)
	require.NoError(t, err)

	h, err := sup.Start(context.Background())
	assert.Nil(t, h)

	var startup *StartupError
	require.ErrorAs(t, err, &startup)
	assert.Equal(t, "/nonexistent/probe-rs-binary", startup.Command)
	assert.Contains(t, err.Error(), "nonexistent")
}

func TestTerminateStopsRunningProcess(t *testing.T) {
	requireShell(t)
	sup := shellSupervisor(t, "echo ready; exec sleep 30", 5*time.Second)

	h, err := sup.Start(context.Background())
	require.NoError(t, err)
	defer h.Close()

	require.Equal(t, "ready", <-h.Lines())

	start := time.Now()
	require.NoError(t, h.Terminate(context.Background()))
	assert.Less(t, time.Since(start), 4*time.Second)

	select {
	case <-h.Exited():
	default:
		t.Fatal("Terminate returned before the process was reaped")
	}
	assert.NoError(t, h.ExitErr())

	// Idempotent once exited.
	require.NoError(t, h.Terminate(context.Background()))
}

func TestTerminateKillsProcessIgnoringSIGTERM(t *testing.T) {
	requireShell(t)
	sup := shellSupervisor(t, `trap '' TERM; echo ready; while true; do sleep 1; done`, 200*time.Millisecond)

	h, err := sup.Start(context.Background())
	require.NoError(t, err)
	defer h.Close()

	require.Equal(t, "ready", <-h.Lines())

	done := make(chan error, 1)
	go func() { done <- h.Terminate(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Terminate did not escalate to SIGKILL")
	}
	assert.NoError(t, h.ExitErr())
}

func TestCloseReleasesReader(t *testing.T) {
	requireShell(t)
	sup := shellSupervisor(t, "yes line", time.Second)

	h, err := sup.Start(context.Background())
	require.NoError(t, err)

	<-h.Lines()
	require.NoError(t, h.Terminate(context.Background()))
	require.NoError(t, h.Close())

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-h.Lines():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("line stream not closed after Close")
		}
	}
}

func TestReaderSourceStreamsUntilEOF(t *testing.T) {
	src := NewReaderSource("capture", strings.NewReader("a\nb\n\nc"))

	var got []string
	for line := range src.Lines() {
		got = append(got, line)
	}
	assert.Equal(t, []string{"a", "b", "", "c"}, got)

	<-src.Exited()
	assert.NoError(t, src.ExitErr())
	assert.NoError(t, src.Err())
	assert.NoError(t, src.Terminate(context.Background()))
	assert.Equal(t, "capture", src.Name())
}

func TestConfigCommandArgs(t *testing.T) {
	cfg := Config{Probe: "0483:374b:066DFF3833584B3043115433", Firmware: "target/node2-firmware"}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultCommand, cfg.Command)
	assert.Equal(t, []string{
		"run", "--probe", "0483:374b:066DFF3833584B3043115433",
		"--chip", DefaultChip, "target/node2-firmware",
	}, cfg.CommandArgs())

	explicit := Config{Command: "cat", Args: []string{"capture.log"}}
	explicit.ApplyDefaults()
	require.NoError(t, explicit.Validate())
	assert.Equal(t, []string{"capture.log"}, explicit.CommandArgs())

	missing := Config{}
	missing.ApplyDefaults()
	assert.EqualError(t, missing.Validate(), "firmware is required unless args are given")
}

func TestReaderSourceTruncatesOversizedLine(t *testing.T) {
	long := strings.Repeat("x", maxLineSize+4096)
	src := NewReaderSource("capture", strings.NewReader(long+"\nnext\r\nlast"))

	var got []string
	for line := range src.Lines() {
		got = append(got, line)
	}

	require.Len(t, got, 3)
	assert.Len(t, got[0], maxLineSize)
	assert.Equal(t, "next", got[1])
	assert.Equal(t, "last", got[2])
	assert.NoError(t, src.Err())
}

func TestScanLinesReportsDroppedBytes(t *testing.T) {
	var (
		lines   []string
		dropped []int
	)
	err := scanLines(strings.NewReader(strings.Repeat("y", maxLineSize+10)+"\nok\n"),
		func(line string) bool {
			lines = append(lines, line)
			return true
		},
		func(n int) { dropped = append(dropped, n) },
	)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "ok", lines[1])
	assert.Equal(t, []int{10}, dropped)
}

func TestSupervisorSurvivesOversizedLine(t *testing.T) {
	requireShell(t)
	sup := shellSupervisor(t, `head -c 1100000 /dev/zero | tr '\0' x; echo; echo after; exec sleep 30`, time.Second)

	h, err := sup.Start(context.Background())
	require.NoError(t, err)
	defer h.Close()

	first := <-h.Lines()
	assert.Len(t, first, maxLineSize)
	assert.Equal(t, "after", <-h.Lines())

	select {
	case <-h.Exited():
		t.Fatal("process should still be running after an oversized line")
	default:
	}

	require.NoError(t, h.Terminate(context.Background()))
	assert.NoError(t, h.ExitErr())
	assert.NoError(t, h.Err())
}
