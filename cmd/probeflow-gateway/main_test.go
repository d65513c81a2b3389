package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghalamif/ProbeFlow"
)

func TestReadTargets(t *testing.T) {
	exposition := `# HELP probeflow_records_decoded_total Telemetry payloads decoded into records.
# TYPE probeflow_records_decoded_total counter
probeflow_records_decoded_total 12
# HELP probeflow_queue_length Current number of records buffered between ingest and sink.
# TYPE probeflow_queue_length gauge
probeflow_queue_length 3
# HELP go_goroutines Number of goroutines that currently exist.
# TYPE go_goroutines gauge
go_goroutines 9
`
	values, err := readTargets(strings.NewReader(exposition))
	require.NoError(t, err)

	assert.Equal(t, 12.0, values["probeflow_records_decoded_total"])
	assert.Equal(t, 3.0, values["probeflow_queue_length"])
	assert.NotContains(t, values, "go_goroutines")
	assert.NotContains(t, values, "probeflow_sink_errors_total")
}

func TestReadTargetsRejectsGarbage(t *testing.T) {
	_, err := readTargets(strings.NewReader("probeflow_queue_length not-a-number\n"))
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode("run", nil))
	assert.Equal(t, exitFailure, exitCode("run", errors.New("boom")))

	abnormal := &probeflow.AbnormalExitError{Pid: 10, ExitCode: 1}
	assert.Equal(t, exitAbnormal, exitCode("run", fmt.Errorf("gateway: %w", abnormal)))
}

func TestLoadRunConfigForReplay(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := loadRunConfig(missing, false)
	assert.Error(t, err)

	cfg, err := loadRunConfig(missing, true)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Pipeline.ChannelCapacity)

	path := filepath.Join(t.TempDir(), "probeflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  channel_capacity: -3\n"), 0o600))
	_, err = loadRunConfig(path, true)
	assert.Error(t, err)
}
