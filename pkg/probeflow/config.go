package probeflow

import (
	"github.com/ghalamif/ProbeFlow/internal/adapters/observability"
	"github.com/ghalamif/ProbeFlow/internal/adapters/process"
	"github.com/ghalamif/ProbeFlow/internal/app/config"
	"github.com/ghalamif/ProbeFlow/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// ProcessConfig describes the probe command and its shutdown budget.
	ProcessConfig = process.Config
	// Policy controls channel capacity, the telemetry marker and sink timeouts.
	Policy = ports.Policy
	// TimescaleConfig configures the Timescale sink.
	TimescaleConfig = config.TimescaleConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// LogConfig configures the zap logger.
	LogConfig = observability.LogConfig
)

// LoadConfig loads YAML from disk, applies PROBEFLOW_* environment overrides
// and validates the result.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ReadConfig is LoadConfig without validation; call Validate or
// ValidatePipeline on the result.
func ReadConfig(path string) (*Config, error) {
	return config.Read(path)
}

// DefaultConfig returns a Config with defaults applied. Set at least
// Process.Firmware (or Process.Args) before using it.
func DefaultConfig() *Config {
	return config.Default()
}
