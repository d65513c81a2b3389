package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ghalamif/ProbeFlow/internal/adapters/observability"
	"github.com/ghalamif/ProbeFlow/internal/adapters/process"
	"github.com/ghalamif/ProbeFlow/internal/app/codec"
	"github.com/ghalamif/ProbeFlow/internal/ports"
)

// EnvPrefix namespaces environment overrides, e.g. PROBEFLOW_PROCESS_PROBE.
const EnvPrefix = "PROBEFLOW"

const (
	DefaultChannelCapacity = 100
	DefaultSinkTimeout     = 2 * time.Second
	DefaultMetricsAddr     = ":9100"
	DefaultTable           = "telemetry_records"
)

type Config struct {
	Process   process.Config          `yaml:"process"`
	Pipeline  ports.Policy            `yaml:"pipeline"`
	Timescale TimescaleConfig         `yaml:"timescale"`
	Metrics   MetricsConfig           `yaml:"metrics"`
	Logging   observability.LogConfig `yaml:"logging"`
}

// TimescaleConfig enables the Timescale sink when ConnString is set.
type TimescaleConfig struct {
	ConnString   string `yaml:"conn_string" split_words:"true"`
	Table        string `yaml:"table"`
	EnsureSchema bool   `yaml:"ensure_schema" split_words:"true"`
}

func (t TimescaleConfig) Enabled() bool { return t.ConnString != "" }

type MetricsConfig struct {
	Addr     string `yaml:"addr"`
	Disabled bool   `yaml:"disabled"`
}

// Default returns a configuration with every default applied. The firmware
// path still has to be filled in before it validates.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads the YAML file at path (skipped when path is empty), applies
// PROBEFLOW_* environment overrides, then defaults, then validates.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for callers that validate a subset.
func Read(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	c.Process.ApplyDefaults()

	if c.Pipeline.ChannelCapacity == 0 {
		c.Pipeline.ChannelCapacity = DefaultChannelCapacity
	}
	if c.Pipeline.Marker == "" {
		c.Pipeline.Marker = codec.DefaultMarker
	}
	if c.Pipeline.SinkTimeout == 0 {
		c.Pipeline.SinkTimeout = DefaultSinkTimeout
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}
	if c.Timescale.Table == "" {
		c.Timescale.Table = DefaultTable
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if len(c.Logging.OutputPaths) == 0 {
		c.Logging.OutputPaths = []string{"stderr"}
	}
}

func (c *Config) Validate() error {
	if err := c.Process.Validate(); err != nil {
		return fmt.Errorf("process config: %w", err)
	}
	return c.ValidatePipeline()
}

// ValidatePipeline checks everything except the process section, which a
// gateway fed by a replay or external source never uses.
func (c *Config) ValidatePipeline() error {
	if c.Pipeline.ChannelCapacity <= 0 {
		return fmt.Errorf("pipeline.channel_capacity must be > 0, got %d", c.Pipeline.ChannelCapacity)
	}
	if c.Pipeline.Marker == "" {
		return fmt.Errorf("pipeline.marker is required")
	}
	if c.Pipeline.SinkTimeout < 0 {
		return fmt.Errorf("pipeline.sink_timeout must not be negative")
	}
	if !c.Metrics.Disabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
