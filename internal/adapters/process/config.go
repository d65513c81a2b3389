package process

import (
	"errors"
	"time"
)

// Config captures how to launch the probe process that streams gateway
// telemetry on its stdout.
type Config struct {
	Command          string            `yaml:"command"`
	Args             []string          `yaml:"args"`
	Probe            string            `yaml:"probe"`
	Chip             string            `yaml:"chip"`
	Firmware         string            `yaml:"firmware"`
	Dir              string            `yaml:"dir"`
	Env              map[string]string `yaml:"env"`
	TerminateTimeout time.Duration     `yaml:"terminate_timeout" split_words:"true"`
}

const (
	DefaultCommand          = "probe-rs"
	DefaultChip             = "STM32F446RETx"
	DefaultTerminateTimeout = 5 * time.Second
)

func (c *Config) ApplyDefaults() {
	if c.Command == "" {
		c.Command = DefaultCommand
	}
	if c.Chip == "" {
		c.Chip = DefaultChip
	}
	if c.TerminateTimeout <= 0 {
		c.TerminateTimeout = DefaultTerminateTimeout
	}
}

func (c *Config) Validate() error {
	if c.Command == "" {
		return errors.New("command is required")
	}
	if len(c.Args) == 0 && c.Firmware == "" {
		return errors.New("firmware is required unless args are given")
	}
	if c.TerminateTimeout <= 0 {
		return errors.New("terminate_timeout must be > 0")
	}
	return nil
}

// CommandArgs returns the argument list passed to Command. Explicit Args win;
// otherwise a `probe-rs run` invocation is built from probe, chip and firmware.
func (c *Config) CommandArgs() []string {
	if len(c.Args) > 0 {
		out := make([]string, len(c.Args))
		copy(out, c.Args)
		return out
	}
	args := []string{"run"}
	if c.Probe != "" {
		args = append(args, "--probe", c.Probe)
	}
	if c.Chip != "" {
		args = append(args, "--chip", c.Chip)
	}
	return append(args, c.Firmware)
}
