package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghalamif/ProbeFlow"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitAbnormal = 2
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitFailure)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	os.Exit(exitCode(cmd, err))
}

func exitCode(cmd string, err error) int {
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(os.Stderr, "probeflow-gateway %s: %v\n", cmd, err)
	var abnormal *probeflow.AbnormalExitError
	if errors.As(err, &abnormal) {
		return exitAbnormal
	}
	return exitFailure
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./probeflow.yaml", "Path to gateway configuration file")
	replay := fs.String("replay", "", "Replay captured probe output from this file instead of spawning the probe")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var opts []probeflow.StreamInOption
	cfg, err := loadRunConfig(*cfgPath, *replay != "")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *replay != "" {
		f, err := os.Open(*replay)
		if err != nil {
			return fmt.Errorf("open replay: %w", err)
		}
		defer f.Close()
		opts = append(opts, probeflow.StreamInReplay(*replay, f))
	}

	flow, err := probeflow.ConfFromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return flow.StreamIN(opts...).Run(ctx)
}

func loadRunConfig(path string, replay bool) (*probeflow.Config, error) {
	if !replay {
		return probeflow.LoadConfig(path)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		path = ""
	}
	cfg, err := probeflow.ReadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidatePipeline(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./probeflow.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := probeflow.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s looks good\n", *cfgPath)
	fmt.Printf("  probe:    %s %v\n", cfg.Process.Command, cfg.Process.CommandArgs())
	fmt.Printf("  channel:  %d records\n", cfg.Pipeline.ChannelCapacity)
	if cfg.Timescale.Enabled() {
		fmt.Printf("  sink:     log + timescale (%s)\n", cfg.Timescale.Table)
	} else {
		fmt.Printf("  sink:     log\n")
	}
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(ctx, *url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

func printUsage() {
	fmt.Printf(`ProbeFlow gateway

Usage:
  probeflow-gateway <command> [flags]

Commands:
  run        Spawn the probe and stream its telemetry to the configured sinks
  validate   Load and validate a config file without starting the gateway
  stats      Poll the Prometheus metrics endpoint and print live counters

Exit status:
  0  clean shutdown (interrupt or end of replay)
  1  startup or configuration failure
  2  the probe exited without being asked to

Examples:
  probeflow-gateway run -config ./probeflow.yaml
  probeflow-gateway run -config ./probeflow.yaml -replay ./capture.log
  probeflow-gateway validate -config ./probeflow.yaml
  probeflow-gateway stats -url http://localhost:9100/metrics -interval 1s
`)
}
