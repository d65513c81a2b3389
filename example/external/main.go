package main

import (
	"bufio"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghalamif/ProbeFlow"
)

// Feeds lines read from stdin into the gateway, e.g.
//
//	probe-rs run --chip STM32F446RETx firmware | go run ./example/external
func main() {
	cfg := probeflow.DefaultConfig()
	cfg.Metrics.Disabled = true

	src := probeflow.NewExternalSource(64)
	flow, err := probeflow.ConfFromConfig(cfg)
	if err != nil {
		log.Fatalf("build flow: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		defer src.End()
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err := src.Publish(ctx, scanner.Text()); err != nil {
				return
			}
		}
	}()

	if err := flow.StreamIN(probeflow.StreamInSource(src)).Run(ctx); err != nil {
		log.Fatalf("gateway exited: %v", err)
	}
}
