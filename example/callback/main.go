package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/ghalamif/ProbeFlow/pkg/probeflow"
)

func main() {
	flow, err := probeflow.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	callback := func(r probeflow.Record) error {
		fmt.Printf("ts=%d id=%s rx=%d err=%d", r.TimestampMs, r.SourceID, r.Counters.PacketsReceived, r.Counters.ChecksumErrors)
		if t := r.Primary.TemperatureC; t != nil {
			fmt.Printf(" t=%.2fC", *t)
		}
		if rssi := r.Link.RSSIdBm; rssi != nil {
			fmt.Printf(" rssi=%.0fdBm", *rssi)
		}
		fmt.Println()
		return nil
	}

	if err := flow.Run(ctx, probeflow.StreamOutCallback("stdout", callback)); err != nil {
		log.Fatalf("gateway exited: %v", err)
	}
}
