package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghalamif/ProbeFlow"
)

func main() {
	flow, err := probeflow.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, records, closeRecords := probeflow.NewChannelSink("forward", 32)
	defer closeRecords()

	go forwardWorker("uplink", records)

	if err := flow.Run(ctx, probeflow.StreamOutSink(sink)); err != nil {
		log.Fatalf("gateway exited: %v", err)
	}
}

func forwardWorker(name string, records <-chan probeflow.Record) {
	for r := range records {
		fmt.Printf("[%s] record %s/%d at %s\n", name, r.SourceID, r.TimestampMs, time.Now().Format(time.RFC3339))
	}
}
