package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/ghalamif/ProbeFlow/internal/domain"
	"github.com/ghalamif/ProbeFlow/internal/ports"
)

// SinkStats summarises one sink run.
type SinkStats struct {
	Received  int
	Delivered int
	Failed    int
}

// RunSink hands every record received from q to sink until q reports end of
// stream. Each delivery is bounded by pol.SinkTimeout. Sink errors are counted
// and logged, never fatal. If ctx ends first the consumer side of q is dropped.
func RunSink(ctx context.Context, q ports.RecordQueue, sink ports.Sink, pol ports.Policy, obs ports.Observability) SinkStats {
	var st SinkStats

	for {
		rec, err := q.Receive(ctx)
		if err != nil {
			if !errors.Is(err, ports.ErrEndOfStream) {
				q.Drop()
				obs.LogWarn("sink_cancelled", ports.F("delivered", st.Delivered), ports.F("pending", q.Len()))
			}
			obs.SetGauge(ports.MetricQueueLength, 0)
			return st
		}
		st.Received++
		obs.SetGauge(ports.MetricQueueLength, float64(q.Len()))

		start := time.Now()
		if err := deliver(ctx, sink, rec, pol.SinkTimeout); err != nil {
			st.Failed++
			obs.IncCounter(ports.MetricSinkErrors, 1)
			obs.LogError("sink_write_failed", err,
				ports.F("sink", sink.Name()),
				ports.F("source_id", rec.SourceID),
				ports.F("ts", rec.TimestampMs),
			)
			continue
		}
		obs.ObserveLatency(ports.MetricSinkLatency, time.Since(start).Seconds())
		obs.IncCounter(ports.MetricRecordsDelivered, 1)
		st.Delivered++
	}
}

func deliver(ctx context.Context, sink ports.Sink, rec *domain.Record, timeout time.Duration) error {
	if timeout <= 0 {
		return sink.Write(ctx, rec)
	}
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return sink.Write(wctx, rec)
}
