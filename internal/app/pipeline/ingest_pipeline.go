package pipeline

import (
	"context"
	"errors"

	"github.com/ghalamif/ProbeFlow/internal/app/codec"
	"github.com/ghalamif/ProbeFlow/internal/ports"
)

// IngestStats summarises one ingest run.
type IngestStats struct {
	Lines        int
	Payloads     int
	Decoded      int
	DecodeErrors int
	Sent         int
	// ChannelClosed is set when the loop stopped because the consumer was gone.
	ChannelClosed bool
}

// RunIngest pulls lines from src, turns marker lines into records and sends
// them on q, blocking while q is full. It returns at end of stream, when the
// consumer side of q is gone, or when ctx ends. q is always closed on return.
func RunIngest(ctx context.Context, src ports.Source, q ports.RecordQueue, pol ports.Policy, obs ports.Observability) IngestStats {
	defer q.Close()

	ex := codec.NewExtractor(pol.Marker)
	var st IngestStats

	for {
		var (
			line string
			ok   bool
		)
		select {
		case line, ok = <-src.Lines():
		case <-ctx.Done():
			obs.LogWarn("ingest_cancelled", ports.F("lines", st.Lines), ports.F("sent", st.Sent))
			return st
		}
		if !ok {
			logStreamEnd(st, obs)
			return st
		}

		st.Lines++
		obs.IncCounter(ports.MetricLinesRead, 1)

		payload, found := ex.Extract(line)
		if !found {
			if !pol.SuppressDiagnostics && codec.IsDiagnostic(line) {
				obs.LogInfo("probe_output", ports.F("line", line))
			}
			continue
		}
		// An empty payload is a truncated telemetry line; the decoder rejects it.
		st.Payloads++

		rec, err := codec.DecodeRecord(payload)
		if err != nil {
			st.DecodeErrors++
			obs.RecordDecodeFailure(payload, err)
			continue
		}
		st.Decoded++
		obs.IncCounter(ports.MetricRecordsDecoded, 1)

		if err := q.Send(ctx, rec); err != nil {
			if errors.Is(err, ports.ErrChannelClosed) {
				st.ChannelClosed = true
				obs.LogWarn("ingest_stopped_consumer_gone", ports.F("sent", st.Sent))
			} else {
				obs.LogWarn("ingest_cancelled", ports.F("lines", st.Lines), ports.F("sent", st.Sent))
			}
			return st
		}
		st.Sent++
	}
}

func logStreamEnd(st IngestStats, obs ports.Observability) {
	fields := []ports.Field{
		ports.F("lines", st.Lines),
		ports.F("decoded", st.Decoded),
		ports.F("decode_errors", st.DecodeErrors),
	}
	if st.Decoded == 0 {
		obs.LogWarn("stream_ended_before_first_record", fields...)
		return
	}
	obs.LogInfo("stream_ended", fields...)
}
