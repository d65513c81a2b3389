package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/ghalamif/ProbeFlow/internal/domain"
	"github.com/ghalamif/ProbeFlow/internal/ports"
)

// LogSink writes every record to a zap logger: one entry for the node's
// primary readings, link quality and counters, and a second entry for the
// secondary sensor when it reported anything.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.Named("telemetry")}
}

func (l *LogSink) Name() string { return "log" }

func (l *LogSink) Write(_ context.Context, r *domain.Record) error {
	if r == nil {
		return nil
	}
	l.logger.Info("record",
		zap.String("node", r.SourceID),
		zap.Uint64("ts_ms", r.TimestampMs),
		zap.Float64p("temp_c", r.Primary.TemperatureC),
		zap.Float64p("humidity_pct", r.Primary.HumidityPct),
		zap.Uint32p("gas_ohm", r.Primary.GasResistanceOhm),
		zap.Float64p("rssi_dbm", r.Link.RSSIdBm),
		zap.Float64p("snr_db", r.Link.SNRdB),
		zap.Uint32("rx", r.Counters.PacketsReceived),
		zap.Uint32("crc_errors", r.Counters.ChecksumErrors),
	)
	if r.HasSecondary() {
		l.logger.Info("secondary",
			zap.String("node", r.SourceID),
			zap.Uint64("ts_ms", r.TimestampMs),
			zap.Float64p("temp_c", r.Secondary.TemperatureC),
			zap.Float64p("pressure_hpa", r.Secondary.PressureHPa),
		)
	}
	return nil
}

var _ ports.Sink = (*LogSink)(nil)
