package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ghalamif/ProbeFlow/internal/ports"
)

// PromObs implements ports.Observability with zap for logs and Prometheus
// collectors for metrics. Unknown metric names are ignored.
type PromObs struct {
	logger   *zap.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the gateway collectors on reg. A nil reg uses the
// default registerer; a nil logger discards logs.
func NewPromObs(reg prometheus.Registerer, logger *zap.Logger) (*PromObs, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	}
	linesRead := counter(ports.MetricLinesRead, "Lines read from the probe's standard output.")
	decoded := counter(ports.MetricRecordsDecoded, "Telemetry payloads decoded into records.")
	decodeErrors := counter(ports.MetricDecodeErrors, "Telemetry payloads rejected by the decoder.")
	delivered := counter(ports.MetricRecordsDelivered, "Records delivered to the sink.")
	sinkErrors := counter(ports.MetricSinkErrors, "Sink deliveries that failed or timed out.")
	exits := counter(ports.MetricProcessExits, "Probe process runs that have ended.")

	queueGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ports.MetricQueueLength,
		Help: "Current number of records buffered between ingest and sink.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    ports.MetricSinkLatency,
		Help:    "Time spent delivering one record to the sink.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	for _, c := range []prometheus.Collector{linesRead, decoded, decodeErrors, delivered, sinkErrors, exits, queueGauge, latency} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	return &PromObs{
		logger: logger,
		counters: map[string]prometheus.Counter{
			ports.MetricLinesRead:        linesRead,
			ports.MetricRecordsDecoded:   decoded,
			ports.MetricDecodeErrors:     decodeErrors,
			ports.MetricRecordsDelivered: delivered,
			ports.MetricSinkErrors:       sinkErrors,
			ports.MetricProcessExits:     exits,
		},
		gauges: map[string]prometheus.Gauge{
			ports.MetricQueueLength: queueGauge,
		},
		histos: map[string]prometheus.Observer{
			ports.MetricSinkLatency: latency,
		},
	}, nil
}

func (p *PromObs) Logger() *zap.Logger { return p.logger }

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.logger.Info(msg, zapFields(fields)...)
}

func (p *PromObs) LogWarn(msg string, fields ...ports.Field) {
	p.logger.Warn(msg, zapFields(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.logger.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordDecodeFailure(payload string, err error) {
	p.IncCounter(ports.MetricDecodeErrors, 1)
	p.logger.Warn("decode_failed", zap.String("payload", payload), zap.Error(err))
}

func zapFields(fields []ports.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
