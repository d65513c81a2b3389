package probeflow

import (
	"io"

	"go.uber.org/zap"

	base "github.com/ghalamif/ProbeFlow/pkg/probeflow"
)

// Re-exported errors for convenience.
var (
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
	ErrSourceClosed      = base.ErrSourceClosed
	ErrDecode            = base.ErrDecode
	ErrChannelClosed     = base.ErrChannelClosed
)

// Type aliases so consumers can import github.com/ghalamif/ProbeFlow directly.
type (
	Config            = base.Config
	ProcessConfig     = base.ProcessConfig
	Policy            = base.Policy
	TimescaleConfig   = base.TimescaleConfig
	MetricsConfig     = base.MetricsConfig
	LogConfig         = base.LogConfig
	Flow              = base.Flow
	FlowOption        = base.FlowOption
	StreamInOption    = base.StreamInOption
	StreamOutOption   = base.StreamOutOption
	Gateway           = base.Gateway
	GatewayOption     = base.GatewayOption
	Record            = base.Record
	PrimarySensor     = base.PrimarySensor
	SecondarySensor   = base.SecondarySensor
	LinkQuality       = base.LinkQuality
	Counters          = base.Counters
	RecordHandler     = base.RecordHandler
	Source            = base.Source
	Spawner           = base.Spawner
	Sink              = base.Sink
	Observability     = base.Observability
	Field             = base.Field
	State             = base.State
	IngestStats       = base.IngestStats
	SinkStats         = base.SinkStats
	StartupError      = base.StartupError
	AbnormalExitError = base.AbnormalExitError
	DecodeError       = base.DecodeError
	ExternalSource    = base.ExternalSource
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func ReadConfig(path string) (*Config, error) {
	return base.ReadConfig(path)
}

func DefaultConfig() *Config {
	return base.DefaultConfig()
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...GatewayOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func StreamInSpawner(s Spawner) StreamInOption {
	return base.StreamInSpawner(s)
}

func StreamInSource(src Source) StreamInOption {
	return base.StreamInSource(src)
}

func StreamInReplay(name string, r io.Reader) StreamInOption {
	return base.StreamInReplay(name, r)
}

func StreamInLogger(logger *zap.Logger) StreamInOption {
	return base.StreamInLogger(logger)
}

func StreamOutSink(s Sink) StreamOutOption {
	return base.StreamOutSink(s)
}

func StreamOutObservability(obs Observability) StreamOutOption {
	return base.StreamOutObservability(obs)
}

func StreamOutCallback(name string, fn RecordHandler) StreamOutOption {
	return base.StreamOutCallback(name, fn)
}

// Gateway and options.
func NewGateway(cfg *Config, opts ...GatewayOption) (*Gateway, error) {
	return base.NewGateway(cfg, opts...)
}

func WithSpawner(s Spawner) GatewayOption {
	return base.WithSpawner(s)
}

func WithSource(src Source) GatewayOption {
	return base.WithSource(src)
}

func WithSink(s Sink) GatewayOption {
	return base.WithSink(s)
}

func WithObservability(obs Observability) GatewayOption {
	return base.WithObservability(obs)
}

func WithLogger(logger *zap.Logger) GatewayOption {
	return base.WithLogger(logger)
}

// Sink adapters.
func NewCallbackSink(name string, fn RecordHandler) Sink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (Sink, <-chan Record, func()) {
	return base.NewChannelSink(name, buffer)
}

// Sources.
func NewExternalSource(buffer int) *ExternalSource {
	return base.NewExternalSource(buffer)
}

func NewReplaySource(name string, r io.Reader) Source {
	return base.NewReplaySource(name, r)
}

// Codec helpers.
func ExtractPayload(line string) (string, bool) {
	return base.ExtractPayload(line)
}

func DecodeRecord(payload string) (*Record, error) {
	return base.DecodeRecord(payload)
}

func EncodeRecord(r *Record) ([]byte, error) {
	return base.EncodeRecord(r)
}
