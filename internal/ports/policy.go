package ports

import "time"

// Policy controls how lines become records and how records reach the sink.
type Policy struct {
	ChannelCapacity     int           `yaml:"channel_capacity" split_words:"true"`
	Marker              string        `yaml:"marker"`
	SinkTimeout         time.Duration `yaml:"sink_timeout" split_words:"true"`
	SuppressDiagnostics bool          `yaml:"suppress_diagnostics" split_words:"true"`
}
