package ports

// Metric names understood by the Observability adapters.
const (
	MetricLinesRead        = "probeflow_lines_read_total"
	MetricRecordsDecoded   = "probeflow_records_decoded_total"
	MetricDecodeErrors     = "probeflow_decode_errors_total"
	MetricRecordsDelivered = "probeflow_records_delivered_total"
	MetricSinkErrors       = "probeflow_sink_errors_total"
	MetricProcessExits     = "probeflow_process_exits_total"
	MetricQueueLength      = "probeflow_queue_length"
	MetricSinkLatency      = "probeflow_sink_latency_seconds"
)

type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogWarn(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	ObserveLatency(name string, seconds float64)

	SetGauge(name string, v float64)

	// RecordDecodeFailure logs the offending payload and counts the failure.
	RecordDecodeFailure(payload string, err error)
}

type Field struct {
	Key   string
	Value any
}

func F(key string, value any) Field { return Field{Key: key, Value: value} }
