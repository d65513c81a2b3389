package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

var statsTargets = []string{
	"probeflow_lines_read_total",
	"probeflow_records_decoded_total",
	"probeflow_decode_errors_total",
	"probeflow_records_delivered_total",
	"probeflow_sink_errors_total",
	"probeflow_queue_length",
}

func printMetricsSnapshot(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	values, err := readTargets(resp.Body)
	if err != nil {
		return err
	}

	fmt.Printf("[%s] lines=%.0f decoded=%.0f decode_errors=%.0f delivered=%.0f sink_errors=%.0f queue=%.0f\n",
		time.Now().Format(time.RFC3339),
		values["probeflow_lines_read_total"],
		values["probeflow_records_decoded_total"],
		values["probeflow_decode_errors_total"],
		values["probeflow_records_delivered_total"],
		values["probeflow_sink_errors_total"],
		values["probeflow_queue_length"],
	)
	return nil
}

// readTargets parses the text exposition format and sums each target family.
func readTargets(r io.Reader) (map[string]float64, error) {
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return nil, fmt.Errorf("parse metrics: %w", err)
	}

	out := make(map[string]float64, len(statsTargets))
	for _, name := range statsTargets {
		mf, ok := families[name]
		if !ok {
			continue
		}
		for _, m := range mf.GetMetric() {
			out[name] += metricValue(mf.GetType(), m)
		}
	}
	return out, nil
}

func metricValue(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	default:
		return m.GetUntyped().GetValue()
	}
}
