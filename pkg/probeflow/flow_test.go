package probeflow

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestConfFromConfigAndStreamBuilder(t *testing.T) {
	cfg := testConfig()

	flow, err := ConfFromConfig(cfg)
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	if flow.Config() != cfg {
		t.Fatalf("expected Config to be returned verbatim")
	}

	spawner := &stubSpawner{}
	sink := newCollectingSink()

	gw, err := flow.
		StreamIN(
			StreamInSpawner(spawner),
			StreamInLogger(zap.NewNop()),
		).
		StreamOUT(
			StreamOutSink(sink),
			StreamOutObservability(&stubObservability{}),
		)
	if err != nil {
		t.Fatalf("StreamOUT returned error: %v", err)
	}
	if gw.spawner != spawner {
		t.Fatalf("expected custom spawner to be wired")
	}
	if gw.sink != sink {
		t.Fatalf("expected custom sink to be wired")
	}
	if _, ok := gw.obs.(*stubObservability); !ok {
		t.Fatalf("expected custom observability to be wired")
	}
}

func TestFlowRunReplaysIntoCallback(t *testing.T) {
	flow, err := ConfFromConfig(testConfig(), WithFlowOptions(WithLogger(zap.NewNop())))
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}

	capture := probeLine(1) + "\n" + probeLine(2) + "\n"
	var got []Record
	err = flow.
		StreamIN(StreamInReplay("capture", strings.NewReader(capture))).
		Run(context.Background(), StreamOutCallback("collect", func(r Record) error {
			got = append(got, r)
			return nil
		}))
	if err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].TimestampMs != 1 || got[1].TimestampMs != 2 {
		t.Fatalf("unexpected records: %+v", got)
	}
	if got[0].Primary.HumidityPct == nil || *got[0].Primary.HumidityPct != 40.1 {
		t.Fatalf("expected humidity to survive delivery, got %+v", got[0].Primary)
	}
}

func TestConfRejectsMissingFile(t *testing.T) {
	if _, err := Conf(t.TempDir() + "/missing.yaml"); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

type stubObservability struct{}

func (s *stubObservability) LogInfo(string, ...Field)          {}
func (s *stubObservability) LogWarn(string, ...Field)          {}
func (s *stubObservability) LogError(string, error, ...Field)  {}
func (s *stubObservability) IncCounter(string, float64)        {}
func (s *stubObservability) ObserveLatency(string, float64)    {}
func (s *stubObservability) SetGauge(string, float64)          {}
func (s *stubObservability) RecordDecodeFailure(string, error) {}
