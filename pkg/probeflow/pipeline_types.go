package probeflow

import (
	"github.com/ghalamif/ProbeFlow/internal/adapters/process"
	"github.com/ghalamif/ProbeFlow/internal/app/codec"
	"github.com/ghalamif/ProbeFlow/internal/app/pipeline"
	"github.com/ghalamif/ProbeFlow/internal/domain"
	"github.com/ghalamif/ProbeFlow/internal/ports"
)

// Record is one decoded telemetry message. Treat it as read-only.
type Record = domain.Record

type (
	PrimarySensor   = domain.PrimarySensor
	SecondarySensor = domain.SecondarySensor
	LinkQuality     = domain.LinkQuality
	Counters        = domain.Counters
)

// Source is a running telemetry producer exposed as a line stream.
type Source = ports.Source

// Spawner starts a Source; the default spawns the configured probe process.
type Spawner = ports.Spawner

// Sink receives every decoded record, one at a time and in order.
type Sink = ports.Sink

// RecordQueue is the bounded hand-off between ingest and sink.
type RecordQueue = ports.RecordQueue

// Observability emits logs and metrics about the pipeline.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

type (
	// State is the gateway's lifecycle phase: running, draining or stopped.
	State       = pipeline.State
	IngestStats = pipeline.IngestStats
	SinkStats   = pipeline.SinkStats
)

const (
	StateRunning  = pipeline.StateRunning
	StateDraining = pipeline.StateDraining
	StateStopped  = pipeline.StateStopped
)

type (
	// StartupError means the probe process could not be launched.
	StartupError = process.StartupError
	// AbnormalExitError means the probe stopped without being asked to.
	AbnormalExitError = process.AbnormalExitError
	// DecodeError carries the payload that failed to decode.
	DecodeError = codec.DecodeError
)

var (
	ErrDecode        = codec.ErrDecode
	ErrChannelClosed = ports.ErrChannelClosed
)

// ExtractPayload pulls the JSON payload out of one probe output line.
func ExtractPayload(line string) (string, bool) { return codec.ExtractPayload(line) }

// DecodeRecord validates and decodes one JSON payload.
func DecodeRecord(payload string) (*Record, error) { return codec.DecodeRecord(payload) }

// EncodeRecord renders r in the gateway wire format.
func EncodeRecord(r *Record) ([]byte, error) { return codec.EncodeRecord(r) }
