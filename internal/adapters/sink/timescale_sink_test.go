package sink

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/ghalamif/ProbeFlow/internal/domain"
)

var testSession = uuid.MustParse("6f1c2a7e-1b2d-4c3e-8f90-0a1b2c3d4e5f")

func f64(v float64) *float64 { return &v }
func u32(v uint32) *uint32   { return &v }

func TestTimescaleSinkWrite(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink, err := NewTimescaleSink(db, "telemetry_records", testSession)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	received := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return received }

	rec := &domain.Record{
		TimestampMs: 123456,
		SourceID:    "N2",
		Primary: domain.PrimarySensor{
			TemperatureC:     f64(21.5),
			HumidityPct:      f64(40.25),
			GasResistanceOhm: u32(12345),
		},
		Link:     domain.LinkQuality{RSSIdBm: f64(-71)},
		Counters: domain.Counters{PacketsReceived: 10, ChecksumErrors: 1},
	}

	expectedQuery := regexp.QuoteMeta("INSERT INTO telemetry_records (session_id, source_id, ts_ms, n1_temp_c, n1_humidity_pct, n1_gas_ohm, " +
		"n2_temp_c, n2_pressure_hpa, rssi_dbm, snr_db, rx_packets, crc_errors, received_at) VALUES " +
		"($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13) ON CONFLICT (session_id, source_id, ts_ms) DO NOTHING")
	mock.ExpectExec(expectedQuery).
		WithArgs(testSession.String(), "N2", int64(123456), 21.5, 40.25, int64(12345), nil, nil, -71.0, nil, int64(10), int64(1), received).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := sink.Write(context.Background(), rec); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkWrapsExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink, err := NewTimescaleSink(db, "telemetry_records", testSession)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	boom := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO telemetry_records").WillReturnError(boom)

	err = sink.Write(context.Background(), &domain.Record{TimestampMs: 7, SourceID: "N2"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped exec error, got %v", err)
	}
}

func TestTimescaleSinkEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink, err := NewTimescaleSink(db, "public.telemetry_records", testSession)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS public.telemetry_records")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := sink.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkRejectsBadTableName(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	for _, table := range []string{"", "records; DROP TABLE x", "1records", "a.b.c"} {
		if _, err := NewTimescaleSink(db, table, testSession); err == nil {
			t.Fatalf("expected table name %q to be rejected", table)
		}
	}
}

func TestTimescaleSinkName(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	sink, _ := NewTimescaleSink(db, "samples", testSession)
	if sink.Name() != "timescaledb" {
		t.Fatalf("expected sink name timescaledb, got %s", sink.Name())
	}
}
