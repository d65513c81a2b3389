package sink

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/ghalamif/ProbeFlow/internal/domain"
	"github.com/ghalamif/ProbeFlow/internal/ports"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

const recordColumns = "session_id, source_id, ts_ms, n1_temp_c, n1_humidity_pct, n1_gas_ohm, " +
	"n2_temp_c, n2_pressure_hpa, rssi_dbm, snr_db, rx_packets, crc_errors, received_at"

// TimescaleSink inserts one row per record. Rows are keyed by session, source
// and source timestamp so a replayed record is ignored.
type TimescaleSink struct {
	db        *sql.DB
	tableName string
	sessionID uuid.UUID
	insertSQL string
	now       func() time.Time
}

func NewTimescaleSink(db *sql.DB, table string, sessionID uuid.UUID) (*TimescaleSink, error) {
	if db == nil {
		return nil, fmt.Errorf("timescale sink: db is nil")
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("timescale sink: invalid table name %q", table)
	}
	return &TimescaleSink{
		db:        db,
		tableName: table,
		sessionID: sessionID,
		insertSQL: "INSERT INTO " + table + " (" + recordColumns + ") VALUES " +
			"($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13) ON CONFLICT (session_id, source_id, ts_ms) DO NOTHING",
		now: time.Now,
	}, nil
}

func (t *TimescaleSink) Name() string { return "timescaledb" }

// EnsureSchema creates the records table if it does not exist yet. Turning it
// into a hypertable is left to the operator.
func (t *TimescaleSink) EnsureSchema(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS "+t.tableName+` (
	session_id      UUID             NOT NULL,
	source_id       TEXT             NOT NULL,
	ts_ms           BIGINT           NOT NULL,
	n1_temp_c       DOUBLE PRECISION,
	n1_humidity_pct DOUBLE PRECISION,
	n1_gas_ohm      BIGINT,
	n2_temp_c       DOUBLE PRECISION,
	n2_pressure_hpa DOUBLE PRECISION,
	rssi_dbm        DOUBLE PRECISION,
	snr_db          DOUBLE PRECISION,
	rx_packets      BIGINT           NOT NULL,
	crc_errors      BIGINT           NOT NULL,
	received_at     TIMESTAMPTZ      NOT NULL,
	PRIMARY KEY (session_id, source_id, ts_ms)
)`)
	if err != nil {
		return fmt.Errorf("ensure schema %s: %w", t.tableName, err)
	}
	return nil
}

func (t *TimescaleSink) Write(ctx context.Context, r *domain.Record) error {
	if r == nil {
		return nil
	}
	_, err := t.db.ExecContext(ctx, t.insertSQL,
		t.sessionID.String(),
		r.SourceID,
		int64(r.TimestampMs),
		nullFloat(r.Primary.TemperatureC),
		nullFloat(r.Primary.HumidityPct),
		nullUint(r.Primary.GasResistanceOhm),
		nullFloat(r.Secondary.TemperatureC),
		nullFloat(r.Secondary.PressureHPa),
		nullFloat(r.Link.RSSIdBm),
		nullFloat(r.Link.SNRdB),
		int64(r.Counters.PacketsReceived),
		int64(r.Counters.ChecksumErrors),
		t.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert record %s@%d: %w", r.SourceID, r.TimestampMs, err)
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullUint(v *uint32) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

var _ ports.Sink = (*TimescaleSink)(nil)
