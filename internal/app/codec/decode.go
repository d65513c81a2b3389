package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ghalamif/ProbeFlow/internal/domain"
)

// ErrDecode matches every *DecodeError via errors.Is.
var ErrDecode = errors.New("codec: decode failed")

// DecodeError carries the payload that failed to decode along with the
// underlying parser or schema diagnostic.
type DecodeError struct {
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode record: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is lets callers test for ErrDecode without caring about the cause.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// wireRecord mirrors the firmware JSON; pointers distinguish missing fields
// from zero values so required ones can be enforced.
type wireRecord struct {
	TS  *uint64        `json:"ts"`
	ID  *string        `json:"id"`
	N1  *wirePrimary   `json:"n1"`
	N2  *wireSecondary `json:"n2"`
	Sig *wireLink      `json:"sig"`
	Sts *wireCounters  `json:"sts"`
}

type wirePrimary struct {
	T *float64 `json:"t,omitempty"`
	H *float64 `json:"h,omitempty"`
	G *uint32  `json:"g,omitempty"`
}

type wireSecondary struct {
	T *float64 `json:"t,omitempty"`
	P *float64 `json:"p,omitempty"`
}

type wireLink struct {
	RSSI *float64 `json:"rssi,omitempty"`
	SNR  *float64 `json:"snr,omitempty"`
}

type wireCounters struct {
	RX  *uint32 `json:"rx"`
	Err *uint32 `json:"err"`
}

// DecodeRecord validates payload against the Record schema. Unknown fields are
// ignored; optional readings that are missing or null stay nil; a missing
// timestamp, source id, or counter is an error.
func DecodeRecord(payload string) (*domain.Record, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, &DecodeError{Payload: payload, Err: errors.New("empty payload")}
	}

	var w wireRecord
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		return nil, &DecodeError{Payload: payload, Err: err}
	}

	if err := w.checkRequired(); err != nil {
		return nil, &DecodeError{Payload: payload, Err: err}
	}

	rec := &domain.Record{
		TimestampMs: *w.TS,
		SourceID:    *w.ID,
		Counters: domain.Counters{
			PacketsReceived: *w.Sts.RX,
			ChecksumErrors:  *w.Sts.Err,
		},
	}
	if w.N1 != nil {
		rec.Primary = domain.PrimarySensor{TemperatureC: w.N1.T, HumidityPct: w.N1.H, GasResistanceOhm: w.N1.G}
	}
	if w.N2 != nil {
		rec.Secondary = domain.SecondarySensor{TemperatureC: w.N2.T, PressureHPa: w.N2.P}
	}
	if w.Sig != nil {
		rec.Link = domain.LinkQuality{RSSIdBm: w.Sig.RSSI, SNRdB: w.Sig.SNR}
	}
	return rec, nil
}

func (w *wireRecord) checkRequired() error {
	var missing []string
	if w.TS == nil {
		missing = append(missing, "ts")
	}
	if w.ID == nil {
		missing = append(missing, "id")
	}
	switch {
	case w.Sts == nil:
		missing = append(missing, "sts")
	default:
		if w.Sts.RX == nil {
			missing = append(missing, "sts.rx")
		}
		if w.Sts.Err == nil {
			missing = append(missing, "sts.err")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required field(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// EncodeRecord renders rec in the firmware wire format. Absent readings are
// omitted; the n1, n2 and sig objects are always present.
func EncodeRecord(rec *domain.Record) ([]byte, error) {
	if rec == nil {
		return nil, errors.New("encode record: nil record")
	}
	ts, id := rec.TimestampMs, rec.SourceID
	rx, crc := rec.Counters.PacketsReceived, rec.Counters.ChecksumErrors

	w := wireRecord{
		TS:  &ts,
		ID:  &id,
		N1:  &wirePrimary{T: rec.Primary.TemperatureC, H: rec.Primary.HumidityPct, G: rec.Primary.GasResistanceOhm},
		N2:  &wireSecondary{T: rec.Secondary.TemperatureC, P: rec.Secondary.PressureHPa},
		Sig: &wireLink{RSSI: rec.Link.RSSIdBm, SNR: rec.Link.SNRdB},
		Sts: &wireCounters{RX: &rx, Err: &crc},
	}
	return json.Marshal(w)
}
