package domain

// Record is the canonical unit of gateway telemetry in ProbeFlow. A Record is
// never mutated after decoding; stages hand it off by pointer.
type Record struct {
	TimestampMs uint64          `json:"ts"`
	SourceID    string          `json:"id"`
	Primary     PrimarySensor   `json:"n1"`
	Secondary   SecondarySensor `json:"n2"`
	Link        LinkQuality     `json:"sig"`
	Counters    Counters        `json:"sts"`
}

// PrimarySensor holds the remote node's environmental readings.
type PrimarySensor struct {
	TemperatureC     *float64 `json:"t,omitempty"`
	HumidityPct      *float64 `json:"h,omitempty"`
	GasResistanceOhm *uint32  `json:"g,omitempty"`
}

// SecondarySensor holds the gateway's local readings.
type SecondarySensor struct {
	TemperatureC *float64 `json:"t,omitempty"`
	PressureHPa  *float64 `json:"p,omitempty"`
}

// LinkQuality describes the radio link the primary readings arrived over.
type LinkQuality struct {
	RSSIdBm *float64 `json:"rssi,omitempty"`
	SNRdB   *float64 `json:"snr,omitempty"`
}

// Counters are session totals kept by the producing firmware.
type Counters struct {
	PacketsReceived uint32 `json:"rx"`
	ChecksumErrors  uint32 `json:"err"`
}

// HasSecondary reports whether any secondary reading is present.
func (r *Record) HasSecondary() bool {
	return r.Secondary.TemperatureC != nil || r.Secondary.PressureHPa != nil
}
