package codec

import "strings"

// DefaultMarker is the literal the gateway firmware prints in front of every
// telemetry payload it forwards over the virtual COM port.
const DefaultMarker = "JSON sent via VCP: "

// locationDelimiter introduces the source-location annotation the firmware
// logger appends to each line, e.g. " (node2_firmware src/main.rs:573)".
const locationDelimiter = " ("

// escapedNewline is the two-character `\n` sequence the probe prints in place
// of the firmware's trailing newline.
const escapedNewline = `\n`

var diagnosticTags = []string{"[INFO]", "[WARN]", "[ERROR]"}

// Extractor pulls the raw telemetry payload out of one probe output line.
type Extractor struct {
	Marker string
}

// NewExtractor returns an Extractor for marker, falling back to DefaultMarker.
func NewExtractor(marker string) Extractor {
	if marker == "" {
		marker = DefaultMarker
	}
	return Extractor{Marker: marker}
}

// Extract returns the payload following the marker and ok=true, or ok=false
// when the line carries no marker. The payload may be empty; extraction itself
// never fails.
//
// The location suffix is located by the first " (" after the marker, so a
// payload that itself contains " (" gets truncated there. The firmware's JSON
// never does, but nothing here enforces it.
func (e Extractor) Extract(line string) (string, bool) {
	marker := e.Marker
	if marker == "" {
		marker = DefaultMarker
	}

	idx := strings.Index(line, marker)
	if idx < 0 {
		return "", false
	}
	candidate := line[idx+len(marker):]

	// Cut the location suffix first so an escaped newline inside it can't
	// shadow the one terminating the payload.
	if cut := strings.Index(candidate, locationDelimiter); cut >= 0 {
		candidate = candidate[:cut]
	}
	candidate = strings.TrimSpace(candidate)
	candidate = strings.TrimSuffix(candidate, escapedNewline)
	candidate = strings.TrimSuffix(candidate, "\n")

	return strings.TrimSpace(candidate), true
}

// ExtractPayload runs the default Extractor over line.
func ExtractPayload(line string) (string, bool) {
	return Extractor{Marker: DefaultMarker}.Extract(line)
}

// IsDiagnostic reports whether line is a leveled firmware log line worth
// passing through to the operator.
func IsDiagnostic(line string) bool {
	for _, tag := range diagnosticTags {
		if strings.Contains(line, tag) {
			return true
		}
	}
	return false
}
