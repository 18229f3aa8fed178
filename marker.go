package serial

import "fmt"

// StartMarker is the character sequence prepended to every outgoing message.
type StartMarker int

// Start markers in display order.
const (
	StartNone StartMarker = iota
	StartSTX
	StartSOH
	StartESC
)

// EndMarker is the character sequence appended to every outgoing message.
type EndMarker int

// End markers in display order.
const (
	EndNone EndMarker = iota
	EndNewline
	EndCarriageReturn
	EndBoth
)

type markerDef struct {
	label    string
	sequence string
}

var startMarkers = [...]markerDef{
	StartNone: {"None", ""},
	StartSTX:  {"Start of Text (STX)", "\x02"},
	StartSOH:  {"Start of Header (SOH)", "\x01"},
	StartESC:  {"Escape (ESC)", "\x1b"},
}

var endMarkers = [...]markerDef{
	EndNone:           {"No Line Ending", ""},
	EndNewline:        {"Newline", "\n"},
	EndCarriageReturn: {"Carriage Return", "\r"},
	EndBoth:           {"Both NL & CR", "\r\n"},
}

// StartMarkerOptions returns every start marker in display order.
func StartMarkerOptions() []StartMarker {
	out := make([]StartMarker, len(startMarkers))
	for i := range startMarkers {
		out[i] = StartMarker(i)
	}
	return out
}

// EndMarkerOptions returns every end marker in display order.
func EndMarkerOptions() []EndMarker {
	out := make([]EndMarker, len(endMarkers))
	for i := range endMarkers {
		out[i] = EndMarker(i)
	}
	return out
}

// Valid reports whether m is one of StartMarkerOptions.
func (m StartMarker) Valid() bool { return m >= 0 && int(m) < len(startMarkers) }

// Label is the human-readable name, e.g. "Start of Text (STX)".
func (m StartMarker) Label() string {
	if !m.Valid() {
		return fmt.Sprintf("StartMarker(%d)", int(m))
	}
	return startMarkers[m].label
}

// Sequence is the literal text written before the message.
func (m StartMarker) Sequence() string {
	if !m.Valid() {
		return ""
	}
	return startMarkers[m].sequence
}

// String returns the label.
func (m StartMarker) String() string { return m.Label() }

// Valid reports whether m is one of EndMarkerOptions.
func (m EndMarker) Valid() bool { return m >= 0 && int(m) < len(endMarkers) }

// Label is the human-readable name, e.g. "Both NL & CR".
func (m EndMarker) Label() string {
	if !m.Valid() {
		return fmt.Sprintf("EndMarker(%d)", int(m))
	}
	return endMarkers[m].label
}

// Sequence is the literal text written after the message.
func (m EndMarker) Sequence() string {
	if !m.Valid() {
		return ""
	}
	return endMarkers[m].sequence
}

// String returns the label.
func (m EndMarker) String() string { return m.Label() }

// ParseStartMarker maps a label back to its marker.
func ParseStartMarker(label string) (StartMarker, error) {
	for i, d := range startMarkers {
		if d.label == label {
			return StartMarker(i), nil
		}
	}
	return StartNone, fmt.Errorf("%w: start %q", ErrUnknownMarker, label)
}

// ParseEndMarker maps a label back to its marker.
func ParseEndMarker(label string) (EndMarker, error) {
	for i, d := range endMarkers {
		if d.label == label {
			return EndMarker(i), nil
		}
	}
	return EndNone, fmt.Errorf("%w: end %q", ErrUnknownMarker, label)
}
