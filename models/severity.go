package models

import (
	"errors"
	"fmt"
	"strings"
)

// Severity is the severity of an analyzer report. The numeric values match
// the report-server wire types, so codes can be stored and exchanged as-is.
type Severity int

const (
	SeverityUnspecified Severity = 0
	SeverityStyle       Severity = 10
	SeverityLow         Severity = 20
	SeverityMedium      Severity = 30
	SeverityHigh        Severity = 40
	SeverityCritical    Severity = 50

	// SeverityInvalid is returned by SeverityFromString for labels that do not
	// name a severity. It is not a member of the enumeration.
	SeverityInvalid Severity = -1
)

// ErrUnknownSeverity is returned by ParseSeverity and UnmarshalText.
var ErrUnknownSeverity = errors.New("unknown severity")

var severities = []Severity{
	SeverityUnspecified,
	SeverityStyle,
	SeverityLow,
	SeverityMedium,
	SeverityHigh,
	SeverityCritical,
}

// Severities returns every defined severity, least severe first.
func Severities() []Severity {
	out := make([]Severity, len(severities))
	copy(out, severities)
	return out
}

// String returns the display label, or "" for codes outside the enumeration.
// Callers must treat "" as unrenderable.
func (s Severity) String() string {
	switch s {
	case SeverityUnspecified:
		return "Unspecified"
	case SeverityStyle:
		return "Style"
	case SeverityLow:
		return "Low"
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	case SeverityCritical:
		return "Critical"
	default:
		return ""
	}
}

// SeverityFromString maps a label to its code, ignoring case. Surrounding
// whitespace is not trimmed. Unknown labels return SeverityInvalid.
func SeverityFromString(label string) Severity {
	switch strings.ToLower(label) {
	case "unspecified":
		return SeverityUnspecified
	case "style":
		return SeverityStyle
	case "low":
		return SeverityLow
	case "medium":
		return SeverityMedium
	case "high":
		return SeverityHigh
	case "critical":
		return SeverityCritical
	default:
		return SeverityInvalid
	}
}

// ParseSeverity is SeverityFromString with an explicit error instead of the
// -1 sentinel.
func ParseSeverity(label string) (Severity, error) {
	s := SeverityFromString(label)
	if s == SeverityInvalid {
		return SeverityInvalid, fmt.Errorf("%w %q", ErrUnknownSeverity, label)
	}
	return s, nil
}

// Label returns the display label and whether s is a defined severity.
func (s Severity) Label() (string, bool) {
	l := s.String()
	return l, l != ""
}

// Valid reports whether s is one of the defined severities.
func (s Severity) Valid() bool {
	_, ok := s.Label()
	return ok
}

// MarshalText encodes s as its label. Undefined codes encode as "", the same
// sentinel String returns, so one bad stored row never breaks a listing.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a case-insensitive label.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// AtLeast reports whether s is as severe as min or more.
func (s Severity) AtLeast(min Severity) bool {
	return s >= min
}

// MapSeverity normalises analyzer and scanner severity words onto Severity.
// Words that name no known level map to SeverityUnspecified.
func MapSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical", "fatal", "blocker":
		return SeverityCritical
	case "high", "error", "major":
		return SeverityHigh
	case "medium", "moderate", "warning", "warn":
		return SeverityMedium
	case "low", "minor", "info", "note", "negligible":
		return SeverityLow
	case "style", "convention", "refactor":
		return SeverityStyle
	default:
		return SeverityUnspecified
	}
}
