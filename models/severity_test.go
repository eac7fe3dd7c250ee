package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestSeverityString(t *testing.T) {
	tests := []struct {
		name     string
		severity Severity
		expected string
	}{
		{"Unspecified", SeverityUnspecified, "Unspecified"},
		{"Style", SeverityStyle, "Style"},
		{"Low", SeverityLow, "Low"},
		{"Medium", SeverityMedium, "Medium"},
		{"High", SeverityHigh, "High"},
		{"Critical", SeverityCritical, "Critical"},
		{"Out of range", Severity(999), ""},
		{"Between members", Severity(3), ""},
		{"Invalid sentinel", SeverityInvalid, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.severity.String())
		})
	}
}

func TestSeverityFromString(t *testing.T) {
	tests := []struct {
		label    string
		expected Severity
	}{
		{"unspecified", SeverityUnspecified},
		{"style", SeverityStyle},
		{"StYlE", SeverityStyle},
		{"low", SeverityLow},
		{"Medium", SeverityMedium},
		{"HIGH", SeverityHigh},
		{"High", SeverityHigh},
		{"high", SeverityHigh},
		{"critical", SeverityCritical},
		{"", SeverityInvalid},
		{"unknown", SeverityInvalid},
		{"nope", SeverityInvalid},
		{" high", SeverityInvalid},
		{"40", SeverityInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			require.Equal(t, tt.expected, SeverityFromString(tt.label))
		})
	}
}

func TestSeverityRoundTrip(t *testing.T) {
	for _, s := range Severities() {
		label := s.String()
		require.NotEmpty(t, label)
		assert.Equal(t, s, SeverityFromString(label))
		assert.Equal(t, s, SeverityFromString(strings.ToUpper(label)))
		assert.Equal(t, label, SeverityFromString(strings.ToLower(label)).String())
	}
}

func TestSeveritiesOrdered(t *testing.T) {
	all := Severities()
	require.Len(t, all, 6)
	for i := 1; i < len(all); i++ {
		assert.Less(t, int(all[i-1]), int(all[i]))
	}

	all[0] = SeverityCritical
	assert.Equal(t, SeverityUnspecified, Severities()[0], "Severities must return a copy")
}

func TestParseSeverity(t *testing.T) {
	s, err := ParseSeverity("CRITICAL")
	require.NoError(t, err)
	assert.Equal(t, SeverityCritical, s)

	s, err = ParseSeverity("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSeverity))
	assert.Contains(t, err.Error(), `"nope"`)
	assert.Equal(t, SeverityInvalid, s)
}

func TestSeverityLabel(t *testing.T) {
	l, ok := SeverityMedium.Label()
	assert.True(t, ok)
	assert.Equal(t, "Medium", l)

	l, ok = Severity(7).Label()
	assert.False(t, ok)
	assert.Empty(t, l)

	assert.True(t, SeverityUnspecified.Valid())
	assert.False(t, SeverityInvalid.Valid())
}

func TestSeverityJSON(t *testing.T) {
	type row struct {
		Severity Severity `json:"severity"`
	}

	raw, err := json.Marshal(row{Severity: SeverityHigh})
	require.NoError(t, err)
	assert.JSONEq(t, `{"severity":"High"}`, string(raw))

	var decoded row
	require.NoError(t, json.Unmarshal([]byte(`{"severity":"critical"}`), &decoded))
	assert.Equal(t, SeverityCritical, decoded.Severity)

	err = json.Unmarshal([]byte(`{"severity":"urgent"}`), &decoded)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSeverity))

	raw, err = json.Marshal(row{Severity: Severity(999)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"severity":""}`, string(raw))
}

func TestSeverityYAML(t *testing.T) {
	var out struct {
		Min Severity `yaml:"min"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("min: Style\n"), &out))
	assert.Equal(t, SeverityStyle, out.Min)

	raw, err := yaml.Marshal(out)
	require.NoError(t, err)
	assert.Equal(t, "min: Style\n", string(raw))
}

func TestSeverityAtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.True(t, SeverityHigh.AtLeast(SeverityHigh))
	assert.False(t, SeverityStyle.AtLeast(SeverityLow))
}

func TestMapSeverity(t *testing.T) {
	tests := []struct {
		raw      string
		expected Severity
	}{
		{"CRITICAL", SeverityCritical},
		{"error", SeverityHigh},
		{"warning", SeverityMedium},
		{"MODERATE", SeverityMedium},
		{"note", SeverityLow},
		{"negligible", SeverityLow},
		{"style", SeverityStyle},
		{"", SeverityUnspecified},
		{"whatever", SeverityUnspecified},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			require.Equal(t, tt.expected, MapSeverity(tt.raw))
		})
	}
}
