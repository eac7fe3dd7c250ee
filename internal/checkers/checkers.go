// Package checkers maps analyzer checker names to report severities.
//
// Two file shapes are accepted, in YAML or JSON:
//
//	labels:
//	  core.DivideZero: [severity:HIGH, profile:default]
//
// or a flat map:
//
//	core.DivideZero: HIGH
package checkers

import (
	"embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/CosmoTheDev/ctrlreport/models"
	"go.yaml.in/yaml/v3"
)

//go:embed defaults/severities.yaml
var defaultsFS embed.FS

const severityLabelPrefix = "severity:"

// Map is an immutable checker→severity lookup.
type Map struct {
	bySeverity map[string]models.Severity
}

// Default returns the bundled map.
func Default() (*Map, error) {
	data, err := defaultsFS.ReadFile("defaults/severities.yaml")
	if err != nil {
		return nil, fmt.Errorf("checkers: reading bundled map: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("checkers: parse bundled map: %w", err)
	}
	return m, nil
}

// Load reads a map from path, or the bundled map when path is empty.
func Load(path string) (*Map, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checkers: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("checkers: parse %q: %w", path, err)
	}
	return m, nil
}

// Parse decodes a checker map. Entries whose severity label is unknown are
// skipped with a warning.
func Parse(data []byte) (*Map, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	m := &Map{bySeverity: make(map[string]models.Severity)}
	if labels, ok := doc["labels"].(map[string]any); ok {
		for checker, raw := range labels {
			list, ok := raw.([]any)
			if !ok {
				return nil, fmt.Errorf("labels of %q must be a list", checker)
			}
			for _, item := range list {
				label, _ := item.(string)
				if !strings.HasPrefix(label, severityLabelPrefix) {
					continue
				}
				m.add(checker, strings.TrimPrefix(label, severityLabelPrefix))
			}
		}
		return m, nil
	}

	for checker, raw := range doc {
		label, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("severity of %q must be a string", checker)
		}
		m.add(checker, label)
	}
	return m, nil
}

func (m *Map) add(checker, label string) {
	s := models.SeverityFromString(label)
	if s == models.SeverityInvalid {
		slog.Warn("checkers: skipping unknown severity label", "checker", checker, "label", label)
		return
	}
	m.bySeverity[checker] = s
}

// Severity returns the checker's severity, or SeverityUnspecified when the
// checker is not in the map.
func (m *Map) Severity(checker string) models.Severity {
	if m == nil {
		return models.SeverityUnspecified
	}
	if s, ok := m.bySeverity[checker]; ok {
		return s
	}
	return models.SeverityUnspecified
}

// Lookup is Severity with a found flag.
func (m *Map) Lookup(checker string) (models.Severity, bool) {
	if m == nil {
		return models.SeverityUnspecified, false
	}
	s, ok := m.bySeverity[checker]
	return s, ok
}

// Len returns the number of mapped checkers.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.bySeverity)
}
