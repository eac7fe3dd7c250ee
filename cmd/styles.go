package cmd

import (
	"github.com/CosmoTheDev/ctrlreport/models"
	"github.com/charmbracelet/lipgloss"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#14B8A6")).
	MarginBottom(1)

var successStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#10B981"))

var dimStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#6B7280"))

var severityColors = map[models.Severity]lipgloss.Color{
	models.SeverityCritical:    lipgloss.Color("#EF4444"),
	models.SeverityHigh:        lipgloss.Color("#F97316"),
	models.SeverityMedium:      lipgloss.Color("#F59E0B"),
	models.SeverityLow:         lipgloss.Color("#38BDF8"),
	models.SeverityStyle:       lipgloss.Color("#22C55E"),
	models.SeverityUnspecified: lipgloss.Color("#64748B"),
}

func severityText(s models.Severity) string {
	label := s.String()
	if label == "" {
		return dimStyle.Render("?")
	}
	st := lipgloss.NewStyle().Foreground(severityColors[s])
	if s >= models.SeverityHigh {
		st = st.Bold(true)
	}
	return st.Render(label)
}

// severityCell pads the coloured label to width visible columns.
func severityCell(s models.Severity, width int) string {
	return lipgloss.NewStyle().Width(width).Render(severityText(s))
}
