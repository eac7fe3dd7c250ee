package tui

import (
	"github.com/CosmoTheDev/ctrlreport/models"
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	accent     = lipgloss.Color("#14B8A6")
	accentSoft = lipgloss.Color("#0F766E")
	slate      = lipgloss.Color("#94A3B8")
	slateDim   = lipgloss.Color("#64748B")
	panelBg    = lipgloss.Color("#111827")
	bgDark     = lipgloss.Color("#0B1220")
	line       = lipgloss.Color("#1F2937")
	ink        = lipgloss.Color("#E5E7EB")
)

// Chrome shared by both tabs.
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ink).Background(bgDark).
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(accent).Padding(0, 1)

	tabStyle = lipgloss.NewStyle().Foreground(slate).Background(bgDark).
			Border(lipgloss.RoundedBorder()).BorderForeground(line).Padding(0, 1)

	activeTabStyle = tabStyle.Bold(true).Foreground(bgDark).Background(accent).
			BorderForeground(accentSoft)

	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			BorderForeground(line).Background(panelBg).Padding(1, 1)

	boxStyle = panelStyle.Padding(1, 2)

	panelHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ink)

	mutedBadgeStyle = tabStyle

	keycapStyle = tabStyle.Foreground(ink).Background(lipgloss.Color("#1E293B"))

	selectedRowStyle = lipgloss.NewStyle().Background(lipgloss.Color("#0F172A")).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(accent)

	dimStyle = lipgloss.NewStyle().Foreground(slateDim)

	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
)

// severityStyles colours each level; High and above are bold.
var severityStyles = map[models.Severity]lipgloss.Style{
	models.SeverityCritical:    errorStyle,
	models.SeverityHigh:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F97316")),
	models.SeverityMedium:      lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
	models.SeverityLow:         lipgloss.NewStyle().Foreground(lipgloss.Color("#38BDF8")),
	models.SeverityStyle:       lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")),
	models.SeverityUnspecified: dimStyle,
}

func severityStyle(s models.Severity) lipgloss.Style {
	if st, ok := severityStyles[s]; ok {
		return st
	}
	return dimStyle
}

// severityBadge renders the label in the severity's colour. Codes outside
// the enum render as "?".
func severityBadge(s models.Severity) string {
	label, ok := s.Label()
	if !ok {
		label = "?"
	}
	return severityStyle(s).Render(label)
}
