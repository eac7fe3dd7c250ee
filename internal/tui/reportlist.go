package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/CosmoTheDev/ctrlreport/internal/database"
	"github.com/CosmoTheDev/ctrlreport/internal/reports"
	"github.com/CosmoTheDev/ctrlreport/models"
	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const reportPageSize = 200

// ReportsModel displays open reports with a minimum-severity filter and a
// severity sort toggle.
type ReportsModel struct {
	db       database.DB
	items    []models.Report
	total    int
	err      error
	refresh  time.Duration
	width    int
	height   int
	cursor   int
	minSev   models.Severity
	sortDesc bool
	loading  bool
	// gen changes whenever the filter or sort changes or a manual refresh
	// starts. Loads and ticks from an older gen are dropped, so only one
	// refresh loop is ever live.
	gen int
}

type reportsLoadedMsg struct {
	gen   int
	items []models.Report
	total int
	err   error
}

type reportsTickMsg struct{ gen int }

// NewReportsModel creates a ReportsModel starting at minSev, most severe first.
func NewReportsModel(db database.DB, minSev models.Severity, refresh time.Duration) ReportsModel {
	return ReportsModel{db: db, minSev: minSev, sortDesc: true, refresh: refresh, loading: true}
}

func (m ReportsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ReportsModel) filter() models.ReportFilter {
	f := models.ReportFilter{SortBy: "severity", Descending: m.sortDesc, Limit: reportPageSize}
	if m.minSev != models.SeverityUnspecified {
		minSev := m.minSev
		f.MinSeverity = &minSev
	}
	return f
}

func (m ReportsModel) loadCmd() tea.Cmd {
	f, db, gen := m.filter(), m.db, m.gen
	return func() tea.Msg {
		items, total, err := reports.List(context.Background(), db, f)
		return reportsLoadedMsg{gen: gen, items: items, total: total, err: err}
	}
}

// reload starts a new generation and loads with the current filter.
func (m ReportsModel) reload() (ReportsModel, tea.Cmd) {
	m.gen++
	m.cursor = 0
	m.loading = true
	return m, m.loadCmd()
}

func (m ReportsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.items = msg.items
			m.total = msg.total
		}
		m = m.clampCursor()
		if m.refresh <= 0 {
			return m, nil
		}
		gen := m.gen
		return m, tea.Tick(m.refresh, func(time.Time) tea.Msg {
			return reportsTickMsg{gen: gen}
		})

	case reportsTickMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		return m, m.loadCmd()

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			m.cursor++
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "f":
			m.minSev = nextMinSeverity(m.minSev)
			return m.reload()
		case "s":
			m.sortDesc = !m.sortDesc
			return m.reload()
		case "r":
			return m.reload()
		}
	}
	m = m.clampCursor()
	return m, nil
}

// nextMinSeverity cycles the filter through every level, wrapping from
// Critical back to Unspecified (show everything).
func nextMinSeverity(cur models.Severity) models.Severity {
	all := models.Severities()
	for i, s := range all {
		if s == cur && i+1 < len(all) {
			return all[i+1]
		}
	}
	return all[0]
}

func minSeverityLabel(s models.Severity) string {
	if s == models.SeverityUnspecified {
		return "all"
	}
	return "≥ " + s.String()
}

func (m *ReportsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m ReportsModel) View() string {
	if m.loading && m.items == nil && m.err == nil {
		return panelStyle.Width(max(20, m.width-2)).Render("Loading reports...")
	}

	lineLimit := max(5, m.height-10)
	start := 0
	if m.cursor >= lineLimit {
		start = m.cursor - lineLimit + 1
	}
	rows := ""
	for i := start; i < len(m.items) && i < start+lineLimit; i++ {
		rows += m.renderRow(i, m.items[i])
	}
	if rows == "" {
		rows = dimStyle.Render("No open reports at this severity.\n")
	}

	order := "most severe first"
	if !m.sortDesc {
		order = "least severe first"
	}
	filterBar := lipgloss.JoinHorizontal(lipgloss.Left,
		activeTabStyle.Render(fmt.Sprintf("%s  %d", minSeverityLabel(m.minSev), m.total)),
		" ",
		tabStyle.Render(order),
		"  ",
		keycapStyle.Render("r"),
		" ",
		dimStyle.Render("refresh"),
	)
	body := []string{
		panelHeaderStyle.Render("Open Reports"),
		filterBar,
		"",
		dimStyle.Render("  Severity     Checker                          File                             Line"),
		rows,
	}
	if m.err != nil {
		body = append(body, errorStyle.Render("error: "+m.err.Error()))
	}
	body = append(body, "", dimStyle.Render("j/k navigate  f min severity  s sort  r refresh"))

	return panelStyle.Width(max(20, m.width-2)).Render(lipgloss.JoinVertical(lipgloss.Left, body...))
}

func (m ReportsModel) renderRow(idx int, r models.Report) string {
	cursor := " "
	if idx == m.cursor {
		cursor = "▌"
	}
	line := lipgloss.JoinHorizontal(lipgloss.Left,
		lipgloss.NewStyle().Width(2).Foreground(accent).Render(cursor),
		lipgloss.NewStyle().Width(13).Render(severityBadge(r.Severity)),
		lipgloss.NewStyle().Width(33).Foreground(ink).Render(truncate(r.CheckerName, 31)),
		lipgloss.NewStyle().Width(33).Foreground(slate).Render(truncate(r.FilePath, 31)),
		dimStyle.Render(fmt.Sprintf("%d", r.Line)),
	)
	if idx == m.cursor {
		return selectedRowStyle.Width(max(20, m.width-6)).Render(line) + "\n"
	}
	return line + "\n"
}

func (m ReportsModel) clampCursor() ReportsModel {
	if len(m.items) == 0 || m.cursor < 0 {
		m.cursor = 0
		return m
	}
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	return m
}
