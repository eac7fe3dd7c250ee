package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CosmoTheDev/ctrlreport/internal/database"
	"github.com/CosmoTheDev/ctrlreport/internal/reports"
	"github.com/CosmoTheDev/ctrlreport/models"
	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SummaryModel shows one counter card per severity and the imported runs.
type SummaryModel struct {
	db       database.DB
	counts   models.SeverityCounts
	runs     []models.RunSummary
	err      error
	refresh  time.Duration
	width    int
	height   int
	lastLoad time.Time
	loading  bool
	gen      int
}

type summaryTickMsg struct{ gen int }

type summaryLoadedMsg struct {
	gen    int
	counts models.SeverityCounts
	runs   []models.RunSummary
	err    error
}

// NewSummaryModel creates a SummaryModel that reloads every refresh.
func NewSummaryModel(db database.DB, refresh time.Duration) SummaryModel {
	return SummaryModel{db: db, refresh: refresh, loading: true}
}

func (s SummaryModel) Init() tea.Cmd {
	return s.loadCmd()
}

func (s SummaryModel) loadCmd() tea.Cmd {
	db, gen := s.db, s.gen
	return func() tea.Msg {
		ctx := context.Background()
		counts, err := reports.Summary(ctx, db, "")
		if err != nil {
			return summaryLoadedMsg{gen: gen, err: err}
		}
		runs, err := reports.Runs(ctx, db)
		return summaryLoadedMsg{gen: gen, counts: counts, runs: runs, err: err}
	}
}

func (s SummaryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case summaryLoadedMsg:
		if msg.gen != s.gen {
			return s, nil
		}
		s.loading = false
		s.err = msg.err
		if msg.err == nil {
			s.counts = msg.counts
			s.runs = msg.runs
			s.lastLoad = time.Now()
		}
		if s.refresh <= 0 {
			return s, nil
		}
		gen := s.gen
		return s, tea.Tick(s.refresh, func(time.Time) tea.Msg {
			return summaryTickMsg{gen: gen}
		})
	case summaryTickMsg:
		if msg.gen != s.gen {
			return s, nil
		}
		return s, s.loadCmd()
	case tea.KeyMsg:
		if msg.String() == "r" {
			s.gen++
			s.loading = true
			return s, s.loadCmd()
		}
	}
	return s, nil
}

func (s *SummaryModel) SetSize(w, h int) {
	s.width = w
	s.height = h
}

func (s SummaryModel) View() string {
	if s.loading && s.counts == nil {
		return panelStyle.Width(max(20, s.width-2)).Render("Loading reports...")
	}

	cardW := 14
	if s.width >= 110 {
		cardW = 16
	}
	cards := make([]string, 0, 6)
	for _, c := range s.counts.Ordered() {
		cards = append(cards, renderCounter(c.Severity, c.Count, cardW))
	}
	summary := lipgloss.JoinHorizontal(lipgloss.Top, cards...)

	lineLimit := max(5, s.height-12)
	var rows strings.Builder
	for i, r := range s.runs {
		if i >= lineLimit {
			break
		}
		rows.WriteString(lipgloss.JoinHorizontal(lipgloss.Left,
			lipgloss.NewStyle().Width(30).Foreground(ink).Render(truncate(r.RunName, 28)),
			lipgloss.NewStyle().Width(8).Foreground(slate).Render(fmt.Sprintf("%d", r.Total)),
			renderBreakdown(r.Counts),
		))
		rows.WriteString("\n")
	}
	if len(s.runs) == 0 {
		rows.WriteString(dimStyle.Render("No runs yet. Run: ctrlreport import <report.json>\n"))
	}

	updated := "never"
	if !s.lastLoad.IsZero() {
		updated = s.lastLoad.Format("15:04:05")
	}
	footer := lipgloss.JoinHorizontal(lipgloss.Left,
		keycapStyle.Render("r"),
		" ",
		dimStyle.Render("refresh"),
		"   ",
		dimStyle.Render("updated "+updated),
	)
	if s.err != nil {
		footer = lipgloss.JoinVertical(lipgloss.Left, errorStyle.Render("error: "+s.err.Error()), footer)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Padding(0, 1).Render(summary),
		panelStyle.Width(max(20, s.width-2)).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				panelHeaderStyle.Render("Runs"),
				dimStyle.Render("Run                           Open    Breakdown"),
				rows.String(),
				footer,
			),
		),
	)
}

func renderCounter(sev models.Severity, count int, width int) string {
	return boxStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Center,
			severityStyle(sev).Bold(true).Render(fmt.Sprintf("%d", count)),
			dimStyle.Render(strings.ToUpper(sev.String())),
		),
	) + " "
}

// renderBreakdown renders "C:1 H:2 ..." with each initial in its colour,
// skipping zero counts.
func renderBreakdown(c models.SeverityCounts) string {
	parts := make([]string, 0, 6)
	for _, sc := range c.Ordered() {
		if sc.Count == 0 {
			continue
		}
		parts = append(parts, severityStyle(sc.Severity).Render(fmt.Sprintf("%s:%d", sc.Severity.String()[:1], sc.Count)))
	}
	if len(parts) == 0 {
		return dimStyle.Render("clean")
	}
	return strings.Join(parts, " ")
}

// truncate keeps the last n runes of s, marking the cut with "…".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n+1:])
}
