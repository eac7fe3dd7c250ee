package tui

import (
	"fmt"
	"time"

	"github.com/CosmoTheDev/ctrlreport/internal/config"
	"github.com/CosmoTheDev/ctrlreport/internal/database"
	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tab represents a TUI navigation tab.
type Tab int

const (
	TabSummary Tab = iota
	TabReports
)

var tabNames = []string{"Summary", "Reports"}
var tabTinyNames = []string{"S", "R"}

// App is the root bubbletea model.
type App struct {
	cfg       *config.Config
	db        database.DB
	width     int
	height    int
	activeTab Tab
	summary   SummaryModel
	reports   ReportsModel
}

// NewApp creates the TUI application. The reports tab starts at the
// configured minimum severity.
func NewApp(cfg *config.Config, db database.DB) (*App, error) {
	minSev, err := cfg.UI.MinSeverityLevel()
	if err != nil {
		return nil, fmt.Errorf("ui.min_severity: %w", err)
	}
	refresh := time.Duration(cfg.UI.RefreshSeconds) * time.Second
	return &App{
		cfg:     cfg,
		db:      db,
		summary: NewSummaryModel(db, refresh),
		reports: NewReportsModel(db, minSev, refresh),
	}, nil
}

// Run starts the bubbletea program.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.summary.Init(),
		a.reports.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		contentW := msg.Width - 2
		if contentW < 20 {
			contentW = 20
		}
		contentH := msg.Height - 7
		if contentH < 8 {
			contentH = 8
		}
		a.summary.SetSize(contentW, contentH)
		a.reports.SetSize(contentW, contentH)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "1":
			a.activeTab = TabSummary
		case "2":
			a.activeTab = TabReports
		case "tab":
			a.activeTab = (a.activeTab + 1) % Tab(len(tabNames))
		case "shift+tab":
			a.activeTab--
			if a.activeTab < 0 {
				a.activeTab = Tab(len(tabNames) - 1)
			}
		}
	}

	// Load results go to their owner whatever tab is showing; everything
	// else goes to the active tab.
	target := a.activeTab
	switch msg.(type) {
	case summaryLoadedMsg, summaryTickMsg:
		target = TabSummary
	case reportsLoadedMsg, reportsTickMsg:
		target = TabReports
	}
	return a, a.forward(target, msg)
}

func (a *App) forward(tab Tab, msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch tab {
	case TabSummary:
		var next tea.Model
		next, cmd = a.summary.Update(msg)
		a.summary = next.(SummaryModel)
	case TabReports:
		var next tea.Model
		next, cmd = a.reports.Update(msg)
		a.reports = next.(ReportsModel)
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	nav := a.renderTabs()

	// Active view content.
	var content string
	switch a.activeTab {
	case TabSummary:
		content = a.summary.View()
	case TabReports:
		content = a.reports.View()
	}

	contentBox := lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		MaxHeight(max(1, a.height-4)).
		Render(content)

	status := lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		Foreground(slateDim).
		Render("tab next  shift+tab prev  1-2 jump  q quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		nav,
		contentBox,
		status,
	)
}

func (a *App) renderHeader() string {
	row := lipgloss.JoinHorizontal(lipgloss.Left,
		titleStyle.Render("ctrlreport"),
		"  ",
		dimStyle.Render("static analysis reports by severity"),
		"  ",
		mutedBadgeStyle.Render(" "+tabNames[a.activeTab]+" "),
	)
	return lipgloss.NewStyle().
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(line).
		Width(a.width).
		Padding(0, 1).
		Render(row)
}

func (a *App) renderTabs() string {
	rendered := a.renderTabLabels(tabNames)
	maxWidth := a.width - 2
	if maxWidth < 10 {
		maxWidth = 10
	}
	if lipgloss.Width(rendered) > maxWidth {
		rendered = a.renderTabLabels(tabTinyNames)
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		Foreground(slate).
		Render(rendered)
}

func (a *App) renderTabLabels(labels []string) string {
	parts := make([]string, 0, len(labels))
	for i, name := range labels {
		label := fmt.Sprintf("%d:%s", i+1, name)
		if Tab(i) == a.activeTab {
			parts = append(parts, lipgloss.NewStyle().Bold(true).Foreground(accent).Render(label))
		} else {
			parts = append(parts, dimStyle.Render(label))
		}
		if i < len(labels)-1 {
			parts = append(parts, dimStyle.Render("  ·  "))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}
