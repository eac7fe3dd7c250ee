package tui

import (
	"context"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/CosmoTheDev/ctrlreport/internal/checkers"
	"github.com/CosmoTheDev/ctrlreport/internal/config"
	"github.com/CosmoTheDev/ctrlreport/internal/database"
	"github.com/CosmoTheDev/ctrlreport/internal/reports"
	"github.com/CosmoTheDev/ctrlreport/models"
	"github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextMinSeverityCyclesAndWraps(t *testing.T) {
	got := []models.Severity{models.SeverityUnspecified}
	for i := 0; i < 6; i++ {
		got = append(got, nextMinSeverity(got[len(got)-1]))
	}
	assert.Equal(t, []models.Severity{
		models.SeverityUnspecified,
		models.SeverityStyle,
		models.SeverityLow,
		models.SeverityMedium,
		models.SeverityHigh,
		models.SeverityCritical,
		models.SeverityUnspecified,
	}, got)

	assert.Equal(t, models.SeverityUnspecified, nextMinSeverity(models.Severity(99)))
}

func TestMinSeverityLabel(t *testing.T) {
	assert.Equal(t, "all", minSeverityLabel(models.SeverityUnspecified))
	assert.Equal(t, "≥ High", minSeverityLabel(models.SeverityHigh))
}

func TestReportsModelKeys(t *testing.T) {
	m := NewReportsModel(nil, models.SeverityMedium, 0)
	f := m.filter()
	require.NotNil(t, f.MinSeverity)
	assert.Equal(t, models.SeverityMedium, *f.MinSeverity)
	assert.True(t, f.Descending)
	assert.Equal(t, "severity", f.SortBy)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	m = next.(ReportsModel)
	assert.NotNil(t, cmd)
	assert.Equal(t, models.SeverityHigh, m.minSev)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	m = next.(ReportsModel)
	assert.False(t, m.filter().Descending)

	m.minSev = models.SeverityUnspecified
	assert.Nil(t, m.filter().MinSeverity)
}

func TestReportsModelCursorClamps(t *testing.T) {
	m := NewReportsModel(nil, models.SeverityUnspecified, 0)
	next, _ := m.Update(reportsLoadedMsg{items: []models.Report{
		{Severity: models.SeverityCritical, CheckerName: "a"},
		{Severity: models.SeverityLow, CheckerName: "b"},
	}, total: 2})
	m = next.(ReportsModel)
	for i := 0; i < 5; i++ {
		next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
		m = next.(ReportsModel)
	}
	assert.Equal(t, 1, m.cursor)

	m.SetSize(120, 30)
	view := m.View()
	assert.Contains(t, view, "Critical")
	assert.Contains(t, view, "Low")
}

func TestRenderBreakdown(t *testing.T) {
	assert.Equal(t, "clean", renderBreakdown(models.SeverityCounts{}))
	out := renderBreakdown(models.SeverityCounts{models.SeverityCritical: 2, models.SeverityStyle: 1})
	assert.Contains(t, out, "C:2")
	assert.Contains(t, out, "S:1")
}

func TestSeverityBadgeUnknownCode(t *testing.T) {
	assert.Contains(t, severityBadge(models.Severity(7)), "?")
	assert.Contains(t, severityBadge(models.SeverityStyle), "Style")
}

func seededDB(t *testing.T) database.DB {
	t.Helper()
	db, err := database.NewSQLite(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "tui.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))
	cm, err := checkers.Default()
	require.NoError(t, err)
	_, err = reports.ImportFile(ctx, db, "../reports/testdata/run1.json", reports.ImportOptions{RunName: "ci", CheckerMap: cm})
	require.NoError(t, err)
	return db
}

func TestReportsTickFromOldFilterIsDropped(t *testing.T) {
	db := seededDB(t)
	m := NewReportsModel(db, models.SeverityUnspecified, time.Millisecond)

	next, tick := m.Update(m.Init()())
	m = next.(ReportsModel)
	require.Len(t, m.items, 4)
	require.NotNil(t, tick)
	staleTick := tick()

	var load tea.Cmd
	for m.minSev != models.SeverityHigh {
		next, load = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
		m = next.(ReportsModel)
	}
	next, tick = m.Update(load())
	m = next.(ReportsModel)
	require.Len(t, m.items, 2)

	next, cmd := m.Update(staleTick)
	m = next.(ReportsModel)
	assert.Nil(t, cmd)

	// A tick of the current generation reloads with the current filter.
	next, cmd = m.Update(tick())
	m = next.(ReportsModel)
	require.NotNil(t, cmd)
	next, _ = m.Update(cmd())
	m = next.(ReportsModel)
	require.Len(t, m.items, 2)
	for _, r := range m.items {
		assert.True(t, r.Severity.AtLeast(models.SeverityHigh), r.Severity.String())
	}
}

func TestReportsLoadFromOldGenerationIsDropped(t *testing.T) {
	m := NewReportsModel(nil, models.SeverityUnspecified, 0)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	m = next.(ReportsModel)
	next, _ = m.Update(reportsLoadedMsg{gen: 0, items: []models.Report{{CheckerName: "old"}}, total: 1})
	m = next.(ReportsModel)
	assert.Empty(t, m.items)
}

func TestSummaryTickFromBeforeRefreshIsDropped(t *testing.T) {
	db := seededDB(t)
	s := NewSummaryModel(db, time.Millisecond)
	next, tick := s.Update(s.Init()())
	s = next.(SummaryModel)
	assert.Equal(t, 4, s.counts.Total())
	staleTick := tick()

	next, _ = s.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	s = next.(SummaryModel)
	_, cmd := s.Update(staleTick)
	assert.Nil(t, cmd)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short.c", truncate("short.c", 10))
	got := truncate("src/ünïcödé/ファイル.c", 8)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 8, utf8.RuneCountInString(got))
	assert.Equal(t, "…/ファイル.c", got)
}
