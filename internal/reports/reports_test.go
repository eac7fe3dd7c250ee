package reports

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/CosmoTheDev/ctrlreport/internal/checkers"
	"github.com/CosmoTheDev/ctrlreport/internal/config"
	"github.com/CosmoTheDev/ctrlreport/internal/database"
	"github.com/CosmoTheDev/ctrlreport/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) database.DB {
	t.Helper()
	db, err := database.NewSQLite(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "reports-test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func defaultOpts(t *testing.T, run string) ImportOptions {
	t.Helper()
	cm, err := checkers.Default()
	require.NoError(t, err)
	return ImportOptions{RunName: run, CheckerMap: cm, ImportedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
}

func TestParseResolvesSeverities(t *testing.T) {
	cm, err := checkers.Default()
	require.NoError(t, err)

	doc := `{"reports":[
		{"checker_name":"a","severity":"CRITICAL","file":{"path":"x.c"},"message":"m1"},
		{"checker_name":"modernize-use-auto","severity":"","file":{"path":"y.cpp"},"message":"m2"},
		{"checker_name":"b","severity":"error","file":{"path":"z.c"},"message":"m3"},
		{"checker_name":"unknown.checker","severity":"???","file":{"path":"w.c"},"message":"m4"}
	]}`
	parsed, err := Parse(strings.NewReader(doc), cm)
	require.NoError(t, err)
	require.Len(t, parsed, 4)

	assert.Equal(t, models.SeverityCritical, parsed[0].Severity)
	assert.Equal(t, models.SeverityStyle, parsed[1].Severity)
	assert.Equal(t, models.SeverityHigh, parsed[2].Severity)
	assert.Equal(t, models.SeverityUnspecified, parsed[3].Severity)
	for _, p := range parsed {
		assert.Len(t, p.BugHash, 32)
	}
}

func TestParseRejectsReportsWithoutChecker(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"reports":[{"file":{"path":"a.c"}}]}`), nil)
	require.Error(t, err)

	_, err = Parse(strings.NewReader(`not json`), nil)
	require.Error(t, err)
}

func TestParseDeduplicatesByHash(t *testing.T) {
	doc := `{"reports":[
		{"checker_name":"a","severity":"low","file":{"path":"x.c"},"report_hash":"same"},
		{"checker_name":"a","severity":"low","file":{"path":"x.c"},"report_hash":"same"}
	]}`
	parsed, err := Parse(strings.NewReader(doc), nil)
	require.NoError(t, err)
	assert.Len(t, parsed, 1)
}

func TestImportLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	opts := defaultOpts(t, "nightly")

	first, err := ImportFile(ctx, db, "testdata/run1.json", opts)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Total)
	assert.Equal(t, 4, first.New)
	assert.Equal(t, 1, first.Counts[models.SeverityCritical])
	assert.Equal(t, 1, first.Counts[models.SeverityHigh])
	assert.Equal(t, 1, first.Counts[models.SeverityMedium])
	assert.Equal(t, 1, first.Counts[models.SeverityStyle])
	assert.Equal(t, first.Counts, first.NewCounts)

	second, err := ImportFile(ctx, db, "testdata/run2.json", opts)
	require.NoError(t, err)
	assert.Equal(t, 1, second.New)
	assert.Equal(t, models.SeverityCounts{models.SeverityMedium: 1}, second.NewCounts)
	assert.Equal(t, 1, second.Unresolved)
	assert.Equal(t, 3, second.Resolved)

	counts, err := Summary(ctx, db, "nightly")
	require.NoError(t, err)
	assert.Equal(t, models.SeverityCounts{models.SeverityHigh: 1, models.SeverityMedium: 1}, counts)

	third, err := ImportFile(ctx, db, "testdata/run1.json", opts)
	require.NoError(t, err)
	assert.Equal(t, 3, third.Reopened)
	assert.Equal(t, 1, third.Resolved)

	items, _, err := List(ctx, db, models.ReportFilter{Checker: "security.insecureAPI.gets"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.DetectionReopened, items[0].DetectionStatus)
	assert.Equal(t, models.ReviewConfirmed, items[0].ReviewStatus)
	assert.Equal(t, "Critical", items[0].Severity.String())

	items, _, err = List(ctx, db, models.ReportFilter{Checker: "core.DivideZero"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 12, items[0].Line)
	assert.Equal(t, "src/main.c", items[0].FilePath)
}

func TestImportDirTreatsFilesAsOneRun(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	summary, err := ImportPath(ctx, db, "testdata", defaultOpts(t, "all"))
	require.NoError(t, err)
	// h-divzero appears in both files.
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 5, summary.New)

	runs, err := Runs(ctx, db)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "all", runs[0].RunName)
	assert.Equal(t, 5, runs[0].Total)
}

func TestImportRequiresRunName(t *testing.T) {
	db := newTestDB(t)
	_, err := Store(context.Background(), db, nil, ImportOptions{})
	require.Error(t, err)
}

func TestListFiltersAndSortsBySeverity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, err := ImportFile(ctx, db, "testdata/run1.json", defaultOpts(t, "ci"))
	require.NoError(t, err)

	sevs, err := ParseSeverityFilter("high, CRITICAL")
	require.NoError(t, err)
	items, total, err := List(ctx, db, models.ReportFilter{Severities: sevs, SortBy: "severity", Descending: true})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, models.SeverityCritical, items[0].Severity)
	assert.Equal(t, models.SeverityHigh, items[1].Severity)

	min := models.SeverityMedium
	items, total, err = List(ctx, db, models.ReportFilter{MinSeverity: &min, SortBy: "severity"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, models.SeverityMedium, items[0].Severity)

	items, total, err = List(ctx, db, models.ReportFilter{SortBy: "severity", Descending: true, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, items, 2)
	assert.Equal(t, models.SeverityMedium, items[0].Severity)
	assert.Equal(t, models.SeverityStyle, items[1].Severity)

	items, _, err = List(ctx, db, models.ReportFilter{Query: "GETS"})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, _, err = List(ctx, db, models.ReportFilter{SortBy: "bogus"})
	require.Error(t, err)
}

func TestParseSeverityFilter(t *testing.T) {
	sevs, err := ParseSeverityFilter("")
	require.NoError(t, err)
	assert.Nil(t, sevs)

	sevs, err = ParseSeverityFilter("Style,style,LOW,")
	require.NoError(t, err)
	assert.Equal(t, []models.Severity{models.SeverityStyle, models.SeverityLow}, sevs)

	_, err = ParseSeverityFilter("high,urgent")
	require.ErrorIs(t, err, models.ErrUnknownSeverity)
	assert.Contains(t, err.Error(), "urgent")
}

func TestSetReviewStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, err := ImportFile(ctx, db, "testdata/run1.json", defaultOpts(t, "ci"))
	require.NoError(t, err)

	items, _, err := List(ctx, db, models.ReportFilter{Checker: "core.DivideZero"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	r, err := SetReviewStatus(ctx, db, items[0].ID, models.ReviewFalsePositive)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewFalsePositive, r.ReviewStatus)

	_, err = SetReviewStatus(ctx, db, items[0].ID, "maybe")
	require.Error(t, err)

	_, err = SetReviewStatus(ctx, db, 9999, models.ReviewConfirmed)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBuildFacets(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, err := ImportFile(ctx, db, "testdata/run1.json", defaultOpts(t, "ci"))
	require.NoError(t, err)

	facets, err := BuildFacets(ctx, db, models.ReportFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, facets.Analyzers)
	assert.Equal(t, FacetCount{Value: "clangsa", Count: 2}, facets.Analyzers[0])
	assert.Len(t, facets.Checkers, 4)
	assert.Equal(t, 4, facets.Severities.Total())

	min := models.SeverityHigh
	facets, err = BuildFacets(ctx, db, models.ReportFilter{MinSeverity: &min})
	require.NoError(t, err)
	assert.Equal(t, models.SeverityCounts{models.SeverityHigh: 1, models.SeverityCritical: 1}, facets.Severities)
}

func TestSummaryAndFacetsSkipCodesOutsideEnum(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, err := ImportFile(ctx, db, "testdata/run1.json", defaultOpts(t, "ci"))
	require.NoError(t, err)
	require.NoError(t, db.Exec(ctx, `UPDATE reports SET severity = 35 WHERE bug_hash = ?`, "h-divzero"))

	counts, err := Summary(ctx, db, "ci")
	require.NoError(t, err)
	assert.Equal(t, models.SeverityCounts{
		models.SeverityCritical: 1,
		models.SeverityMedium:   1,
		models.SeverityStyle:    1,
	}, counts)

	facets, err := BuildFacets(ctx, db, models.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, counts, facets.Severities)
	// The row still counts toward the other facets.
	assert.Len(t, facets.Checkers, 4)

	items, total, err := List(ctx, db, models.ReportFilter{Checker: "core.DivideZero"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "", items[0].Severity.String())
}

func TestImportEmptyDirKeepsOpenReports(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	opts := defaultOpts(t, "watch")
	_, err := ImportFile(ctx, db, "testdata/run1.json", opts)
	require.NoError(t, err)

	_, err = ImportDir(ctx, db, t.TempDir(), opts)
	require.ErrorIs(t, err, ErrNoReportFiles)

	counts, err := Summary(ctx, db, "watch")
	require.NoError(t, err)
	assert.Equal(t, 4, counts.Total())
}

// upsertFails fails the final run bookkeeping write of an import.
type upsertFails struct{ database.DB }

func (f upsertFails) Upsert(context.Context, string, interface{}, []string) error {
	return errors.New("disk full")
}

func (f upsertFails) InTx(ctx context.Context, fn func(database.DB) error) error {
	return f.DB.InTx(ctx, func(tx database.DB) error { return fn(upsertFails{tx}) })
}

func TestStoreIsAllOrNothing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	opts := defaultOpts(t, "nightly")
	_, err := ImportFile(ctx, db, "testdata/run1.json", opts)
	require.NoError(t, err)

	_, err = ImportFile(ctx, upsertFails{db}, "testdata/run2.json", opts)
	require.Error(t, err)

	var rows []struct {
		Status string `db:"detection_status"`
	}
	require.NoError(t, db.Select(ctx, &rows, `SELECT detection_status FROM reports`))
	require.Len(t, rows, 4)
	for _, r := range rows {
		assert.Equal(t, models.DetectionNew, r.Status)
	}
}
