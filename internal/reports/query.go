package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/CosmoTheDev/ctrlreport/internal/database"
	"github.com/CosmoTheDev/ctrlreport/models"
)

// ErrNotFound is returned when a report id does not exist.
var ErrNotFound = errors.New("report not found")

var sortColumns = map[string]string{
	"severity": "severity",
	"file":     "file_path",
	"checker":  "checker_name",
	"detected": "detected_at",
}

// ParseSeverityFilter parses a comma-separated list of user-typed severity
// labels ("high, Critical"). Blank input means no filter.
func ParseSeverityFilter(raw string) ([]models.Severity, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	seen := make(map[models.Severity]struct{})
	var out []models.Severity
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		s, err := models.ParseSeverity(part)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

// ValidSortField reports whether name can be used as ReportFilter.SortBy.
func ValidSortField(name string) bool {
	_, ok := sortColumns[name]
	return name == "" || ok
}

func whereClause(f models.ReportFilter) (string, []any) {
	var clauses []string
	var args []any
	if len(f.Severities) > 0 {
		ph := make([]string, len(f.Severities))
		for i, s := range f.Severities {
			ph[i] = "?"
			args = append(args, int(s))
		}
		clauses = append(clauses, "severity IN ("+strings.Join(ph, ",")+")")
	}
	if f.MinSeverity != nil {
		clauses = append(clauses, "severity >= ?")
		args = append(args, int(*f.MinSeverity))
	}
	if f.RunName != "" {
		clauses = append(clauses, "run_name = ?")
		args = append(args, f.RunName)
	}
	if f.Analyzer != "" {
		clauses = append(clauses, "analyzer_name = ?")
		args = append(args, f.Analyzer)
	}
	if f.Checker != "" {
		clauses = append(clauses, "checker_name = ?")
		args = append(args, f.Checker)
	}
	if f.PathContains != "" {
		clauses = append(clauses, "LOWER(file_path) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.PathContains)+"%")
	}
	if f.ReviewStatus != "" {
		clauses = append(clauses, "review_status = ?")
		args = append(args, f.ReviewStatus)
	}
	if f.Detection != "" {
		clauses = append(clauses, "detection_status = ?")
		args = append(args, f.Detection)
	} else {
		clauses = append(clauses, "detection_status <> ?")
		args = append(args, models.DetectionResolved)
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		clauses = append(clauses, "(LOWER(message) LIKE ? OR LOWER(checker_name) LIKE ? OR LOWER(file_path) LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like, like)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// List returns the reports matching f and the total count before paging.
// Resolved reports are excluded unless f.Detection asks for them.
func List(ctx context.Context, db database.DB, f models.ReportFilter) ([]models.Report, int, error) {
	if !ValidSortField(f.SortBy) {
		return nil, 0, fmt.Errorf("unsupported sort field %q", f.SortBy)
	}
	where, args := whereClause(f)

	var total int
	if err := db.Get(ctx, &total, "SELECT COUNT(*) FROM reports"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("counting reports: %w", err)
	}

	col := sortColumns[f.SortBy]
	if col == "" {
		col = "severity"
	}
	dir := "ASC"
	if f.Descending {
		dir = "DESC"
	}
	// Column and direction come from the fixed sortColumns table.
	query := "SELECT * FROM reports" + where + " ORDER BY " + col + " " + dir + ", id " + dir
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	var out []models.Report
	if err := db.Select(ctx, &out, query, args...); err != nil {
		return nil, 0, fmt.Errorf("listing reports: %w", err)
	}
	return out, total, nil
}

// Get loads one report.
func Get(ctx context.Context, db database.DB, id int64) (*models.Report, error) {
	var r models.Report
	if err := db.Get(ctx, &r, `SELECT * FROM reports WHERE id = ?`, id); err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// SetReviewStatus changes a report's review status.
func SetReviewStatus(ctx context.Context, db database.DB, id int64, status string) (*models.Report, error) {
	if !models.ValidReviewStatus(status) {
		return nil, fmt.Errorf("invalid review status %q", status)
	}
	if _, err := Get(ctx, db, id); err != nil {
		return nil, err
	}
	patch := struct {
		ReviewStatus string `db:"review_status"`
	}{status}
	if err := db.Update(ctx, "reports", patch, "id = ?", id); err != nil {
		return nil, fmt.Errorf("updating review status: %w", err)
	}
	return Get(ctx, db, id)
}

// Summary counts unresolved reports per severity, optionally for one run.
func Summary(ctx context.Context, db database.DB, run string) (models.SeverityCounts, error) {
	query := `SELECT severity, COUNT(*) AS n FROM reports WHERE detection_status <> ?`
	args := []any{models.DetectionResolved}
	if run != "" {
		query += ` AND run_name = ?`
		args = append(args, run)
	}
	query += ` GROUP BY severity`

	var rows []struct {
		Severity models.Severity `db:"severity"`
		N        int             `db:"n"`
	}
	if err := db.Select(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("summarising reports: %w", err)
	}
	counts := models.SeverityCounts{}
	for _, r := range rows {
		if !r.Severity.Valid() {
			slog.Warn("reports: ignoring stored code outside the severity enum", "code", int(r.Severity), "count", r.N)
			continue
		}
		counts[r.Severity] += r.N
	}
	return counts, nil
}

// Runs lists imported runs with their per-severity rollups.
func Runs(ctx context.Context, db database.DB) ([]models.RunSummary, error) {
	var runs []runRow
	if err := db.Select(ctx, &runs, `SELECT name, source, report_count, imported_at FROM runs ORDER BY imported_at DESC, name`); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	out := make([]models.RunSummary, 0, len(runs))
	for _, r := range runs {
		counts, err := Summary(ctx, db, r.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, models.RunSummary{RunName: r.Name, Total: counts.Total(), Counts: counts})
	}
	return out, nil
}
