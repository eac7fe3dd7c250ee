package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/CosmoTheDev/ctrlreport/internal/checkers"
	"github.com/CosmoTheDev/ctrlreport/internal/database"
	"github.com/CosmoTheDev/ctrlreport/models"
)

// ImportOptions controls how parsed reports are stored.
type ImportOptions struct {
	RunName    string
	Source     string
	CheckerMap *checkers.Map
	ImportedAt time.Time
}

// ImportSummary describes what an import changed.
type ImportSummary struct {
	RunName    string                `json:"run_name"`
	Total      int                   `json:"total"`
	New        int                   `json:"new"`
	Unresolved int                   `json:"unresolved"`
	Reopened   int                   `json:"reopened"`
	Resolved   int                   `json:"resolved"`
	Counts     models.SeverityCounts `json:"severity_counts"`
	// NewCounts covers only reports first seen in this import.
	NewCounts models.SeverityCounts `json:"new_severity_counts"`
}

type storedState struct {
	ID              int64  `db:"id"`
	BugHash         string `db:"bug_hash"`
	DetectionStatus string `db:"detection_status"`
}

type runRow struct {
	Name        string    `db:"name"`
	Source      string    `db:"source"`
	ReportCount int       `db:"report_count"`
	ImportedAt  time.Time `db:"imported_at"`
}

// Import parses a report document from src and stores it as opts.RunName.
func Import(ctx context.Context, db database.DB, src io.Reader, opts ImportOptions) (*ImportSummary, error) {
	parsed, err := Parse(src, opts.CheckerMap)
	if err != nil {
		return nil, err
	}
	return Store(ctx, db, parsed, opts)
}

// ImportFile imports a single report file.
func ImportFile(ctx context.Context, db database.DB, path string, opts ImportOptions) (*ImportSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report file: %w", err)
	}
	defer f.Close()
	if opts.Source == "" {
		opts.Source = path
	}
	return Import(ctx, db, f, opts)
}

// ErrNoReportFiles is returned by ImportDir for a directory without any
// *.json report files.
var ErrNoReportFiles = errors.New("no report files found")

// ImportDir imports every *.json file below dir as one run, so reports
// missing from all files are resolved together.
func ImportDir(ctx context.Context, db database.DB, dir string, opts ImportOptions) (*ImportSummary, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	if len(files) == 0 {
		// An empty directory must not resolve the whole run.
		return nil, fmt.Errorf("%w: %s", ErrNoReportFiles, dir)
	}
	sort.Strings(files)

	var all []ParsedReport
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening report file: %w", err)
		}
		parsed, err := Parse(f, opts.CheckerMap)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		all = append(all, parsed...)
	}
	if opts.Source == "" {
		opts.Source = dir
	}
	slog.Debug("reports: parsed directory", "dir", dir, "files", len(files), "reports", len(all))
	return Store(ctx, db, dedup(all), opts)
}

// ImportPath dispatches to ImportDir or ImportFile.
func ImportPath(ctx context.Context, db database.DB, path string, opts ImportOptions) (*ImportSummary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("import path: %w", err)
	}
	if info.IsDir() {
		return ImportDir(ctx, db, path, opts)
	}
	return ImportFile(ctx, db, path, opts)
}

// Store matches parsed reports against the run's stored reports by bug hash.
// Unseen hashes are inserted as new, resolved ones are reopened, and stored
// reports missing from parsed are marked resolved. Review statuses set by
// users are never overwritten. The whole run is written in one transaction.
func Store(ctx context.Context, db database.DB, parsed []ParsedReport, opts ImportOptions) (*ImportSummary, error) {
	run := strings.TrimSpace(opts.RunName)
	if run == "" {
		return nil, fmt.Errorf("run name is required")
	}
	now := opts.ImportedAt.UTC()
	if opts.ImportedAt.IsZero() {
		now = time.Now().UTC()
	}

	var summary *ImportSummary
	err := db.InTx(ctx, func(tx database.DB) error {
		var err error
		summary, err = storeRun(ctx, tx, run, now, parsed, opts.Source)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("reports: import complete",
		"run", run,
		"total", summary.Total,
		"new", summary.New,
		"reopened", summary.Reopened,
		"resolved", summary.Resolved)
	return summary, nil
}

func storeRun(ctx context.Context, db database.DB, run string, now time.Time, parsed []ParsedReport, source string) (*ImportSummary, error) {
	var existing []storedState
	if err := db.Select(ctx, &existing,
		`SELECT id, bug_hash, detection_status FROM reports WHERE run_name = ?`, run); err != nil {
		return nil, fmt.Errorf("loading stored reports: %w", err)
	}
	byHash := make(map[string]storedState, len(existing))
	for _, e := range existing {
		byHash[e.BugHash] = e
	}

	summary := &ImportSummary{
		RunName:   run,
		Total:     len(parsed),
		Counts:    models.SeverityCounts{},
		NewCounts: models.SeverityCounts{},
	}
	present := make(map[string]struct{}, len(parsed))

	for _, p := range parsed {
		present[p.BugHash] = struct{}{}
		summary.Counts[p.Severity]++

		prev, ok := byHash[p.BugHash]
		if !ok {
			review := p.ReviewStatus
			if !models.ValidReviewStatus(review) {
				review = models.ReviewUnreviewed
			}
			if _, err := db.Insert(ctx, "reports", &models.Report{
				RunName:         run,
				BugHash:         p.BugHash,
				AnalyzerName:    p.AnalyzerName,
				CheckerName:     p.CheckerName,
				Severity:        p.Severity,
				FilePath:        p.FilePath,
				Line:            p.Line,
				Column:          p.Column,
				Message:         p.Message,
				ReviewStatus:    review,
				DetectionStatus: models.DetectionNew,
				DetectedAt:      now,
				UpdatedAt:       now,
			}); err != nil {
				return nil, err
			}
			summary.New++
			summary.NewCounts[p.Severity]++
			continue
		}

		status := models.DetectionUnresolved
		if prev.DetectionStatus == models.DetectionResolved {
			status = models.DetectionReopened
			summary.Reopened++
		} else {
			summary.Unresolved++
		}
		if err := db.Update(ctx, "reports", reportRefresh{
			AnalyzerName:    p.AnalyzerName,
			CheckerName:     p.CheckerName,
			Severity:        p.Severity,
			FilePath:        p.FilePath,
			Line:            p.Line,
			Column:          p.Column,
			Message:         p.Message,
			DetectionStatus: status,
			UpdatedAt:       now,
		}, "id = ?", prev.ID); err != nil {
			return nil, fmt.Errorf("updating report %d: %w", prev.ID, err)
		}
	}

	for _, prev := range existing {
		if _, ok := present[prev.BugHash]; ok || prev.DetectionStatus == models.DetectionResolved {
			continue
		}
		if err := db.Exec(ctx, `UPDATE reports SET detection_status = ?, updated_at = ? WHERE id = ?`,
			models.DetectionResolved, now, prev.ID); err != nil {
			return nil, fmt.Errorf("resolving report %d: %w", prev.ID, err)
		}
		summary.Resolved++
	}

	if err := db.Upsert(ctx, "runs", runRow{
		Name:        run,
		Source:      source,
		ReportCount: len(parsed),
		ImportedAt:  now,
	}, []string{"name"}); err != nil {
		return nil, fmt.Errorf("recording run: %w", err)
	}
	return summary, nil
}

// reportRefresh is the subset of report columns an import may change.
type reportRefresh struct {
	AnalyzerName    string          `db:"analyzer_name"`
	CheckerName     string          `db:"checker_name"`
	Severity        models.Severity `db:"severity"`
	FilePath        string          `db:"file_path"`
	Line            int             `db:"line"`
	Column          int             `db:"col"`
	Message         string          `db:"message"`
	DetectionStatus string          `db:"detection_status"`
	UpdatedAt       time.Time       `db:"updated_at"`
}
