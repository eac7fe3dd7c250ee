package models

import "time"

// Review statuses a user can assign to a report.
const (
	ReviewUnreviewed    = "unreviewed"
	ReviewConfirmed     = "confirmed"
	ReviewFalsePositive = "false_positive"
	ReviewIntentional   = "intentional"
)

// Detection statuses maintained by the importer.
const (
	DetectionNew        = "new"
	DetectionUnresolved = "unresolved"
	DetectionReopened   = "reopened"
	DetectionResolved   = "resolved"
)

// Report is a single analyzer finding stored in the reports table.
type Report struct {
	ID              int64     `json:"id"               db:"id"`
	RunName         string    `json:"run_name"         db:"run_name"`
	BugHash         string    `json:"bug_hash"         db:"bug_hash"` // analyzer-provided path-insensitive hash
	AnalyzerName    string    `json:"analyzer_name"    db:"analyzer_name"`
	CheckerName     string    `json:"checker_name"     db:"checker_name"`
	Severity        Severity  `json:"severity"         db:"severity"`
	FilePath        string    `json:"file_path"        db:"file_path"`
	Line            int       `json:"line"             db:"line"`
	Column          int       `json:"column"           db:"col"`
	Message         string    `json:"message"          db:"message"`
	ReviewStatus    string    `json:"review_status"    db:"review_status"`    // unreviewed|confirmed|false_positive|intentional
	DetectionStatus string    `json:"detection_status" db:"detection_status"` // new|unresolved|reopened|resolved
	DetectedAt      time.Time `json:"detected_at"      db:"detected_at"`
	UpdatedAt       time.Time `json:"updated_at"       db:"updated_at"`
}

// ValidReviewStatus reports whether s is an accepted review status.
func ValidReviewStatus(s string) bool {
	switch s {
	case ReviewUnreviewed, ReviewConfirmed, ReviewFalsePositive, ReviewIntentional:
		return true
	}
	return false
}

// ReportFilter narrows a report listing. Zero values mean "no constraint".
type ReportFilter struct {
	Severities   []Severity
	MinSeverity  *Severity
	RunName      string
	Analyzer     string
	Checker      string
	PathContains string
	ReviewStatus string
	Detection    string
	Query        string
	SortBy       string // severity|file|checker|detected
	Descending   bool
	Limit        int
	Offset       int
}

// RunSummary is a per-run rollup of report counts.
type RunSummary struct {
	RunName string         `json:"run_name"`
	Total   int            `json:"total"`
	Counts  SeverityCounts `json:"severity_counts"`
}

// SeverityCounts maps each severity to its number of reports.
type SeverityCounts map[Severity]int

// Ordered returns one entry per defined severity, most severe first.
func (c SeverityCounts) Ordered() []SeverityCount {
	all := Severities()
	out := make([]SeverityCount, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, SeverityCount{Severity: all[i], Count: c[all[i]]})
	}
	return out
}

// Total sums the counts.
func (c SeverityCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// SeverityCount is one row of an ordered severity breakdown.
type SeverityCount struct {
	Severity Severity `json:"severity"`
	Count    int      `json:"count"`
}
