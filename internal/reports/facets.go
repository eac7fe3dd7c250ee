package reports

import (
	"context"
	"fmt"

	"github.com/CosmoTheDev/ctrlreport/internal/database"
	"github.com/CosmoTheDev/ctrlreport/models"
)

// FacetCount is one distinct column value and how many reports carry it.
type FacetCount struct {
	Value string `db:"value" json:"value"`
	Count int    `db:"n"     json:"count"`
}

// Facets breaks the reports matching f down by analyzer, checker and review
// status, plus a per-severity total.
type Facets struct {
	Analyzers      []FacetCount          `json:"analyzers"`
	Checkers       []FacetCount          `json:"checkers"`
	ReviewStatuses []FacetCount          `json:"review_statuses"`
	Severities     models.SeverityCounts `json:"severity_totals"`
}

var facetColumns = []string{"analyzer_name", "checker_name", "review_status"}

// BuildFacets computes facet counts for the same filter List uses.
func BuildFacets(ctx context.Context, db database.DB, f models.ReportFilter) (*Facets, error) {
	where, args := whereClause(f)
	out := &Facets{Severities: models.SeverityCounts{}}

	for _, col := range facetColumns {
		var rows []FacetCount
		query := "SELECT " + col + " AS value, COUNT(*) AS n FROM reports" + where +
			" GROUP BY " + col + " ORDER BY n DESC, value"
		if err := db.Select(ctx, &rows, query, args...); err != nil {
			return nil, fmt.Errorf("facet %s: %w", col, err)
		}
		if rows == nil {
			rows = []FacetCount{}
		}
		switch col {
		case "analyzer_name":
			out.Analyzers = rows
		case "checker_name":
			out.Checkers = rows
		case "review_status":
			out.ReviewStatuses = rows
		}
	}

	var sev []struct {
		Severity models.Severity `db:"severity"`
		N        int             `db:"n"`
	}
	if err := db.Select(ctx, &sev, "SELECT severity, COUNT(*) AS n FROM reports"+where+" GROUP BY severity", args...); err != nil {
		return nil, fmt.Errorf("severity totals: %w", err)
	}
	for _, r := range sev {
		if r.Severity.Valid() {
			out.Severities[r.Severity] += r.N
		}
	}
	return out, nil
}
