package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/CosmoTheDev/ctrlreport/internal/reports"
	"github.com/CosmoTheDev/ctrlreport/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	reportsSeverity    string
	reportsMinSeverity string
	reportsRun         string
	reportsChecker     string
	reportsSort        string
	reportsAsc         bool
	reportsLimit       int
	reportsOutput      string
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List open reports",
	Long: `Lists open (not resolved) reports, most severe first by default.

Severity labels are matched case-insensitively:
  ctrlreport reports --severity high,critical
  ctrlreport reports --min-severity medium --output json`,
	RunE: runReports,
}

func init() {
	reportsCmd.Flags().StringVar(&reportsSeverity, "severity", "",
		"comma-separated severity labels to include")
	reportsCmd.Flags().StringVar(&reportsMinSeverity, "min-severity", "",
		"hide reports below this severity (default: ui.min_severity)")
	reportsCmd.Flags().StringVar(&reportsRun, "run", "", "only reports from this run")
	reportsCmd.Flags().StringVar(&reportsChecker, "checker", "", "only reports from this checker")
	reportsCmd.Flags().StringVar(&reportsSort, "sort", "severity", "sort by severity|file|checker|detected")
	reportsCmd.Flags().BoolVar(&reportsAsc, "asc", false, "ascending order (least severe first)")
	reportsCmd.Flags().IntVar(&reportsLimit, "limit", 50, "maximum reports to print (0 for all)")
	reportsCmd.Flags().StringVarP(&reportsOutput, "output", "o", "table", "output format: table|json")
}

func runReports(cmd *cobra.Command, args []string) error {
	if reportsOutput != "table" && reportsOutput != "json" {
		return fmt.Errorf("invalid --output %q (valid: table, json)", reportsOutput)
	}
	if !reports.ValidSortField(reportsSort) {
		return fmt.Errorf("invalid --sort %q (valid: severity, file, checker, detected)", reportsSort)
	}
	sevs, err := reports.ParseSeverityFilter(reportsSeverity)
	if err != nil {
		return fmt.Errorf("--severity: %w", err)
	}

	ctx := context.Background()
	cfg, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	f := models.ReportFilter{
		Severities: sevs,
		RunName:    reportsRun,
		Checker:    reportsChecker,
		SortBy:     reportsSort,
		Descending: !reportsAsc,
		Limit:      reportsLimit,
	}
	minLabel := firstNonEmpty(reportsMinSeverity, cfg.UI.MinSeverity)
	if minLabel != "" {
		minSev, err := models.ParseSeverity(minLabel)
		if err != nil {
			return fmt.Errorf("minimum severity: %w", err)
		}
		f.MinSeverity = &minSev
	}

	items, total, err := reports.List(ctx, db, f)
	if err != nil {
		return err
	}
	return writeReports(os.Stdout, items, total, reportsOutput)
}

func writeReports(w io.Writer, items []models.Report, total int, format string) error {
	if format == "json" {
		if items == nil {
			items = []models.Report{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"total": total, "items": items})
	}

	if len(items) == 0 {
		_, err := fmt.Fprintln(w, dimStyle.Render("No open reports match."))
		return err
	}

	rows := make([][]string, 0, len(items))
	for _, r := range items {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.Severity.String(),
			r.CheckerName,
			r.FilePath + ":" + strconv.Itoa(r.Line),
			r.ReviewStatus,
			truncateMessage(r.Message, 60),
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("ID", "SEVERITY", "CHECKER", "LOCATION", "REVIEW", "MESSAGE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Bold(true)
			}
			if col == 1 && row >= 0 && row < len(items) {
				sev := items[row].Severity
				base = base.Foreground(severityColors[sev])
				if sev >= models.SeverityHigh {
					base = base.Bold(true)
				}
			}
			return base
		})

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n", dimStyle.Render(fmt.Sprintf("showing %d of %d", len(items), total)))
	return err
}

func truncateMessage(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
