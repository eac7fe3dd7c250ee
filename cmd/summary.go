package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/CosmoTheDev/ctrlreport/internal/reports"
	"github.com/CosmoTheDev/ctrlreport/models"
	"github.com/spf13/cobra"
)

var summaryRun string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print open report counts per severity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		_, db, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		counts, err := reports.Summary(ctx, db, summaryRun)
		if err != nil {
			return err
		}
		return writeSummary(os.Stdout, summaryRun, counts)
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryRun, "run", "", "only count reports from this run")
}

func writeSummary(w io.Writer, run string, counts models.SeverityCounts) error {
	title := "All runs"
	if run != "" {
		title = "Run " + run
	}
	fmt.Fprintln(w, headerStyle.Render(title))
	for _, c := range counts.Ordered() {
		fmt.Fprintf(w, "  %s %5d\n", severityCell(c.Severity, 12), c.Count)
	}
	_, err := fmt.Fprintf(w, "  %s %5d\n", dimStyle.Width(12).Render("Total"), counts.Total())
	return err
}
