package cmd

import (
	"context"
	"fmt"

	"github.com/CosmoTheDev/ctrlreport/internal/checkers"
	"github.com/CosmoTheDev/ctrlreport/internal/notify"
	"github.com/CosmoTheDev/ctrlreport/internal/reports"
	"github.com/spf13/cobra"
)

var (
	importRun        string
	importCheckerMap string
)

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import a report file or a directory of report files",
	Long: `Imports analyzer reports in the CodeChecker JSON export format.

A directory is walked for *.json files which are imported together as one
run. Reports already stored for the run are matched by bug hash: unseen ones
are added as new, reports missing from the import are marked resolved, and
previously resolved ones that reappear are reopened.

Severity words that are not one of the canonical labels (Unspecified, Style,
Low, Medium, High, Critical) are mapped from common analyzer vocabularies;
reports without a usable severity take it from the checker map.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importRun, "run", "",
		"run name to import into (default: import.default_run)")
	importCmd.Flags().StringVar(&importCheckerMap, "checker-map", "",
		"YAML checker→severity map (default: import.checker_map or the bundled map)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	mapPath := firstNonEmpty(importCheckerMap, cfg.Import.CheckerMap)
	cm, err := checkers.Load(mapPath)
	if err != nil {
		return fmt.Errorf("loading checker map: %w", err)
	}

	notifier, err := notify.NewDispatcher(cfg.Notify)
	if err != nil {
		return err
	}

	run := firstNonEmpty(importRun, cfg.Import.DefaultRun, "default")
	summary, err := reports.ImportPath(ctx, db, args[0], reports.ImportOptions{
		RunName:    run,
		CheckerMap: cm,
	})
	if err != nil {
		notifier.Notify(ctx, notify.Event{
			Type:  notify.EventImportFailed,
			Title: "Import failed for run " + run,
			Body:  err.Error(),
			Run:   run,
		})
		return err
	}
	if evt, ok := notify.NewReportsEvent(summary.RunName, summary.NewCounts); ok {
		notifier.Notify(ctx, evt)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("Imported %d reports into run %q", summary.Total, summary.RunName)))
	fmt.Printf("  new %d  unresolved %d  reopened %d  resolved %d\n",
		summary.New, summary.Unresolved, summary.Reopened, summary.Resolved)
	for _, c := range summary.Counts.Ordered() {
		if c.Count == 0 {
			continue
		}
		fmt.Printf("  %s %d\n", severityCell(c.Severity, 12), c.Count)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
