package cmd

import (
	"context"

	"github.com/CosmoTheDev/ctrlreport/internal/tui"
	"github.com/spf13/cobra"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the terminal dashboard",
	Long:  `Opens the interactive terminal UI with per-severity counters and a filterable report list.`,
	RunE:  runUI,
}

func runUI(cmd *cobra.Command, args []string) error {
	cfg, db, err := openDatabase(context.Background())
	if err != nil {
		return err
	}
	defer db.Close()

	app, err := tui.NewApp(cfg, db)
	if err != nil {
		return err
	}
	return app.Run()
}
