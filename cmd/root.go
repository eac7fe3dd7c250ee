package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/CosmoTheDev/ctrlreport/internal/config"
	"github.com/CosmoTheDev/ctrlreport/internal/database"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ctrlreport",
	Short: "Import static analysis reports and browse them by severity",
	Long: `ctrlreport stores analyzer reports (CodeChecker JSON export format) in a
local database and lets you browse, filter and sort them by severity.

Get started:
  ctrlreport config init          Interactive setup
  ctrlreport import report.json   Import a report file or directory
  ctrlreport reports              List open reports, most severe first
  ctrlreport summary              Per-severity counts
  ctrlreport severity high        Convert between severity labels and codes
  ctrlreport ui                   Launch the terminal UI
  ctrlreport gateway              Start the REST + SSE daemon`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ~/.ctrlreport/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose/debug output")

	rootCmd.Version = Version
	rootCmd.AddCommand(
		importCmd,
		reportsCmd,
		summaryCmd,
		severityCmd,
		uiCmd,
		gatewayCmd,
		configCmd,
	)
}

func initConfig() {
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		slog.Debug("Verbose logging enabled")
	}
}

// openDatabase loads the config, opens the configured backend and applies
// migrations. The caller closes the returned DB.
func openDatabase(ctx context.Context) (*config.Config, database.DB, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	return cfg, db, nil
}
