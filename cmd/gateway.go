package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/CosmoTheDev/ctrlreport/internal/config"
	"github.com/CosmoTheDev/ctrlreport/internal/database"
	"github.com/CosmoTheDev/ctrlreport/internal/gateway"
	"github.com/spf13/cobra"
)

var gatewayPort int
var gatewayLogDir string

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the ctrlreport gateway daemon",
	Long: `Starts the ctrlreport gateway: a long-running REST + SSE server over the
report database (default: http://127.0.0.1:6090).

When gateway.import_schedule is set, every directory in gateway.watch_dirs
is re-imported on that cron expression, each as a run named after the
directory. Examples:
  "*/10 * * * *"   every ten minutes
  "@every 1h"      every hour

Quick API reference:
  GET  /health                       liveness check
  GET  /api/severities               every severity with its code
  GET  /api/severities/{value}       label → code or code → label
  GET  /api/reports                  list reports (?severity=high,critical&sort=severity&order=desc)
  GET  /api/reports/{id}             one report
  PUT  /api/reports/{id}/review      set review status (body: {"review_status":"confirmed"})
  GET  /api/runs                     runs with per-severity counts
  POST /api/import                   import a path (body: {"path":"...","run":"..."})
  GET  /events                       SSE stream of live events`,
	RunE: runGateway,
}

func init() {
	gatewayCmd.Flags().IntVar(&gatewayPort, "port", 0,
		"HTTP port to listen on (default 6090, overrides config)")
	gatewayCmd.Flags().StringVar(&gatewayLogDir, "log-dir", "logs",
		"directory to write gateway logs for later inspection")
}

func runGateway(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logPath, closeLog, err := teeLogToFile(gatewayLogDir, time.Now())
	if err != nil {
		return fmt.Errorf("initialising gateway logger: %w", err)
	}
	defer closeLog()

	cfg, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if gatewayPort > 0 {
		cfg.Gateway.Port = gatewayPort
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = config.DefaultPort
	}

	gw, err := gateway.New(cfg, db)
	if err != nil {
		return err
	}

	schedule := cfg.Gateway.ImportSchedule
	if schedule == "" {
		schedule = "off"
	}
	base := fmt.Sprintf("http://127.0.0.1:%d", cfg.Gateway.Port)
	fmt.Println(headerStyle.Render("ctrlreport gateway"))
	for _, row := range [][2]string{
		{"Database", db.Driver()},
		{"API", base},
		{"Events", base + "/events"},
		{"Re-import", fmt.Sprintf("%s (%d watch dirs)", schedule, len(cfg.Gateway.WatchDirs))},
		{"Log", logPath},
	} {
		fmt.Printf("  %-10s %s\n", row[0], row[1])
	}
	fmt.Println(dimStyle.Render("\nPress Ctrl+C to stop."))

	slog.Info("Gateway starting", "port", cfg.Gateway.Port, "driver", db.Driver(), "log", logPath)
	err = gw.Start(ctx)
	slog.Info("Gateway stopped")
	return err
}

// teeLogToFile routes slog to stdout and to a per-day file in dir, so
// restarts on the same day append to one log.
func teeLogToFile(dir string, now time.Time) (string, func(), error) {
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("creating log dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, "gateway-"+now.UTC().Format("20060102")+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", nil, fmt.Errorf("opening log file: %w", err)
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(io.MultiWriter(os.Stdout, f), opts)))
	return path, func() { _ = f.Close() }, nil
}
