package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/CosmoTheDev/ctrlreport/internal/checkers"
	"github.com/CosmoTheDev/ctrlreport/internal/config"
	"github.com/CosmoTheDev/ctrlreport/internal/database"
	"github.com/CosmoTheDev/ctrlreport/internal/notify"
	"github.com/CosmoTheDev/ctrlreport/internal/reports"
)

// Gateway is the long-running daemon that combines:
//   - a REST + SSE HTTP server for browsing reports by severity
//   - a cron Scheduler re-importing the configured watch directories
type Gateway struct {
	cfg         *config.Config
	db          database.DB
	checkerMap  *checkers.Map
	notifier    *notify.Dispatcher
	scheduler   *Scheduler
	broadcaster *Broadcaster

	// importMu serialises imports so API and cron runs never interleave.
	importMu sync.Mutex

	mu           sync.RWMutex
	lastImportAt string
	startedAt    time.Time
}

// New creates a Gateway. Call Start() to begin serving.
func New(cfg *config.Config, db database.DB) (*Gateway, error) {
	cm, err := checkers.Load(cfg.Import.CheckerMap)
	if err != nil {
		return nil, fmt.Errorf("loading checker map: %w", err)
	}
	notifier, err := notify.NewDispatcher(cfg.Notify)
	if err != nil {
		return nil, err
	}
	gw := &Gateway{
		cfg:         cfg,
		db:          db,
		checkerMap:  cm,
		notifier:    notifier,
		broadcaster: newBroadcaster(),
		startedAt:   time.Now(),
	}
	gw.scheduler = newScheduler(cfg.Gateway.ImportSchedule, gw.importWatchDirs)
	return gw, nil
}

// Start runs the gateway until ctx is cancelled. It:
//  1. Starts the cron scheduler
//  2. Binds the HTTP server (blocks until shutdown)
func (gw *Gateway) Start(ctx context.Context) error {
	port := gw.cfg.Gateway.Port
	if port == 0 {
		port = config.DefaultPort
	}
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	if err := gw.scheduler.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           buildHandler(gw),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		gw.scheduler.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("gateway: listening", "addr", "http://"+addr)
	gw.broadcaster.send(SSEEvent{
		Type:    "gateway.started",
		Payload: map[string]string{"addr": "http://" + addr},
	})

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// runImport imports path as run and broadcasts import.started followed by
// import.completed or import.failed.
func (gw *Gateway) runImport(ctx context.Context, path, run, trigger string) (*reports.ImportSummary, error) {
	gw.importMu.Lock()
	defer gw.importMu.Unlock()

	gw.broadcaster.send(SSEEvent{Type: "import.started", Payload: map[string]any{
		"path": path, "run": run, "trigger": trigger,
	}})

	summary, err := reports.ImportPath(ctx, gw.db, path, reports.ImportOptions{
		RunName:    run,
		CheckerMap: gw.checkerMap,
	})
	if err != nil {
		slog.Warn("gateway: import failed", "path", path, "run", run, "error", err)
		gw.broadcaster.send(SSEEvent{Type: "import.failed", Payload: map[string]any{
			"path": path, "run": run, "error": err.Error(),
		}})
		gw.notifier.Notify(ctx, notify.Event{
			Type:  notify.EventImportFailed,
			Title: "Import failed for run " + run,
			Body:  err.Error(),
			Run:   run,
		})
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	gw.mu.Lock()
	gw.lastImportAt = now
	gw.mu.Unlock()

	gw.broadcaster.send(SSEEvent{Type: "import.completed", Payload: summary})
	if evt, ok := notify.NewReportsEvent(run, summary.NewCounts); ok {
		gw.notifier.Notify(ctx, evt)
	}
	return summary, nil
}

// importWatchDirs is the scheduler callback. Each watch directory is
// imported as a run named after the directory.
func (gw *Gateway) importWatchDirs() {
	for _, dir := range gw.cfg.Gateway.WatchDirs {
		run := filepath.Base(filepath.Clean(dir))
		// Failures are logged and broadcast by runImport.
		_, _ = gw.runImport(context.Background(), dir, run, "schedule")
	}
}

func (gw *Gateway) currentStatus() Status {
	var next string
	if t := gw.scheduler.Next(); !t.IsZero() {
		next = t.UTC().Format(time.RFC3339)
	}
	gw.mu.RLock()
	defer gw.mu.RUnlock()
	return Status{
		StartedAt:      gw.startedAt.UTC().Format(time.RFC3339),
		UptimeSeconds:  int64(time.Since(gw.startedAt).Seconds()),
		LastImportAt:   gw.lastImportAt,
		ImportSchedule: gw.cfg.Gateway.ImportSchedule,
		NextImportAt:   next,
		WatchDirs:      len(gw.cfg.Gateway.WatchDirs),
		Subscribers:    gw.broadcaster.count(),
	}
}
