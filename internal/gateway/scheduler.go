package gateway

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler fires the watch-directory re-import on a cron expression.
type Scheduler struct {
	cron    *cron.Cron
	expr    string
	fire    func()
	entryID cron.EntryID
}

func newScheduler(expr string, fire func()) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		expr: strings.TrimSpace(expr),
		fire: fire,
	}
}

// Start registers the expression, if any, and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.expr == "" {
		slog.Info("gateway scheduler idle", "reason", "no import_schedule configured")
		return nil
	}
	id, err := s.cron.AddFunc(s.expr, s.fire)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.expr, err)
	}
	s.entryID = id
	s.cron.Start()
	slog.Info("gateway scheduler started", "expr", s.expr)
	return nil
}

// Next returns when the re-import fires next, or the zero time when the
// scheduler is idle.
func (s *Scheduler) Next() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Stop removes the entry and halts the cron runner, waiting for a running
// import to finish.
func (s *Scheduler) Stop() {
	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}
	<-s.cron.Stop().Done()
}
