package gateway

import (
	"testing"
	"time"
)

func TestSchedulerReportsNextRun(t *testing.T) {
	s := newScheduler("@every 1h", func() {})
	if !s.Next().IsZero() {
		t.Fatal("expected zero next run before Start")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	next := s.Next()
	if until := time.Until(next); until <= 0 || until > time.Hour {
		t.Fatalf("next run %v not within the hour", next)
	}
	s.Stop()
	if !s.Next().IsZero() {
		t.Fatal("expected zero next run after Stop")
	}
}

func TestSchedulerIdleAndInvalid(t *testing.T) {
	idle := newScheduler("  ", func() {})
	if err := idle.Start(); err != nil {
		t.Fatalf("idle start: %v", err)
	}
	if !idle.Next().IsZero() {
		t.Fatal("idle scheduler has a next run")
	}
	idle.Stop()

	if err := newScheduler("not a cron", func() {}).Start(); err == nil {
		t.Fatal("expected error for invalid expression")
	}
}
