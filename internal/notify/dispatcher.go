package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/CosmoTheDev/ctrlreport/internal/config"
	"github.com/CosmoTheDev/ctrlreport/models"
)

// Dispatcher fans out events to all configured channels.
type Dispatcher struct {
	channels []Channel
	minSev   models.Severity
	events   map[string]bool
}

var defaultEvents = map[string]bool{
	EventNewReports:   true,
	EventImportFailed: true,
}

// NewDispatcher creates a Dispatcher from cfg. Only channels with
// IsConfigured() == true are active.
func NewDispatcher(cfg config.NotifyConfig) (*Dispatcher, error) {
	d := &Dispatcher{events: defaultEvents}
	if cfg.MinSeverity != "" {
		s, err := models.ParseSeverity(cfg.MinSeverity)
		if err != nil {
			return nil, fmt.Errorf("notify.min_severity: %w", err)
		}
		d.minSev = s
	}
	if len(cfg.Events) > 0 {
		d.events = make(map[string]bool, len(cfg.Events))
		for _, e := range cfg.Events {
			d.events[strings.TrimSpace(e)] = true
		}
	}
	for _, ch := range []Channel{
		NewSlack(cfg.Slack),
		NewWebhook(cfg.Webhook),
		NewEmail(cfg.Email),
		NewTelegram(cfg.Telegram),
	} {
		if ch.IsConfigured() {
			d.channels = append(d.channels, ch)
		}
	}
	return d, nil
}

// IsAnyConfigured returns true if at least one channel is ready to send.
func (d *Dispatcher) IsAnyConfigured() bool {
	return d != nil && len(d.channels) > 0
}

// Notify sends evt to all configured channels. Errors are logged but never returned.
func (d *Dispatcher) Notify(ctx context.Context, evt Event) {
	if d == nil || !d.shouldSend(evt) {
		return
	}
	for _, ch := range d.channels {
		if err := ch.Send(ctx, evt); err != nil {
			slog.Warn("notify: channel send failed", "channel", ch.Name(), "event", evt.Type, "error", err)
		}
	}
}

func (d *Dispatcher) shouldSend(evt Event) bool {
	if !d.events[evt.Type] {
		return false
	}
	if evt.Type == EventNewReports {
		return evt.Severity.AtLeast(d.minSev)
	}
	return true
}

// NewReportsEvent builds a new_reports event from the per-severity counts of
// reports first seen in run. ok is false when counts has nothing to report.
func NewReportsEvent(run string, counts models.SeverityCounts) (evt Event, ok bool) {
	if counts.Total() == 0 {
		return Event{}, false
	}
	var parts []string
	top := models.SeverityUnspecified
	for _, c := range counts.Ordered() {
		if c.Count == 0 {
			continue
		}
		if c.Severity > top {
			top = c.Severity
		}
		parts = append(parts, fmt.Sprintf("%d %s", c.Count, c.Severity))
	}
	return Event{
		Type:     EventNewReports,
		Title:    fmt.Sprintf("%d new reports in run %s", counts.Total(), run),
		Body:     strings.Join(parts, ", "),
		Run:      run,
		Severity: top,
		Counts:   counts,
	}, true
}
