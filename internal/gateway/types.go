package gateway

import "github.com/CosmoTheDev/ctrlreport/models"

// SSEEvent is serialised as JSON and pushed over the GET /events SSE stream.
type SSEEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Status is a live snapshot of the gateway state.
type Status struct {
	StartedAt      string `json:"started_at"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	LastImportAt   string `json:"last_import_at,omitempty"`
	ImportSchedule string `json:"import_schedule,omitempty"`
	NextImportAt   string `json:"next_import_at,omitempty"`
	WatchDirs      int    `json:"watch_dirs"`
	Subscribers    int    `json:"event_subscribers"`
}

// severityView is the wire form of one severity: numeric code plus label.
type severityView struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

func viewOf(s models.Severity) severityView {
	return severityView{Code: int(s), Label: s.String()}
}

type importRequest struct {
	Path string `json:"path"`
	Run  string `json:"run"`
}

type reviewRequest struct {
	ReviewStatus string `json:"review_status"`
}
