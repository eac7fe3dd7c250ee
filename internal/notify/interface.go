package notify

import (
	"context"

	"github.com/CosmoTheDev/ctrlreport/models"
)

// Event types.
const (
	EventNewReports   = "new_reports"
	EventImportFailed = "import_failed"
)

// Event represents a notification raised by an import.
type Event struct {
	Type     string
	Title    string
	Body     string
	Run      string
	Severity models.Severity // highest severity involved; Unspecified when none
	Counts   models.SeverityCounts
}

// Channel is implemented by each notification provider.
type Channel interface {
	Name() string
	IsConfigured() bool
	Send(ctx context.Context, evt Event) error
}
