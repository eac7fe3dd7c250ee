package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/CosmoTheDev/ctrlreport/internal/config"
	"github.com/CosmoTheDev/ctrlreport/models"
)

// SlackChannel posts to a Slack incoming webhook.
type SlackChannel struct {
	cfg    config.SlackNotifyConfig
	client *http.Client
}

func NewSlack(cfg config.SlackNotifyConfig) *SlackChannel {
	return &SlackChannel{cfg: cfg, client: &http.Client{Timeout: 5 * time.Second}}
}

func (s *SlackChannel) Name() string       { return "slack" }
func (s *SlackChannel) IsConfigured() bool { return s.cfg.WebhookURL != "" }

type slackMessage struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color  string `json:"color"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Footer string `json:"footer"`
	TS     int64  `json:"ts"`
}

// slackColors gives the attachment bar colour per severity.
var slackColors = map[models.Severity]string{
	models.SeverityCritical: "#FF0000",
	models.SeverityHigh:     "#FF6600",
	models.SeverityMedium:   "#FFAA00",
	models.SeverityLow:      "#0099FF",
	models.SeverityStyle:    "#22C55E",
}

func severityColor(s models.Severity) string {
	if c, ok := slackColors[s]; ok {
		return c
	}
	return "#888888"
}

func (s *SlackChannel) Send(ctx context.Context, evt Event) error {
	footer := "ctrlreport"
	if evt.Run != "" {
		footer += " · run " + evt.Run
	}
	body, err := json.Marshal(slackMessage{
		Text: evt.Title,
		Attachments: []slackAttachment{{
			Color:  severityColor(evt.Severity),
			Title:  evt.Title,
			Text:   evt.Body,
			Footer: footer,
			TS:     time.Now().Unix(),
		}},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req) // #nosec G107 -- user-configured Slack webhook
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned %d", resp.StatusCode)
	}
	return nil
}
