package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/CosmoTheDev/ctrlreport/internal/config"
	"github.com/CosmoTheDev/ctrlreport/models"
)

// SignatureHeader carries "sha256=<hex hmac>" when a secret is configured.
const SignatureHeader = "X-Ctrlreport-Signature"

// WebhookChannel sends notifications to a generic HTTP endpoint with optional
// HMAC-SHA256 signing.
type WebhookChannel struct {
	cfg    config.WebhookNotifyConfig
	client *http.Client
}

// NewWebhook creates a WebhookChannel from cfg.
func NewWebhook(cfg config.WebhookNotifyConfig) *WebhookChannel {
	return &WebhookChannel{cfg: cfg, client: &http.Client{Timeout: 5 * time.Second}}
}

func (w *WebhookChannel) Name() string       { return "webhook" }
func (w *WebhookChannel) IsConfigured() bool { return w.cfg.URL != "" }

type webhookPayload struct {
	Type     string                `json:"type"`
	Title    string                `json:"title"`
	Body     string                `json:"body"`
	Run      string                `json:"run"`
	Severity models.Severity       `json:"severity"`
	Counts   models.SeverityCounts `json:"severity_counts,omitempty"`
	TS       string                `json:"ts"`
}

func (w *WebhookChannel) Send(ctx context.Context, evt Event) error {
	b, err := json.Marshal(webhookPayload{
		Type:     evt.Type,
		Title:    evt.Title,
		Body:     evt.Body,
		Run:      evt.Run,
		Severity: evt.Severity,
		Counts:   evt.Counts,
		TS:       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.cfg.Secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(w.cfg.Secret, b))
	}
	resp, err := w.client.Do(req) // #nosec G107 -- URL is a user-configured webhook endpoint
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
