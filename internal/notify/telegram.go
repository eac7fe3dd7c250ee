package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/CosmoTheDev/ctrlreport/internal/config"
)

const (
	telegramAPIBase = "https://api.telegram.org"
	telegramMaxText = 4096
)

// TelegramChannel posts through the Telegram Bot API.
type TelegramChannel struct {
	cfg    config.TelegramNotifyConfig
	client *http.Client
}

func NewTelegram(cfg config.TelegramNotifyConfig) *TelegramChannel {
	return &TelegramChannel{cfg: cfg, client: &http.Client{Timeout: 5 * time.Second}}
}

func (t *TelegramChannel) Name() string       { return "telegram" }
func (t *TelegramChannel) IsConfigured() bool { return t.cfg.BotToken != "" && t.cfg.ChatID != "" }

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// telegramText renders evt as Telegram HTML: the severity label in bold
// ahead of the title for new-report events.
func telegramText(evt Event) string {
	var b strings.Builder
	if evt.Type == EventNewReports {
		if label, ok := evt.Severity.Label(); ok {
			b.WriteString("<b>" + label + "</b> ")
		}
	}
	b.WriteString(html.EscapeString(evt.Title))
	if evt.Body != "" {
		b.WriteString("\n\n" + html.EscapeString(evt.Body))
	}
	text := []rune(b.String())
	if len(text) > telegramMaxText {
		return string(text[:telegramMaxText-1]) + "…"
	}
	return string(text)
}

func (t *TelegramChannel) Send(ctx context.Context, evt Event) error {
	body, err := json.Marshal(telegramMessage{ChatID: t.cfg.ChatID, Text: telegramText(evt), ParseMode: "HTML"})
	if err != nil {
		return err
	}
	base := strings.TrimRight(t.cfg.APIBase, "/")
	if base == "" {
		base = telegramAPIBase
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", base, t.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req) // #nosec G107 -- Bot API base plus user-configured token
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram API returned %d", resp.StatusCode)
	}
	return nil
}
