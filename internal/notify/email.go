package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/CosmoTheDev/ctrlreport/internal/config"
)

// EmailChannel sends plain-text mail over SMTP.
type EmailChannel struct {
	cfg config.EmailNotifyConfig
	// sendMail is smtp.SendMail outside tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmail(cfg config.EmailNotifyConfig) *EmailChannel {
	return &EmailChannel{cfg: cfg, sendMail: smtp.SendMail}
}

func (e *EmailChannel) Name() string { return "email" }
func (e *EmailChannel) IsConfigured() bool {
	return e.cfg.SMTPHost != "" && e.cfg.From != "" && e.cfg.To != ""
}

// emailSubject prefixes new-report mails with the top severity so inbox
// rules can route on it, e.g. "[ctrlreport][Critical] 2 new reports in run ci".
func emailSubject(evt Event) string {
	tag := "[ctrlreport]"
	if evt.Type == EventNewReports {
		if label, ok := evt.Severity.Label(); ok {
			tag += "[" + label + "]"
		}
	}
	return tag + " " + evt.Title
}

func (e *EmailChannel) message(evt Event) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\r\n", emailSubject(evt))
	fmt.Fprintf(&b, "From: %s\r\nTo: %s\r\n", e.cfg.From, e.cfg.To)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	body := evt.Body
	if evt.Run != "" {
		body += "\n\nRun: " + evt.Run
	}
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

func (e *EmailChannel) Send(_ context.Context, evt Event) error {
	port := e.cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", e.cfg.SMTPHost, port)

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.SMTPHost)
	}
	msg := e.message(evt)
	if !e.cfg.UseTLS {
		return e.sendMail(addr, auth, e.cfg.From, []string{e.cfg.To}, msg)
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: e.cfg.SMTPHost, MinVersion: tls.VersionTLS12})
	if err != nil {
		return fmt.Errorf("email: TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, e.cfg.SMTPHost)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close()
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(e.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(e.cfg.To); err != nil {
		return err
	}
	wc, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(msg); err != nil {
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return client.Quit()
}
