package cmd

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CosmoTheDev/ctrlreport/internal/config"
	"github.com/CosmoTheDev/ctrlreport/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSeverityArg(t *testing.T) {
	cases := []struct {
		arg  string
		want models.Severity
	}{
		{"HIGH", models.SeverityHigh},
		{"style", models.SeverityStyle},
		{"0", models.SeverityUnspecified},
		{"50", models.SeverityCritical},
	}
	for _, tc := range cases {
		got, err := resolveSeverityArg(tc.arg)
		require.NoError(t, err, tc.arg)
		assert.Equal(t, tc.want, got, tc.arg)
	}

	for _, bad := range []string{"35", "-1", "severe", ""} {
		_, err := resolveSeverityArg(bad)
		assert.ErrorIs(t, err, models.ErrUnknownSeverity, bad)
	}
}

func TestWriteReportsJSONUsesLabels(t *testing.T) {
	var buf bytes.Buffer
	items := []models.Report{{ID: 3, Severity: models.SeverityCritical, CheckerName: "security.insecureAPI.gets"}}
	require.NoError(t, writeReports(&buf, items, 7, "json"))

	var got struct {
		Total int `json:"total"`
		Items []struct {
			Severity string `json:"severity"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 7, got.Total)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Critical", got.Items[0].Severity)
}

func TestWriteReportsTable(t *testing.T) {
	var buf bytes.Buffer
	items := []models.Report{
		{ID: 1, Severity: models.SeverityHigh, CheckerName: "core.DivideZero", FilePath: "src/main.c", Line: 12, ReviewStatus: "unreviewed", Message: "Division by zero"},
		{ID: 2, Severity: models.SeverityStyle, CheckerName: "modernize-use-nullptr", FilePath: "src/util.cpp", Line: 40, ReviewStatus: "confirmed", Message: "use nullptr"},
	}
	require.NoError(t, writeReports(&buf, items, 2, "table"))
	out := buf.String()
	assert.Contains(t, out, "SEVERITY")
	assert.Contains(t, out, "High")
	assert.Contains(t, out, "Style")
	assert.Contains(t, out, "src/main.c:12")
	assert.Contains(t, out, "showing 2 of 2")

	buf.Reset()
	require.NoError(t, writeReports(&buf, nil, 0, "table"))
	assert.Contains(t, buf.String(), "No open reports")
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSummary(&buf, "nightly", models.SeverityCounts{models.SeverityHigh: 2, models.SeverityLow: 1}))
	out := buf.String()
	assert.Contains(t, out, "Run nightly")
	assert.Contains(t, out, "Unspecified")
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "3")
}

func TestApplyConfigForm(t *testing.T) {
	cfg := &config.Config{}
	err := applyConfigForm(cfg, configFormValues{
		Driver:         "sqlite",
		Path:           " /tmp/r.db ",
		MinSeverity:    "medium",
		Port:           "7000",
		WatchDirs:      "a, ,b",
		ImportSchedule: "@every 1h",
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/r.db", cfg.Database.Path)
	assert.Equal(t, 7000, cfg.Gateway.Port)
	assert.Equal(t, []string{"a", "b"}, cfg.Gateway.WatchDirs)

	lvl, err := cfg.UI.MinSeverityLevel()
	require.NoError(t, err)
	assert.Equal(t, models.SeverityMedium, lvl)

	assert.Error(t, applyConfigForm(cfg, configFormValues{Driver: "sqlite", Port: "99999"}))
	assert.Error(t, applyConfigForm(cfg, configFormValues{Driver: "sqlite", Port: "80", ImportSchedule: "every tuesday"}))
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "root:***@tcp(127.0.0.1:3306)/db", redactDSN("root:secret@tcp(127.0.0.1:3306)/db"))
	assert.Equal(t, "no-creds", redactDSN("no-creds"))
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	var cfg config.Config
	cfg.Database.DSN = "root:dbpass@tcp(db:3306)/reports"
	cfg.Notify.Slack.WebhookURL = "https://hooks.slack.com/services/T000/B000/slacktoken"
	cfg.Notify.Webhook.URL = "https://ci.example.test/hook?token=querytoken"
	cfg.Notify.Webhook.Secret = "hmackey"
	cfg.Notify.Email.Password = "smtppass"
	cfg.Notify.Telegram.BotToken = "123:bottoken"
	cfg.Notify.Telegram.ChatID = "-42"

	var buf bytes.Buffer
	require.NoError(t, writeConfig(&buf, redactedConfig(cfg)))
	out := buf.String()
	for _, secret := range []string{"dbpass", "slacktoken", "querytoken", "hmackey", "smtppass", "bottoken"} {
		assert.NotContains(t, out, secret)
	}
	assert.Contains(t, out, `"webhook_url": "https://hooks.slack.com/***"`)
	assert.Contains(t, out, `"chat_id": "-42"`)

	// The loaded config itself is untouched.
	assert.Equal(t, "hmackey", cfg.Notify.Webhook.Secret)
}

func TestTeeLogToFileAppendsPerDay(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	day := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	path, closeLog, err := teeLogToFile(dir, day)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gateway-20261019.log"), path)

	slog.Info("import finished", "run", "nightly")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run=nightly")
}
