package config

// Config is the root configuration structure for ctrlreport.
// Serialised to ~/.ctrlreport/config.json.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Gateway  GatewayConfig  `mapstructure:"gateway"  json:"gateway"`
	UI       UIConfig       `mapstructure:"ui"       json:"ui"`
	Import   ImportConfig   `mapstructure:"import"   json:"import"`
	Notify   NotifyConfig   `mapstructure:"notify"   json:"notify"`
}

// DatabaseConfig controls the storage backend.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "mysql".
	Driver string `mapstructure:"driver" json:"driver"`
	// Path is the SQLite file path (expanded at runtime).
	Path string `mapstructure:"path"   json:"path"`
	// DSN is the MySQL data source name (used when Driver == "mysql").
	DSN string `mapstructure:"dsn"    json:"dsn"`
}

// GatewayConfig controls the REST API daemon.
type GatewayConfig struct {
	// Port is the localhost HTTP port the gateway listens on (default: 6090).
	Port int `mapstructure:"port" json:"port"`
	// WatchDirs are re-imported every time ImportSchedule fires.
	WatchDirs []string `mapstructure:"watch_dirs"      json:"watch_dirs"`
	// ImportSchedule is a cron expression ("*/10 * * * *", "@every 10m"). Empty disables it.
	ImportSchedule string `mapstructure:"import_schedule" json:"import_schedule"`
}

// UIConfig controls how severities are presented by default.
type UIConfig struct {
	// MinSeverity is a severity label ("style", "high", ...); reports below it
	// are hidden by default. Empty shows everything.
	MinSeverity string `mapstructure:"min_severity"    json:"min_severity"`
	// RefreshSeconds is how often the TUI reloads reports.
	RefreshSeconds int `mapstructure:"refresh_seconds" json:"refresh_seconds"`
}

// ImportConfig controls report ingestion.
type ImportConfig struct {
	// CheckerMap is a YAML or JSON checker→severity map. Empty uses the bundled map.
	CheckerMap string `mapstructure:"checker_map" json:"checker_map"`
	// DefaultRun names the run when the import does not specify one.
	DefaultRun string `mapstructure:"default_run" json:"default_run"`
}

// NotifyConfig controls outbound notifications after imports.
type NotifyConfig struct {
	// MinSeverity is the lowest severity label that triggers a new_reports
	// notification. Empty notifies on any new report.
	MinSeverity string `mapstructure:"min_severity" json:"min_severity"`
	// Events limits which event types are sent ("new_reports",
	// "import_failed"). Empty sends both.
	Events   []string             `mapstructure:"events"   json:"events"`
	Slack    SlackNotifyConfig    `mapstructure:"slack"    json:"slack"`
	Webhook  WebhookNotifyConfig  `mapstructure:"webhook"  json:"webhook"`
	Email    EmailNotifyConfig    `mapstructure:"email"    json:"email"`
	Telegram TelegramNotifyConfig `mapstructure:"telegram" json:"telegram"`
}

// SlackNotifyConfig holds a Slack incoming webhook.
type SlackNotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" json:"webhook_url"`
}

// WebhookNotifyConfig posts JSON to an arbitrary endpoint, signed with
// HMAC-SHA256 when Secret is set.
type WebhookNotifyConfig struct {
	URL    string `mapstructure:"url"    json:"url"`
	Secret string `mapstructure:"secret" json:"secret"`
}

// EmailNotifyConfig sends plain-text mail over SMTP. UseTLS dials implicit
// TLS (port 465 style); otherwise the server may still offer STARTTLS.
type EmailNotifyConfig struct {
	SMTPHost string `mapstructure:"smtp_host" json:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port" json:"smtp_port"`
	Username string `mapstructure:"username"  json:"username"`
	Password string `mapstructure:"password"  json:"password"`
	From     string `mapstructure:"from"      json:"from"`
	To       string `mapstructure:"to"        json:"to"`
	UseTLS   bool   `mapstructure:"use_tls"   json:"use_tls"`
}

// TelegramNotifyConfig posts through the Telegram Bot API.
type TelegramNotifyConfig struct {
	BotToken string `mapstructure:"bot_token" json:"bot_token"`
	ChatID   string `mapstructure:"chat_id"   json:"chat_id"`
	// APIBase overrides https://api.telegram.org, e.g. for a local Bot API server.
	APIBase string `mapstructure:"api_base" json:"api_base,omitempty"`
}
