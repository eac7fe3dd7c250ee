package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/CosmoTheDev/ctrlreport/internal/config"
	"github.com/CosmoTheDev/ctrlreport/models"
	"github.com/charmbracelet/huh"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and manage ctrlreport configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration (secrets redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		return writeConfig(os.Stdout, redactedConfig(*cfg))
	},
}

func writeConfig(w io.Writer, cfg config.Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

const redacted = "***"

// redactedConfig blanks every credential: the MySQL password, webhook URLs
// (whose path is the credential for Slack), the HMAC secret, the SMTP
// password and the Telegram bot token.
func redactedConfig(cfg config.Config) config.Config {
	cfg.Database.DSN = redactDSN(cfg.Database.DSN)
	n := &cfg.Notify
	n.Slack.WebhookURL = redactURL(n.Slack.WebhookURL)
	n.Webhook.URL = redactURL(n.Webhook.URL)
	for _, secret := range []*string{&n.Webhook.Secret, &n.Email.Password, &n.Telegram.BotToken} {
		if *secret != "" {
			*secret = redacted
		}
	}
	return cfg
}

// redactURL keeps scheme and host so the target stays recognisable.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return redacted
	}
	return u.Scheme + "://" + u.Host + "/" + redacted
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the path to the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.ConfigPath(cfgFile)
		if err != nil {
			return err
		}
		fmt.Println(p)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup for the database, default severity and gateway",
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd)
}

// configFormValues holds the string-typed form inputs before they are
// validated into a Config.
type configFormValues struct {
	Driver         string
	Path           string
	DSN            string
	MinSeverity    string
	Port           string
	WatchDirs      string
	ImportSchedule string
}

func formValuesFrom(cfg *config.Config) configFormValues {
	return configFormValues{
		Driver:         firstNonEmpty(cfg.Database.Driver, "sqlite"),
		Path:           cfg.Database.Path,
		DSN:            cfg.Database.DSN,
		MinSeverity:    cfg.UI.MinSeverity,
		Port:           strconv.Itoa(cfg.Gateway.Port),
		WatchDirs:      strings.Join(cfg.Gateway.WatchDirs, ","),
		ImportSchedule: cfg.Gateway.ImportSchedule,
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	fmt.Println()
	fmt.Println(headerStyle.Render("  ctrlreport setup"))

	cfg, err := config.Load(cfgFile)
	if err != nil {
		cfg = &config.Config{}
	}
	vals := formValuesFrom(cfg)

	sevOptions := []huh.Option[string]{huh.NewOption("Show everything", "")}
	all := models.Severities()
	for i := len(all) - 1; i >= 0; i-- {
		label := all[i].String()
		sevOptions = append(sevOptions, huh.NewOption(label+" and above", strings.ToLower(label)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Database driver").
				Options(
					huh.NewOption("SQLite (local file)", "sqlite"),
					huh.NewOption("MySQL", "mysql"),
				).
				Value(&vals.Driver),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("SQLite database path").
				Value(&vals.Path),
		).WithHideFunc(func() bool { return vals.Driver != "sqlite" }),
		huh.NewGroup(
			huh.NewInput().
				Title("MySQL DSN").
				Placeholder("user:pass@tcp(127.0.0.1:3306)/ctrlreport").
				EchoMode(huh.EchoModePassword).
				Value(&vals.DSN),
		).WithHideFunc(func() bool { return vals.Driver != "mysql" }),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default minimum severity").
				Description("Reports below this level are hidden in the UI and report listings.").
				Options(sevOptions...).
				Value(&vals.MinSeverity),
			huh.NewInput().
				Title("Gateway port").
				Value(&vals.Port).
				Validate(validatePort),
			huh.NewInput().
				Title("Watch directories (comma-separated, optional)").
				Value(&vals.WatchDirs),
			huh.NewInput().
				Title("Re-import schedule (cron, optional)").
				Placeholder("@every 1h").
				Value(&vals.ImportSchedule).
				Validate(validateSchedule),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	if err := applyConfigForm(cfg, vals); err != nil {
		return err
	}
	if err := config.Save(cfg, cfgFile); err != nil {
		return err
	}
	p, _ := config.ConfigPath(cfgFile)
	fmt.Println(successStyle.Render("  Saved " + p))
	return nil
}

// applyConfigForm validates vals and copies them onto cfg.
func applyConfigForm(cfg *config.Config, vals configFormValues) error {
	if err := validatePort(vals.Port); err != nil {
		return err
	}
	if err := validateSchedule(vals.ImportSchedule); err != nil {
		return err
	}
	port, _ := strconv.Atoi(strings.TrimSpace(vals.Port))

	cfg.Database.Driver = vals.Driver
	cfg.Database.Path = strings.TrimSpace(vals.Path)
	cfg.Database.DSN = strings.TrimSpace(vals.DSN)
	cfg.UI.MinSeverity = vals.MinSeverity
	cfg.Gateway.Port = port
	cfg.Gateway.ImportSchedule = strings.TrimSpace(vals.ImportSchedule)
	cfg.Gateway.WatchDirs = nil
	for _, d := range strings.Split(vals.WatchDirs, ",") {
		if d = strings.TrimSpace(d); d != "" {
			cfg.Gateway.WatchDirs = append(cfg.Gateway.WatchDirs, d)
		}
	}
	return cfg.Validate()
}

func validatePort(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}

func validateSchedule(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := cron.ParseStandard(s); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// redactDSN hides the password in a user:pass@... DSN.
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	creds := dsn[:at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return creds[:colon] + ":***" + dsn[at:]
	}
	return dsn
}
