package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/CosmoTheDev/ctrlreport/models"
	"github.com/spf13/viper"
)

const (
	DefaultConfigDir  = ".ctrlreport"
	DefaultConfigFile = "config.json"
	DefaultDBFile     = ".ctrlreport/ctrlreport.db"
	DefaultPort       = 6090
)

// Load reads the config file (falling back to defaults if absent) and returns
// a populated Config. The configPath flag may override the default location.
func Load(configPath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix("ctrlreport")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(home, DefaultConfigDir))
	}

	setDefaults(v, home)

	// A missing file means defaults; a malformed one is an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	expandPaths(&cfg, home)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be expressed as viper defaults.
func (c *Config) Validate() error {
	if _, err := c.UI.MinSeverityLevel(); err != nil {
		return fmt.Errorf("ui.min_severity: %w", err)
	}
	if c.Notify.MinSeverity != "" {
		if _, err := models.ParseSeverity(c.Notify.MinSeverity); err != nil {
			return fmt.Errorf("notify.min_severity: %w", err)
		}
	}
	switch c.Database.Driver {
	case "sqlite", "sqlite3", "mysql", "":
	default:
		return fmt.Errorf("database.driver: unsupported driver %q (supported: sqlite, mysql)", c.Database.Driver)
	}
	return nil
}

// MinSeverityLevel parses MinSeverity. An empty label means no minimum and
// returns SeverityUnspecified, the least severe level.
func (u UIConfig) MinSeverityLevel() (models.Severity, error) {
	if u.MinSeverity == "" {
		return models.SeverityUnspecified, nil
	}
	return models.ParseSeverity(u.MinSeverity)
}

// Save writes the config to disk as JSON.
func Save(cfg *Config, configPath string) error {
	p, err := ConfigPath(configPath)
	if err != nil {
		return fmt.Errorf("cannot determine home directory: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("serialising config: %w", err)
	}

	return os.WriteFile(p, data, 0o600)
}

// ConfigPath returns the effective config file path.
func ConfigPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile), nil
}

func setDefaults(v *viper.Viper, home string) {
	for key, val := range map[string]any{
		"database.driver": "sqlite",
		"database.path":   filepath.Join(home, DefaultDBFile),
		"database.dsn":    "",

		"gateway.port":            DefaultPort,
		"gateway.watch_dirs":      []string{},
		"gateway.import_schedule": "",

		"ui.min_severity":    "",
		"ui.refresh_seconds": 30,

		"import.checker_map": "",
		"import.default_run": "default",

		"notify.min_severity":      "high",
		"notify.events":            []string{},
		"notify.slack.webhook_url": "",
		"notify.webhook.url":       "",
		"notify.webhook.secret":    "",
	} {
		v.SetDefault(key, val)
	}
}

// expandPaths resolves ~ in configured paths.
func expandPaths(cfg *Config, home string) {
	cfg.Database.Path = expandHome(cfg.Database.Path, home)
	cfg.Import.CheckerMap = expandHome(cfg.Import.CheckerMap, home)
	for i, d := range cfg.Gateway.WatchDirs {
		cfg.Gateway.WatchDirs[i] = expandHome(d, home)
	}
}

func expandHome(path, home string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
