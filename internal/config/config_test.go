package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CosmoTheDev/ctrlreport/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, DefaultPort, cfg.Gateway.Port)
	assert.Equal(t, 30, cfg.UI.RefreshSeconds)
	assert.Equal(t, "default", cfg.Import.DefaultRun)
	assert.Equal(t, "high", cfg.Notify.MinSeverity)

	min, err := cfg.UI.MinSeverityLevel()
	require.NoError(t, err)
	assert.Equal(t, models.SeverityUnspecified, min)
}

func TestLoadParsesMinSeverityCaseInsensitively(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ui":{"min_severity":"HIGH"},"gateway":{"port":7000}}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Gateway.Port)

	min, err := cfg.UI.MinSeverityLevel()
	require.NoError(t, err)
	assert.Equal(t, models.SeverityHigh, min)
}

func TestLoadRejectsUnknownMinSeverity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ui":{"min_severity":"urgent"}}`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnknownSeverity)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := &Config{
		Database: DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "r.db")},
		Gateway:  GatewayConfig{Port: 6111, ImportSchedule: "@every 5m"},
		UI:       UIConfig{MinSeverity: "Medium", RefreshSeconds: 10},
	}
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6111, loaded.Gateway.Port)
	assert.Equal(t, "@every 5m", loaded.Gateway.ImportSchedule)
	assert.Equal(t, "Medium", loaded.UI.MinSeverity)
}
