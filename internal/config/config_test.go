package config

import (
	"os"
	"path/filepath"
	"testing"

	"consent/sync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "ketch:\n  site_url: https://www.example.com\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://app.observepoint.com/api/v3", cfg.ObservePoint.BaseURL)
	assert.Equal(t, 30, cfg.ObservePoint.Timeout)
	assert.Equal(t, 100, cfg.ObservePoint.LibraryPageSize)
	assert.Equal(t, domain.ModeImport, cfg.Mode())
	assert.True(t, cfg.Sync.IncludeCookies)
	assert.True(t, cfg.Sync.IncludeTags)
	assert.Empty(t, cfg.Sync.SelectedNames)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Contains(t, cfg.Ketch.CookieDatabaseURL, "open-cookie-database.json")
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
observepoint:
  api_key: secret
sync:
  mode: update
  include_tags: false
  selected_names:
    - " Marketing Cookies"
    - "Site Analytics "
ketch:
  config_url: https://global.ketchcdn.com/web/v3/config/acme/site/config.json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.ObservePoint.APIKey)
	assert.Equal(t, domain.ModeUpdate, cfg.Mode())
	assert.False(t, cfg.Sync.IncludeTags)
	assert.Equal(t, []string{"Marketing Cookies", "Site Analytics"}, cfg.Sync.SelectedNames)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "observepoint:\n  api_key: from-file\n")
	t.Setenv("CONSENTSYNC_OBSERVEPOINT_API_KEY", "from-env")
	t.Setenv("CONSENTSYNC_SYNC_MODE", "update")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.ObservePoint.APIKey)
	assert.Equal(t, domain.ModeUpdate, cfg.Mode())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ObservePoint: ObservePointConfig{BaseURL: "https://api", APIKey: "k"},
			Ketch:        KetchConfig{SiteURL: "https://www.example.com"},
			Sync:         SyncConfig{Mode: "import"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid import", mutate: func(c *Config) {}},
		{name: "mode is case insensitive", mutate: func(c *Config) { c.Sync.Mode = "Import" }},
		{name: "bad mode", mutate: func(c *Config) { c.Sync.Mode = "merge" }, wantErr: true},
		{name: "missing api key", mutate: func(c *Config) { c.ObservePoint.APIKey = "" }, wantErr: true},
		{name: "missing source", mutate: func(c *Config) { c.Ketch.SiteURL = "" }, wantErr: true},
		{name: "update without names is checked at sync time", mutate: func(c *Config) { c.Sync.Mode = "update" }},
		{
			name: "update with names",
			mutate: func(c *Config) {
				c.Sync.Mode = "update"
				c.Sync.SelectedNames = []string{"Marketing"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
