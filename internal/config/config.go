package config

import (
	"errors"
	"fmt"
	"strings"

	"consent/sync/internal/domain"

	"github.com/spf13/viper"
)

const envPrefix = "CONSENTSYNC"

// Config holds all configuration for the application
type Config struct {
	ObservePoint ObservePointConfig `mapstructure:"observepoint"`
	Ketch        KetchConfig        `mapstructure:"ketch"`
	Sync         SyncConfig         `mapstructure:"sync"`
	Export       ExportConfig       `mapstructure:"export"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Log          LogConfig          `mapstructure:"log"`
}

// ObservePointConfig holds consent API configuration
type ObservePointConfig struct {
	BaseURL              string `mapstructure:"base_url"`
	APIKey               string `mapstructure:"api_key"`
	Timeout              int    `mapstructure:"timeout"`
	MaxRequestsPerSecond int    `mapstructure:"max_requests_per_second"`
	LibraryPageSize      int    `mapstructure:"library_page_size"`
}

// KetchConfig describes where the site's consent configuration is read from
type KetchConfig struct {
	SiteURL           string   `mapstructure:"site_url"`
	ConfigURL         string   `mapstructure:"config_url"`
	Host              string   `mapstructure:"host"`
	CookieDatabaseURL string   `mapstructure:"cookie_database_url"`
	Timeout           int      `mapstructure:"timeout"`
	Proxies           []string `mapstructure:"proxies"`
}

// SyncConfig replaces the interactive mode and mapping prompts
type SyncConfig struct {
	Mode           string   `mapstructure:"mode"`
	IncludeCookies bool     `mapstructure:"include_cookies"`
	IncludeTags    bool     `mapstructure:"include_tags"`
	SelectedNames  []string `mapstructure:"selected_names"`
}

type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// DatabaseConfig holds the run report database configuration
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds the cookie database cache connection details
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
	TTL      int    `mapstructure:"ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a YAML file with environment variable overrides.
// An empty path looks for an optional config.yaml in the current directory.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	config.Sync.SelectedNames = trimNames(config.Sync.SelectedNames)

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("observepoint.base_url", "https://app.observepoint.com/api/v3")
	v.SetDefault("observepoint.api_key", "")
	v.SetDefault("observepoint.timeout", 30)
	v.SetDefault("observepoint.max_requests_per_second", 5)
	v.SetDefault("observepoint.library_page_size", 100)

	v.SetDefault("ketch.site_url", "")
	v.SetDefault("ketch.config_url", "")
	v.SetDefault("ketch.host", "")
	v.SetDefault("ketch.cookie_database_url",
		"https://cdn.jsdelivr.net/gh/jkwakman/Open-Cookie-Database@master/open-cookie-database.json")
	v.SetDefault("ketch.timeout", 30)
	v.SetDefault("ketch.proxies", []string{})

	v.SetDefault("sync.mode", string(domain.ModeImport))
	v.SetDefault("sync.include_cookies", true)
	v.SetDefault("sync.include_tags", true)
	v.SetDefault("sync.selected_names", []string{})

	v.SetDefault("export.output_dir", ".")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "consent_sync")
	v.SetDefault("database.user", "consent_sync")
	v.SetDefault("database.password", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.ttl", 86400)

	v.SetDefault("log.level", "info")
}

// Validate checks the settings needed for a sync run. Source settings are
// checked separately by ValidateSource since export runs without an API key.
// Selected names are checked against the extracted categories at sync time.
func (c *Config) Validate() error {
	mode := c.Mode()
	if !mode.Valid() {
		return fmt.Errorf("invalid sync mode %q: must be %q or %q", c.Sync.Mode, domain.ModeImport, domain.ModeUpdate)
	}

	if c.ObservePoint.APIKey == "" {
		return errors.New("observepoint.api_key is required for import and update")
	}

	if c.ObservePoint.BaseURL == "" {
		return errors.New("observepoint.base_url is required")
	}

	return c.ValidateSource()
}

func (c *Config) ValidateSource() error {
	if c.Ketch.ConfigURL == "" && c.Ketch.SiteURL == "" {
		return errors.New("one of ketch.config_url or ketch.site_url is required")
	}
	return nil
}

// Mode returns the configured sync mode.
func (c *Config) Mode() domain.Mode {
	return domain.Mode(strings.ToLower(c.Sync.Mode))
}

func trimNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, strings.TrimSpace(n))
	}
	return out
}
