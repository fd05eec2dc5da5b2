package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Feed      FeedConfig      `yaml:"feed"`
	Cache     CacheConfig     `yaml:"cache"`
	Sync      SyncConfig      `yaml:"sync"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Dev       DevConfig       `yaml:"dev"`
	Timezone  string          `yaml:"timezone"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig points at the remote settings store. An empty host runs
// the server in local-only mode.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type FeedConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Refresh        string `yaml:"refresh"`
	// SheetsCredentials is a service account key file. When set, Google
	// Sheets URLs are read through the Sheets API instead of the CSV export.
	SheetsCredentials string `yaml:"sheets_credentials"`
}

type CacheConfig struct {
	Dir         string `yaml:"dir"`
	FetchLogDir string `yaml:"fetch_log_dir"`
}

type SyncConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

type CalendarConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentials_file"`
	CalendarID      string `yaml:"calendar_id"`
	User            string `yaml:"user"`
	Schedule        string `yaml:"schedule"`
}

type DevConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Enabled reports whether a remote settings store is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// FeedTimeout returns the HTTP timeout for feed fetches.
func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.Feed.TimeoutSeconds) * time.Second
}

// Debounce returns the delay before a saved setting is written remotely.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Sync.DebounceMs) * time.Millisecond
}

// Location resolves the configured timezone used to decide "today".
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load reads config from a YAML file, applies defaults, then environment
// variable overrides. Env vars use the prefix RACECOUNTDOWN_:
//
//	RACECOUNTDOWN_SERVER_HOST, RACECOUNTDOWN_SERVER_PORT,
//	RACECOUNTDOWN_DB_HOST, RACECOUNTDOWN_DB_PORT, RACECOUNTDOWN_DB_NAME,
//	RACECOUNTDOWN_DB_USER, RACECOUNTDOWN_DB_PASSWORD, RACECOUNTDOWN_DB_SSLMODE,
//	RACECOUNTDOWN_CACHE_DIR, RACECOUNTDOWN_TIMEZONE, RACECOUNTDOWN_DEV
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Feed.TimeoutSeconds == 0 {
		cfg.Feed.TimeoutSeconds = 15
	}
	if cfg.Feed.Refresh == "" {
		cfg.Feed.Refresh = "@every 30m"
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "~/.racecountdown/settings"
	}
	if cfg.Cache.FetchLogDir == "" {
		cfg.Cache.FetchLogDir = "~/.racecountdown"
	}
	if cfg.Sync.DebounceMs == 0 {
		cfg.Sync.DebounceMs = 1500
	}
	if cfg.Calendar.Schedule == "" {
		cfg.Calendar.Schedule = "@every 6h"
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "racecountdown"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RACECOUNTDOWN_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("RACECOUNTDOWN_SERVER_PORT"); v != "" {
		if port, err := cast.ToIntE(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RACECOUNTDOWN_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("RACECOUNTDOWN_DB_PORT"); v != "" {
		if port, err := cast.ToIntE(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("RACECOUNTDOWN_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("RACECOUNTDOWN_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("RACECOUNTDOWN_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("RACECOUNTDOWN_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("RACECOUNTDOWN_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("RACECOUNTDOWN_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("RACECOUNTDOWN_DEV"); v != "" {
		if enabled, err := cast.ToBoolE(v); err == nil {
			cfg.Dev.Enabled = enabled
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Enabled() {
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	}
	if c.Tailscale.Enabled && c.Tailscale.StateDir == "" {
		return fmt.Errorf("tailscale.state_dir is required")
	}
	if c.Calendar.Enabled {
		if c.Calendar.CredentialsFile == "" {
			return fmt.Errorf("calendar.credentials_file is required")
		}
		if c.Calendar.CalendarID == "" {
			return fmt.Errorf("calendar.calendar_id is required")
		}
		if c.Calendar.User == "" {
			return fmt.Errorf("calendar.user is required")
		}
	}
	if c.Timezone != "" && c.Timezone != "Local" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}
	if c.Sync.DebounceMs < 0 {
		return fmt.Errorf("sync.debounce_ms must not be negative")
	}
	return nil
}
