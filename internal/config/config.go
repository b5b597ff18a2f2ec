package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the console and server settings that come from the config
// file and the environment. Operator choices made at runtime (mode, forced
// mode, check frequency) live in the settings store instead.
type Config struct {
	APIBind         string        `envconfig:"API_BIND"`
	LogPath         string        `envconfig:"LOG_PATH"`
	LogLevel        string        `envconfig:"LOG_LEVEL"`
	MetricsAddr     string        `envconfig:"METRICS_ADDR"`
	SettingsPath    string        `envconfig:"SETTINGS_PATH"`
	ProbeTimeout    time.Duration `envconfig:"PROBE_TIMEOUT"`
	FeedTimeout     time.Duration `envconfig:"FEED_TIMEOUT"`
	OfflineInterval time.Duration `envconfig:"OFFLINE_INTERVAL"`
	RestoredNotice  time.Duration `envconfig:"RESTORED_NOTICE"`

	// harbord
	Listen      string `envconfig:"LISTEN"`
	DatabaseDSN string `envconfig:"DATABASE_DSN"`
	Demo        bool   `envconfig:"DEMO"`
}

// EnvPrefix prefixes every environment override, e.g. HARBOR_API_BIND.
const EnvPrefix = "HARBOR"

const (
	defaultConfigPath      = "~/.config/harbormaster/config.toml"
	defaultLogPath         = "~/.local/state/harbormaster/harbormaster.log"
	defaultAPIBind         = "127.0.0.1:8087"
	defaultListen          = "127.0.0.1:8087"
	defaultLogLevel        = "info"
	defaultProbeTimeout    = 8 * time.Second
	defaultFeedTimeout     = 8 * time.Second
	defaultOfflineInterval = 10 * time.Second
	defaultRestoredNotice  = 5 * time.Second
)

type fileConfig struct {
	APIBind         string `toml:"api_bind"`
	LogPath         string `toml:"log_path"`
	LogLevel        string `toml:"log_level"`
	MetricsAddr     string `toml:"metrics_addr"`
	SettingsPath    string `toml:"settings_path"`
	ProbeTimeout    string `toml:"probe_timeout"`
	FeedTimeout     string `toml:"feed_timeout"`
	OfflineInterval string `toml:"offline_interval"`
	RestoredNotice  string `toml:"restored_notice"`
	Listen          string `toml:"listen"`
	DatabaseDSN     string `toml:"database_dsn"`
	Demo            bool   `toml:"demo"`
}

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		APIBind:         defaultAPIBind,
		LogPath:         mustExpand(defaultLogPath),
		LogLevel:        defaultLogLevel,
		ProbeTimeout:    defaultProbeTimeout,
		FeedTimeout:     defaultFeedTimeout,
		OfflineInterval: defaultOfflineInterval,
		RestoredNotice:  defaultRestoredNotice,
		Listen:          defaultListen,
	}
}

// Load reads the config file at path (or the default location), falling
// back to defaults when it is missing, then applies HARBOR_* environment
// overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		var raw fileConfig
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		if err := cfg.merge(raw); err != nil {
			return Config{}, err
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) merge(raw fileConfig) error {
	setString(&c.APIBind, raw.APIBind)
	setString(&c.LogPath, raw.LogPath)
	setString(&c.LogLevel, raw.LogLevel)
	setString(&c.MetricsAddr, raw.MetricsAddr)
	setString(&c.SettingsPath, raw.SettingsPath)
	setString(&c.Listen, raw.Listen)
	setString(&c.DatabaseDSN, raw.DatabaseDSN)
	c.Demo = raw.Demo

	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"probe_timeout", raw.ProbeTimeout, &c.ProbeTimeout},
		{"feed_timeout", raw.FeedTimeout, &c.FeedTimeout},
		{"offline_interval", raw.OfflineInterval, &c.OfflineInterval},
		{"restored_notice", raw.RestoredNotice, &c.RestoredNotice},
	}
	for _, d := range durations {
		value := strings.TrimSpace(d.value)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parse config: %s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

func (c *Config) normalize() error {
	c.APIBind = strings.TrimSpace(c.APIBind)
	if c.APIBind == "" {
		c.APIBind = defaultAPIBind
	}
	c.Listen = strings.TrimSpace(c.Listen)
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	c.LogPath = strings.TrimSpace(c.LogPath)
	if c.LogPath == "" {
		c.LogPath = defaultLogPath
	}
	c.LogPath = mustExpand(c.LogPath)
	if c.SettingsPath = strings.TrimSpace(c.SettingsPath); c.SettingsPath != "" {
		c.SettingsPath = mustExpand(c.SettingsPath)
	}
	c.MetricsAddr = strings.TrimSpace(c.MetricsAddr)
	c.DatabaseDSN = strings.TrimSpace(c.DatabaseDSN)

	for name, d := range map[string]time.Duration{
		"probe_timeout":    c.ProbeTimeout,
		"feed_timeout":     c.FeedTimeout,
		"offline_interval": c.OfflineInterval,
		"restored_notice":  c.RestoredNotice,
	} {
		if d <= 0 {
			return fmt.Errorf("invalid config: %s must be positive, got %s", name, d)
		}
	}
	return nil
}

func setString(dst *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*dst = trimmed
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
