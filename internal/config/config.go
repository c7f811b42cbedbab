// Package config handles loading the gtdsync config.toml file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dori/gtdsync/internal/db"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultArchiveDays = 30
)

// Config represents the config.toml file after defaults and environment
// overrides have been applied.
type Config struct {
	// DataDir holds the database and the instance lock.
	DataDir string `toml:"data-dir"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `toml:"log-level"`

	WebDAV  WebDAV  `toml:"webdav"`
	Archive Archive `toml:"archive"`
}

// WebDAV contains sync transport settings. Credentials are not kept here;
// they are stored by `gtdsync sync configure`.
type WebDAV struct {
	// Timeout bounds each request, as a Go duration string ("30s").
	Timeout string `toml:"timeout"`
}

// Archive contains settings for `gtdsync archive`.
type Archive struct {
	// Days is how long completed tasks are kept.
	Days int `toml:"days"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		DataDir:  db.DefaultDataDir(),
		LogLevel: "warn",
		WebDAV:   WebDAV{Timeout: defaultTimeout.String()},
		Archive:  Archive{Days: defaultArchiveDays},
	}
}

// DefaultPath returns ~/.config/gtdsync/config.toml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "gtdsync", "config.toml"), nil
}

// Load reads the config file at path, or DefaultPath when path is empty.
// A missing file yields the defaults. GTDSYNC_DATA_DIR and GTDSYNC_LOG_LEVEL
// override the file.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if v := os.Getenv("GTDSYNC_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("GTDSYNC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	cfg.DataDir = expandHome(strings.TrimSpace(cfg.DataDir))
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data-dir is empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if c.Archive.Days < 0 {
		return fmt.Errorf("archive days must not be negative, got %d", c.Archive.Days)
	}
	return nil
}

// Level parses LogLevel
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log-level: %w", err)
	}
	return level, nil
}

// Timeout parses the WebDAV request timeout
func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(c.WebDAV.Timeout))
	if err != nil {
		return 0, fmt.Errorf("webdav timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("webdav timeout must be positive, got %s", d)
	}
	return d, nil
}

// DBPath is the SQLite file inside DataDir
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "gtdsync.db")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
