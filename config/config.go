// Package config defines the postboard server configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/GoCodeAlone/postboard/calendar"
)

// Config is the top-level postboard configuration.
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Auth     AuthConfig     `json:"auth" yaml:"auth"`
	Board    BoardConfig    `json:"board" yaml:"board"`
	Blob     BlobConfig     `json:"blob" yaml:"blob"`
	Activity ActivityConfig `json:"activity" yaml:"activity"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"` // listen address, e.g., ":8080"
}

// AuthConfig controls login and session tokens.
type AuthConfig struct {
	JWTSecret string        `json:"jwt_secret" yaml:"jwt_secret"` // generated per process when empty
	TokenTTL  time.Duration `json:"token_ttl" yaml:"token_ttl"`
	Users     []UserConfig  `json:"users" yaml:"users"`
}

// UserConfig is a single login. Set either Password (plaintext, demo
// setups) or PasswordHash (bcrypt).
type UserConfig struct {
	Username     string `json:"username" yaml:"username"`
	Password     string `json:"password,omitempty" yaml:"password"`
	PasswordHash string `json:"password_hash,omitempty" yaml:"password_hash"`
	Role         string `json:"role" yaml:"role"` // "agency" or "client"
}

// BoardConfig controls the initial view of new sessions.
type BoardConfig struct {
	CalendarStart calendar.Month `json:"calendar_start" yaml:"calendar_start"`
	DefaultBrand  string         `json:"default_brand" yaml:"default_brand"`
}

// BlobConfig limits visual uploads.
type BlobConfig struct {
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes"`
}

// ActivityConfig selects the activity journal database.
type ActivityConfig struct {
	DSN string `json:"dsn" yaml:"dsn"`
}

// LogConfig controls logging. When File is set, output is also written to a
// rotating log file.
type LogConfig struct {
	Level      string `json:"level" yaml:"level"`
	File       string `json:"file" yaml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `json:"compress" yaml:"compress"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
			Users: []UserConfig{
				{Username: "agency", Password: "agency", Role: "agency"},
				{Username: "client", Password: "client", Role: "client"},
			},
		},
		Board: BoardConfig{
			CalendarStart: calendar.Month{Year: 2023, Month: time.October},
			DefaultBrand:  "dconsul",
		},
		Blob: BlobConfig{
			MaxBytes: 10 << 20,
		},
		Activity: ActivityConfig{
			DSN: "file::memory:?cache=shared",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

// Load reads a YAML config file and returns the parsed configuration.
// Environment overrides are applied on top.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to DefaultConfig (plus environment
// overrides) when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = DefaultConfig()
		return cfg, cfg.ApplyEnv()
	}
	return cfg, err
}

// LoadEnv loads variables from dotenv files into the process environment.
// Variables already set are not overwritten. Missing files are ignored.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays POSTBOARD_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv("POSTBOARD_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := os.LookupEnv("POSTBOARD_JWT_SECRET"); ok {
		c.Auth.JWTSecret = v
	}
	if v, ok := os.LookupEnv("POSTBOARD_TOKEN_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("POSTBOARD_TOKEN_TTL: %w", err)
		}
		c.Auth.TokenTTL = d
	}
	if v, ok := os.LookupEnv("POSTBOARD_CALENDAR_START"); ok {
		m, err := calendar.ParseMonth(v)
		if err != nil {
			return fmt.Errorf("POSTBOARD_CALENDAR_START: %w", err)
		}
		c.Board.CalendarStart = m
	}
	if v, ok := os.LookupEnv("POSTBOARD_BLOB_MAX_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("POSTBOARD_BLOB_MAX_BYTES: %w", err)
		}
		c.Blob.MaxBytes = n
	}
	if v, ok := os.LookupEnv("POSTBOARD_ACTIVITY_DSN"); ok {
		c.Activity.DSN = v
	}
	if v, ok := os.LookupEnv("POSTBOARD_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv("POSTBOARD_LOG_FILE"); ok {
		c.Log.File = v
	}
	return nil
}
