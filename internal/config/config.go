// Package config provides client configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (MARKET_MIND_*)
//  2. Config file (~/.market-mind/config.yaml)
//  3. Default values
//
// The client needs very little configuration: where the backend lives,
// how long to wait for it, and how to log. Everything else (theme, caller
// identifier) is runtime state owned by internal/session.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation. Check with errors.Is().
var (
	// ErrInvalidBaseURL indicates the backend base URL is missing or malformed.
	ErrInvalidBaseURL = errors.New("invalid api base url")

	// ErrInvalidTimeout indicates the request timeout is out of range.
	ErrInvalidTimeout = errors.New("invalid request timeout")

	// ErrInvalidLogLevel indicates an unknown log level name.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

const (
	// DefaultBaseURL matches the backend's development address.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeoutSeconds bounds each backend request. Generous because
	// assistant replies are generated on demand.
	DefaultTimeoutSeconds = 15

	// MaxTimeoutSeconds caps the configurable request timeout.
	MaxTimeoutSeconds = 300
)

// configDirName is the per-user configuration/state directory.
const configDirName = ".market-mind"

// Config stores client configuration.
type Config struct {
	// APIBaseURL is the Market Mind backend root.
	APIBaseURL string `mapstructure:"api_base_url"`

	// RequestTimeoutSeconds bounds each backend request.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `mapstructure:"log_level"`

	// LogJSON switches log output to JSON format.
	LogJSON bool `mapstructure:"log_json"`

	// LogFile receives log output while the TUI owns the terminal.
	// Empty means <config dir>/market-mind.log.
	LogFile string `mapstructure:"log_file"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, configDirName)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("MARKET_MIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(configDir, "market-mind.log")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api_base_url", DefaultBaseURL)
	v.SetDefault("request_timeout_seconds", DefaultTimeoutSeconds)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// Validate checks the configuration, failing fast with wrapped sentinel
// errors.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.APIBaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidBaseURL, u.Scheme)
	}

	if c.RequestTimeoutSeconds <= 0 || c.RequestTimeoutSeconds > MaxTimeoutSeconds {
		return fmt.Errorf("%w: %d (must be 1-%d seconds)",
			ErrInvalidTimeout, c.RequestTimeoutSeconds, MaxTimeoutSeconds)
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// RequestTimeout returns the request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// SlogLevel maps the configured level name to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
}
