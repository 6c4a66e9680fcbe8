package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSyncIntervalMS           = 16
	DefaultReconcileIntervalSeconds = 10
	DefaultLogLevel                 = "info"
)

// LoggingConfig configures daemon logging.
type LoggingConfig struct {
	// Level controls logging verbosity: debug, info, warn, error
	Level string `yaml:"level,omitempty"`
	// File is the log file path; empty logs to stderr
	File string `yaml:"file,omitempty"`
}

// Config holds the daemon configuration.
type Config struct {
	// Display is the X11 display to connect to; empty uses $DISPLAY.
	Display string `yaml:"display,omitempty"`

	// ShellTransitions hands alpha, transform and visibility of appearing
	// fullscreen tasks to the transition pipeline instead of resetting them.
	ShellTransitions bool `yaml:"shell_transitions"`

	// SyncIntervalMS is the length of one sync queue cycle.
	SyncIntervalMS int `yaml:"sync_interval_ms"`

	// ReconcileIntervalSeconds controls orphaned surface checks; 0 disables.
	ReconcileIntervalSeconds int `yaml:"reconcile_interval_seconds"`

	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// ValidationError reports an invalid configuration value.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		ShellTransitions:         false,
		SyncIntervalMS:           DefaultSyncIntervalMS,
		ReconcileIntervalSeconds: DefaultReconcileIntervalSeconds,
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// SyncInterval returns the sync queue cycle length.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMS) * time.Millisecond
}

// ReconcileInterval returns the reconciler period, zero when disabled.
func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

// SlogLevel maps logging.level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.SyncIntervalMS <= 0 {
		return &ValidationError{Path: "sync_interval_ms", Err: fmt.Errorf("must be > 0 (got %d)", c.SyncIntervalMS)}
	}
	if c.SyncIntervalMS > 1000 {
		return &ValidationError{Path: "sync_interval_ms", Err: fmt.Errorf("must be <= 1000 (got %d)", c.SyncIntervalMS)}
	}
	if c.ReconcileIntervalSeconds < 0 {
		return &ValidationError{Path: "reconcile_interval_seconds", Err: fmt.Errorf("must be >= 0 (got %d)", c.ReconcileIntervalSeconds)}
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("must be one of: debug, info, warn, error")}
	}
	return nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo validates and writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
