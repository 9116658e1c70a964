// Package config loads and validates the daemon configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (IOQUEUED_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config captures all configurable aspects of the I/O scheduling daemon:
// logging, the capacity pool, the queue, the priority classes, the
// target store backend and the metrics endpoint.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Pool configures the shared capacity pool
	Pool PoolConfig `mapstructure:"pool"`

	// Queue contains per-queue settings
	Queue QueueConfig `mapstructure:"queue"`

	// Classes defines the priority classes requests are grouped by
	Classes []ClassConfig `mapstructure:"classes" validate:"dive"`

	// Store specifies the target store type and type-specific settings
	Store StoreConfig `mapstructure:"store"`

	// Metrics configures the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// PoolConfig configures the shared capacity pool.
type PoolConfig struct {
	// Capacity is the pool's total token capacity; 0 disables
	// throttling entirely
	Capacity uint64 `mapstructure:"capacity"`

	// RatePerSecond is the token replenishment rate
	RatePerSecond float64 `mapstructure:"rate_per_second" validate:"gte=0"`

	// ReplenishInterval is the cadence of the replenishment driver
	ReplenishInterval string `mapstructure:"replenish_interval" validate:"required"`
}

// QueueConfig contains per-queue settings.
type QueueConfig struct {
	// MaxTransferSize is the backend's largest single transfer in
	// bytes; larger requests are split. 0 means unlimited.
	MaxTransferSize int `mapstructure:"max_transfer_size" validate:"gte=0"`

	// PollInterval is the cadence of the dispatch driver
	PollInterval string `mapstructure:"poll_interval" validate:"required"`

	// SubmitRate caps workload submissions per second; 0 means
	// unlimited. The queue itself is depth-unbounded, so this is the
	// caller-side memory bound.
	SubmitRate uint `mapstructure:"submit_rate"`

	// DefaultClass names the class used by callers that do not pick
	// one explicitly. It must appear in the classes list.
	DefaultClass string `mapstructure:"default_class" validate:"required"`
}

// ClassConfig defines one priority class.
type ClassConfig struct {
	// Name identifies the class
	Name string `mapstructure:"name" validate:"required"`

	// Shares is the class's fair-scheduling weight
	Shares uint32 `mapstructure:"shares" validate:"required,gt=0"`
}

// StoreConfig specifies target store configuration.
//
// The Type field determines which backend is used; only the matching
// type-specific section is read.
type StoreConfig struct {
	// Type specifies which store implementation to use
	// Valid values: memory, fs, badger
	Type string `mapstructure:"type" validate:"required,oneof=memory fs badger"`

	// FS contains filesystem-specific configuration
	// Only used when Type = "fs"
	FS FSStoreConfig `mapstructure:"fs"`

	// Badger contains badger-specific configuration
	// Only used when Type = "badger"
	Badger BadgerStoreConfig `mapstructure:"badger"`
}

// FSStoreConfig configures the filesystem store backend.
type FSStoreConfig struct {
	// Path is the directory holding target files
	Path string `mapstructure:"path"`
}

// BadgerStoreConfig configures the badger store backend.
type BadgerStoreConfig struct {
	// Dir is the database directory
	Dir string `mapstructure:"dir"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns metrics collection and the HTTP endpoint on
	Enabled bool `mapstructure:"enabled"`

	// Listen is the address the /metrics endpoint binds to
	Listen string `mapstructure:"listen"`
}

// Load reads, defaults and validates the configuration.
//
// Parameters:
//   - configPath: Path to config file (empty string uses the default
//     location; a missing file is acceptable and yields defaults)
//
// Returns the loaded configuration or a loading/validation error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures environment variable and config file handling.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the IOQUEUED_ prefix and underscores.
	// Example: IOQUEUED_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("IOQUEUED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found is acceptable - use defaults
			return nil
		}
		// A missing explicit file path surfaces as a plain fs error.
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path, following
// XDG_CONFIG_HOME with a ~/.config fallback.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "ioqueued")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "ioqueued")
}
