// Package config provides configuration file support for adstate.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the config file looked up under the data directory.
const ConfigFileName = "config.yaml"

// Config represents the adstate configuration.
type Config struct {
	// Storage selects the persistence backend: "file" or "sqlite".
	Storage    string        `yaml:"storage"`
	SQLitePath string        `yaml:"sqlite_path"`
	Diff       DiffConfig    `yaml:"diff"`
	Retry      RetryConfig   `yaml:"retry"`
	Logging    LoggingConfig `yaml:"logging"`
	Context    ContextConfig `yaml:"context"`
}

// DiffConfig sets the noise thresholds for monetary comparisons.
type DiffConfig struct {
	// MinDeltaMicros suppresses money deltas below this absolute value.
	MinDeltaMicros int64 `yaml:"min_delta_micros"`
	// MinDeltaPercent suppresses money deltas below this share of the
	// previous value (0 disables the relative check).
	MinDeltaPercent float64 `yaml:"min_delta_percent"`
}

// RetryConfig bounds the automatic retry on store write conflicts.
type RetryConfig struct {
	Attempts uint          `yaml:"attempts"`
	Backoff  time.Duration `yaml:"backoff"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, console
}

// ContextConfig configures the changelog context rendered for the
// downstream report generator.
type ContextConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Storage:    "file",
		SQLitePath: "adstate.db",
		Diff: DiffConfig{
			// One cent: matches the upstream tool's floating point guard.
			MinDeltaMicros:  10_000,
			MinDeltaPercent: 0,
		},
		Retry: RetryConfig{
			Attempts: 5,
			Backoff:  50 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Context: ContextConfig{
			MaxEntries: 30,
		},
	}
}

// Load loads configuration from <dataDir>/config.yaml.
// Returns default config if the file doesn't exist.
func Load(dataDir string) (*Config, error) {
	cfg := Default()
	cfgPath := filepath.Join(dataDir, ConfigFileName)

	data, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		return cfg, nil // No config file is OK, use defaults
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to <dataDir>/config.yaml.
func Save(dataDir string, cfg *Config) error {
	cfgPath := filepath.Join(dataDir, ConfigFileName)

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(cfgPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
