// Package config handles configuration loading and validation for diskmesh.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/diskmesh/diskmesh/internal/disk"
	"github.com/diskmesh/diskmesh/internal/session"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// StorageConfig holds disk and drive sizing.
type StorageConfig struct {
	CapacityT0 int `yaml:"capacity_t0"`
	CapacityT1 int `yaml:"capacity_t1"`
	CapacityT2 int `yaml:"capacity_t2"`
	BayCount   int `yaml:"bay_count"`
}

// Capacities returns the tier capacities.
func (s StorageConfig) Capacities() disk.Capacities {
	return disk.Capacities{T0: s.CapacityT0, T1: s.CapacityT1, T2: s.CapacityT2}
}

// ReaderConfig holds the reader grid size.
type ReaderConfig struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

// StateConfig selects where the world is persisted.
type StateConfig struct {
	Backend string `yaml:"backend"` // "file" or "badger"
	Path    string `yaml:"path"`    // Directory (default: ~/.diskmesh/state)
}

// Config is the diskmesh configuration file.
type Config struct {
	LogLevel   string              `yaml:"log_level"`
	Storage    StorageConfig       `yaml:"storage"`
	Reader     ReaderConfig        `yaml:"reader"`
	Categories map[string][]string `yaml:"categories"`
	State      StateConfig         `yaml:"state"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a YAML file. Unset fields take their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	caps := disk.DefaultCapacities()
	if c.Storage.CapacityT0 == 0 {
		c.Storage.CapacityT0 = caps.T0
	}
	if c.Storage.CapacityT1 == 0 {
		c.Storage.CapacityT1 = caps.T1
	}
	if c.Storage.CapacityT2 == 0 {
		c.Storage.CapacityT2 = caps.T2
	}
	if c.Storage.BayCount == 0 {
		c.Storage.BayCount = disk.DefaultBayCount
	}
	if c.Reader.Rows == 0 {
		c.Reader.Rows = session.DefaultRows
	}
	if c.Reader.Cols == 0 {
		c.Reader.Cols = session.DefaultCols
	}
	if c.Categories == nil {
		c.Categories = session.DefaultCategories()
	}
	if c.State.Backend == "" {
		c.State.Backend = "file"
	}
	if c.State.Path == "" {
		c.State.Path = "~/.diskmesh/state"
	}
	// Expand home directory in state path
	if strings.HasPrefix(c.State.Path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			c.State.Path = filepath.Join(homeDir, c.State.Path[2:])
		}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Storage.CapacityT0 <= 0 || c.Storage.CapacityT1 <= 0 || c.Storage.CapacityT2 <= 0 {
		return fmt.Errorf("%w: storage capacities must be positive", ErrInvalidConfig)
	}
	if c.Storage.BayCount <= 0 {
		return fmt.Errorf("%w: storage.bay_count must be positive", ErrInvalidConfig)
	}
	if c.Reader.Rows <= 0 || c.Reader.Cols <= 0 {
		return fmt.Errorf("%w: reader.rows and reader.cols must be positive", ErrInvalidConfig)
	}
	switch c.State.Backend {
	case "file", "badger":
	default:
		return fmt.Errorf("%w: unknown state.backend %q", ErrInvalidConfig, c.State.Backend)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Level returns the configured log level, falling back to info.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// SessionCategories returns the reader categories.
func (c *Config) SessionCategories() session.Categories {
	return session.Categories(c.Categories)
}
