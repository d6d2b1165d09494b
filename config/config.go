// Package config defines the taskpad application configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. TASKPAD_STORAGE_DRIVER.
const EnvPrefix = "TASKPAD_"

// Config is the top-level taskpad configuration.
type Config struct {
	LogLevel  string          `json:"log_level" yaml:"log_level" env:"LOG_LEVEL"`
	Storage   StorageConfig   `json:"storage" yaml:"storage" envPrefix:"STORAGE_"`
	Store     StoreConfig     `json:"store" yaml:"store" envPrefix:"STORE_"`
	Generator GeneratorConfig `json:"generator" yaml:"generator" envPrefix:"GENERATOR_"`
}

// StorageConfig selects where tasks live.
type StorageConfig struct {
	// Driver is one of "sqlite", "file" or "memory".
	Driver string `json:"driver" yaml:"driver" env:"DRIVER"`
	// Path is the database file for sqlite and the data directory for file.
	Path string `json:"path" yaml:"path" env:"PATH"`
	// Format is "json" or "yaml" and only applies to the file driver.
	Format string `json:"format,omitempty" yaml:"format" env:"FORMAT"`
}

// StoreConfig tunes the task store.
type StoreConfig struct {
	Latency time.Duration `json:"latency" yaml:"latency" env:"LATENCY"`
}

// GeneratorConfig configures the subtask generator.
type GeneratorConfig struct {
	Provider      string        `json:"provider" yaml:"provider" env:"PROVIDER"` // "mock", "anthropic", "openai"
	Model         string        `json:"model,omitempty" yaml:"model" env:"MODEL"`
	APIKey        string        `json:"-" yaml:"api_key" env:"API_KEY"`
	BaseURL       string        `json:"base_url,omitempty" yaml:"base_url" env:"BASE_URL"`
	Timeout       time.Duration `json:"timeout" yaml:"timeout" env:"TIMEOUT"`
	MockResponses []string      `json:"mock_responses,omitempty" yaml:"mock_responses" env:"MOCK_RESPONSES" envSeparator:"|"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   defaultDataPath("taskpad.db"),
		},
		Store: StoreConfig{
			Latency: 50 * time.Millisecond,
		},
		Generator: GeneratorConfig{
			Provider: "mock",
			Timeout:  30 * time.Second,
		},
	}
}

func defaultDataPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "data", name)
	}
	return filepath.Join(dir, "taskpad", name)
}

// Load reads an optional YAML config file over the defaults and then applies
// TASKPAD_* environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown drivers, formats, providers and log levels.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case "sqlite", "file":
		if c.Storage.Path == "" {
			errs = append(errs, fmt.Errorf("storage.path is required for driver %q", c.Storage.Driver))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q (supported: sqlite, file, memory)", c.Storage.Driver))
	}
	switch c.Storage.Format {
	case "", "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("unknown storage.format %q (supported: json, yaml)", c.Storage.Format))
	}
	if c.Store.Latency < 0 {
		errs = append(errs, errors.New("store.latency must not be negative"))
	}
	switch c.Generator.Provider {
	case "mock", "anthropic", "openai":
	default:
		errs = append(errs, fmt.Errorf("unknown generator.provider %q (supported: mock, anthropic, openai)", c.Generator.Provider))
	}
	if c.Generator.Timeout < 0 {
		errs = append(errs, errors.New("generator.timeout must not be negative"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q: %w", s, err)
	}
	return level, nil
}
