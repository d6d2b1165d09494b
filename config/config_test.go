package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskpad.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q, want sqlite", cfg.Storage.Driver)
	}
	if cfg.Store.Latency != 50*time.Millisecond {
		t.Errorf("Store.Latency = %v, want 50ms", cfg.Store.Latency)
	}
	if cfg.Generator.Provider != "mock" {
		t.Errorf("Generator.Provider = %q, want mock", cfg.Generator.Provider)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_YAMLOverDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
storage:
  driver: file
  path: /tmp/taskpad-data
  format: yaml
store:
  latency: 0s
generator:
  provider: openai
  model: gpt-test
  timeout: 5s
  mock_responses:
    - '{"subtasks": ["a"]}'
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.Storage.Driver != "file" || cfg.Storage.Path != "/tmp/taskpad-data" || cfg.Storage.Format != "yaml" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Store.Latency != 0 {
		t.Errorf("Store.Latency = %v, want 0", cfg.Store.Latency)
	}
	if cfg.Generator.Provider != "openai" || cfg.Generator.Model != "gpt-test" {
		t.Errorf("Generator = %+v", cfg.Generator)
	}
	if cfg.Generator.Timeout != 5*time.Second {
		t.Errorf("Generator.Timeout = %v, want 5s", cfg.Generator.Timeout)
	}
	if len(cfg.Generator.MockResponses) != 1 {
		t.Errorf("MockResponses = %q", cfg.Generator.MockResponses)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "storage:\n  driver: sqlite\n  path: /tmp/a.db\n")
	t.Setenv("TASKPAD_STORAGE_DRIVER", "memory")
	t.Setenv("TASKPAD_STORE_LATENCY", "5ms")
	t.Setenv("TASKPAD_GENERATOR_API_KEY", "sk-env")
	t.Setenv("TASKPAD_GENERATOR_MOCK_RESPONSES", `["a"]|["b"]`)
	t.Setenv("TASKPAD_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("Storage.Driver = %q, want memory", cfg.Storage.Driver)
	}
	if cfg.Storage.Path != "/tmp/a.db" {
		t.Errorf("Storage.Path = %q, want file value kept", cfg.Storage.Path)
	}
	if cfg.Store.Latency != 5*time.Millisecond {
		t.Errorf("Store.Latency = %v, want 5ms", cfg.Store.Latency)
	}
	if cfg.Generator.APIKey != "sk-env" {
		t.Errorf("Generator.APIKey = %q", cfg.Generator.APIKey)
	}
	if want := []string{`["a"]`, `["b"]`}; !slices.Equal(cfg.Generator.MockResponses, want) {
		t.Errorf("MockResponses = %q, want %q", cfg.Generator.MockResponses, want)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("TASKPAD_STORAGE_DRIVER", "memory")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("Storage.Driver = %q, want memory", cfg.Storage.Driver)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "storage: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "postgres" }, "storage.driver"},
		{"missing path", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"memory without path", func(c *Config) { c.Storage.Driver = "memory"; c.Storage.Path = "" }, ""},
		{"unknown format", func(c *Config) { c.Storage.Format = "toml" }, "storage.format"},
		{"negative latency", func(c *Config) { c.Store.Latency = -time.Second }, "store.latency"},
		{"unknown provider", func(c *Config) { c.Generator.Provider = "copilot" }, "generator.provider"},
		{"negative timeout", func(c *Config) { c.Generator.Timeout = -1 }, "generator.timeout"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error = %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
