package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeConfigFile writes a YAML config file into a temp dir and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Point the default search path at an empty directory so a developer's
	// real config cannot leak into the test.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected defaults to load without a config file, got error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Expected default port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Metadata.Type != "memory" {
		t.Errorf("Expected default metadata type memory, got %q", cfg.Metadata.Type)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
server:
  port: 8080
  shutdown_timeout: 10s
metadata:
  type: badger
  badger:
    db_path: /var/lib/stashfs
queue:
  type: badger
  badger:
    db_path: /var/lib/stashfs
worker:
  enabled: true
  concurrency: 4
  poll_interval: 500ms
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized log level DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected shutdown timeout 10s, got %s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Metadata.Type != "badger" {
		t.Errorf("Expected metadata type badger, got %q", cfg.Metadata.Type)
	}
	if cfg.Metadata.Badger["db_path"] != "/var/lib/stashfs" {
		t.Errorf("Expected db_path /var/lib/stashfs, got %v", cfg.Metadata.Badger["db_path"])
	}
	if cfg.Worker.Concurrency != 4 {
		t.Errorf("Expected worker concurrency 4, got %d", cfg.Worker.Concurrency)
	}
	if cfg.Worker.PollInterval != 500*time.Millisecond {
		t.Errorf("Expected poll interval 500ms, got %s", cfg.Worker.PollInterval)
	}
}

func TestLoad_InvalidConfigFails(t *testing.T) {
	path := writeConfigFile(t, `
metadata:
  type: postgres
`)

	if _, err := Load(path); err == nil {
		t.Fatal("Expected validation error for unsupported metadata type")
	}
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	path := writeConfigFile(t, "server: [not: valid")

	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for malformed YAML")
	}
}
