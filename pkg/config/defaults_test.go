package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output stdout, got %q", cfg.Logging.Output)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Expected default port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Metadata.Type != "memory" {
		t.Errorf("Expected default metadata type memory, got %q", cfg.Metadata.Type)
	}
	if cfg.Content.Type != "filesystem" {
		t.Errorf("Expected default content type filesystem, got %q", cfg.Content.Type)
	}
	if cfg.Tokens.Type != "memory" {
		t.Errorf("Expected default tokens type memory, got %q", cfg.Tokens.Type)
	}
	if cfg.Queue.Type != "memory" {
		t.Errorf("Expected default queue type memory, got %q", cfg.Queue.Type)
	}
}

func TestApplyDefaults_NormalizesLogLevel(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.Level = "debug"
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized log level DEBUG, got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Metadata.Type = "badger"
	cfg.Metadata.Badger = map[string]any{"db_path": "/var/lib/stashfs"}
	ApplyDefaults(cfg)

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected explicit port 8080 to be preserved, got %d", cfg.Server.Port)
	}
	if cfg.Metadata.Type != "badger" {
		t.Errorf("Expected explicit metadata type badger to be preserved, got %q", cfg.Metadata.Type)
	}
	if cfg.Metadata.Badger["db_path"] != "/var/lib/stashfs" {
		t.Errorf("Expected explicit db_path to be preserved, got %v", cfg.Metadata.Badger["db_path"])
	}
}

func TestApplyDefaults_Worker(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if !cfg.Worker.Enabled {
		t.Error("Expected worker enabled by default")
	}
	if cfg.Worker.Concurrency != 2 {
		t.Errorf("Expected default concurrency 2, got %d", cfg.Worker.Concurrency)
	}
	if cfg.Worker.PollInterval != time.Second {
		t.Errorf("Expected default poll interval 1s, got %s", cfg.Worker.PollInterval)
	}
	if cfg.Worker.JobTimeout != 30*time.Second {
		t.Errorf("Expected default job timeout 30s, got %s", cfg.Worker.JobTimeout)
	}
	if cfg.Worker.MaxAttempts != 3 {
		t.Errorf("Expected default max attempts 3, got %d", cfg.Worker.MaxAttempts)
	}
	if cfg.Worker.ResizePerSecond != 0 {
		t.Errorf("Expected unlimited resize rate by default, got %d", cfg.Worker.ResizePerSecond)
	}
}

func TestApplyDefaults_RateLimitBudget(t *testing.T) {
	cfg := &Config{}
	cfg.Server.RateLimit.Enabled = true
	ApplyDefaults(cfg)

	if cfg.Server.RateLimit.RequestsPerMinute != 300 {
		t.Errorf("Expected default rate limit budget 300, got %d", cfg.Server.RateLimit.RequestsPerMinute)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected default config to be valid, got error: %v", err)
	}
}
