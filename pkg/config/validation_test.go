package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	err := Validate(cfg)
	if err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_LowercaseLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "debug"

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected lowercase log level to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.Port = 70000

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for out-of-range port")
	}
}

func TestValidate_InvalidMetadataType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metadata.Type = "postgres"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for unimplemented metadata type")
	}
}

func TestValidate_InvalidContentType(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Content.Type = "invalid"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid content type")
	}
}

func TestValidate_RateLimitWithoutBudget(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.RateLimit.Enabled = true
	cfg.Server.RateLimit.RequestsPerMinute = 0

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for enabled rate limit without a budget")
	}
	if !strings.Contains(err.Error(), "requests_per_minute") {
		t.Errorf("Expected 'requests_per_minute' error, got: %v", err)
	}
}

func TestValidate_WorkerWithoutConcurrency(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Worker.Enabled = true
	cfg.Worker.Concurrency = 0

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for enabled worker without concurrency")
	}
}

func TestValidate_DurableQueueWithEphemeralMetadata(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Queue.Type = "badger"
	cfg.Metadata.Type = "memory"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for badger queue over memory metadata")
	}
	if !strings.Contains(err.Error(), "persistent metadata store") {
		t.Errorf("Expected persistence error, got: %v", err)
	}
}
