package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for rules that cannot
// be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateCustomRules(cfg)
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if cfg.Server.RateLimit.Enabled && cfg.Server.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("server.rate_limit: requests_per_minute must be positive when rate limiting is enabled")
	}

	if cfg.Worker.Enabled {
		if cfg.Worker.Concurrency <= 0 {
			return fmt.Errorf("worker: concurrency must be positive when the worker is enabled")
		}
		if cfg.Worker.MaxAttempts <= 0 {
			return fmt.Errorf("worker: max_attempts must be positive when the worker is enabled")
		}
	}

	// A durable queue feeding an enabled worker must not pair with an
	// ephemeral metadata store: a queued job would outlive the records it
	// points at.
	if cfg.Queue.Type == "badger" && cfg.Metadata.Type == "memory" {
		return fmt.Errorf("queue: badger queue requires a persistent metadata store")
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
