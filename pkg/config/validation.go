package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags plus custom
// rules that cannot be expressed in tags.
//
// Returns an error describing the first validation failure.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if len(cfg.Classes) == 0 {
		return fmt.Errorf("classes: at least one priority class must be configured")
	}

	names := make(map[string]bool)
	for i, class := range cfg.Classes {
		if names[class.Name] {
			return fmt.Errorf("classes[%d]: duplicate class name %q", i, class.Name)
		}
		names[class.Name] = true
	}

	if !names[cfg.Queue.DefaultClass] {
		return fmt.Errorf("queue: default_class %q is not in the classes list", cfg.Queue.DefaultClass)
	}

	if _, err := time.ParseDuration(cfg.Pool.ReplenishInterval); err != nil {
		return fmt.Errorf("pool: invalid replenish_interval: %w", err)
	}
	if _, err := time.ParseDuration(cfg.Queue.PollInterval); err != nil {
		return fmt.Errorf("queue: invalid poll_interval: %w", err)
	}

	if cfg.Pool.Capacity != 0 && cfg.Pool.RatePerSecond <= 0 {
		return fmt.Errorf("pool: a constrained pool needs a positive rate_per_second")
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly
// messages.
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
