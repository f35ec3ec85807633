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
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	// Run struct tag validation
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	// Custom validation rules that can't be expressed in tags
	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// The badger store needs a path to persist to (unless running in-memory,
	// which is a test-only mode)
	if cfg.Metadata.Type == "badger" {
		path, _ := cfg.Metadata.Badger["path"].(string)
		inMemory, _ := cfg.Metadata.Badger["in_memory"].(bool)
		if path == "" && !inMemory {
			return fmt.Errorf("metadata.badger: path is required")
		}
	}

	// The S3 store needs a bucket and region up front; the factory cannot
	// guess either
	if cfg.Blob.Type == "s3" {
		if bucket, _ := cfg.Blob.S3["bucket"].(string); bucket == "" {
			return fmt.Errorf("blob.s3: bucket is required")
		}
		if region, _ := cfg.Blob.S3["region"].(string); region == "" {
			return fmt.Errorf("blob.s3: region is required")
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
