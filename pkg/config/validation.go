package config

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// maxFragmentLength is the largest length a record-marking header can carry.
const maxFragmentLength = 1<<31 - 1

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
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	s := cfg.Stream
	if s.MaxRecordSize < 8 || s.MaxRecordSize > math.MaxUint32 {
		return fmt.Errorf("stream.max_record_size: %s is out of range", s.MaxRecordSize)
	}
	if s.MaxFragmentSize == 0 || s.MaxFragmentSize > maxFragmentLength {
		return fmt.Errorf("stream.max_fragment_size: %s exceeds the 31-bit fragment length", s.MaxFragmentSize)
	}
	if s.ReadSize == 0 {
		return fmt.Errorf("stream.read_size: must be positive")
	}

	if cfg.FileStore.ChunkSize > math.MaxInt32 {
		return fmt.Errorf("filestore.chunk_size: %s is too large", cfg.FileStore.ChunkSize)
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == 0 {
		return fmt.Errorf("metrics.port: required when metrics are enabled")
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
