// Package config provides configuration management for the Set Point application.
package config

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// weightSumTolerance bounds floating point drift when checking that the
// factor weights sum to 1.0.
const weightSumTolerance = 1e-6

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Register custom validation functions
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	// Additional cross-field validations
	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	env := fl.Field().String()
	switch env {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	level := fl.Field().String()
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	// Factor weights must sum to exactly 1.0 so factor contributions stay
	// comparable across matches
	if sum := cfg.Analysis.Weights.Sum(); math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("analysis weights must sum to 1.0, got %.6f", sum)
	}

	// Probability bounds must be ordered
	if cfg.Probability.MinMatchProb >= cfg.Probability.MaxMatchProb {
		return fmt.Errorf("min_match_prob must be below max_match_prob")
	}
	if cfg.Probability.MatchProbFloor >= cfg.Probability.MatchProbCeil {
		return fmt.Errorf("match_prob_floor must be below match_prob_ceil")
	}
	if cfg.Probability.BO3Floor >= cfg.Probability.BO3Ceil {
		return fmt.Errorf("bo3_floor must be below bo3_ceil")
	}
	if cfg.Probability.BO5Floor >= cfg.Probability.BO5Ceil {
		return fmt.Errorf("bo5_floor must be below bo5_ceil")
	}
	if cfg.Probability.HardCeiling > cfg.Probability.MatchProbCeil {
		return fmt.Errorf("hard_ceiling cannot exceed match_prob_ceil")
	}

	// The crowd skip threshold sits above the warn threshold
	if cfg.Risk.CrowdDisagreementSkip < cfg.Risk.CrowdDisagreementWarn {
		return fmt.Errorf("crowd_disagreement_skip cannot be below crowd_disagreement_warn")
	}

	// Persistence requires connection details
	if cfg.Database.Enabled {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database host, name and user are required when database is enabled")
		}
	}

	// Scheduled runs need at least one cron expression
	if cfg.Scheduler.Enabled && len(cfg.Scheduler.RunCrons) == 0 {
		return fmt.Errorf("scheduler requires at least one cron expression")
	}

	// Injury checking needs a source URL
	if cfg.Injury.Enabled && cfg.Injury.URL == "" {
		return fmt.Errorf("injury URL is required when injury checking is enabled")
	}

	// Validate production environment requirements
	if cfg.IsProduction() && cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}
