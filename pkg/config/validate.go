package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every field error found while validating a Config.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks cfg and returns a ValidationError aggregating every
// problem found, or nil if cfg is valid.
func Validate(cfg *Config) error {
	var errs []FieldError
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateRetention(&cfg.Retention)...)
	errs = append(errs, validateLogging(&cfg.Telemetry.Logging)...)
	errs = append(errs, validateMetrics(&cfg.Telemetry.Metrics)...)
	errs = append(errs, validateBundles(&cfg.Bundles)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError
	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{"storage.backend", fmt.Sprintf("must be 'memory' or 'sqlite', got %q", cfg.Backend)})
	}
	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{"storage.sqlite_path", "required when backend is 'sqlite'"})
	}
	if cfg.MaxOpenConns < 0 {
		errs = append(errs, FieldError{"storage.max_open_conns", "must not be negative"})
	}
	return errs
}

func validateRetention(cfg *RetentionConfig) []FieldError {
	var errs []FieldError
	if cfg.Enabled && cfg.Schedule == "" {
		errs = append(errs, FieldError{"retention.schedule", "required when retention is enabled"})
	}
	if cfg.EvidenceTTL < 0 {
		errs = append(errs, FieldError{"retention.evidence_ttl", "must not be negative"})
	}
	if cfg.AuditTTL < 0 {
		errs = append(errs, FieldError{"retention.audit_ttl", "must not be negative"})
	}
	return errs
}

func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level", fmt.Sprintf("unknown level %q", cfg.Level)})
	}
	switch cfg.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format", fmt.Sprintf("unknown format %q", cfg.Format)})
	}
	if cfg.BufferSize < 0 {
		errs = append(errs, FieldError{"telemetry.logging.buffer_size", "must not be negative"})
	}
	for i, p := range cfg.RedactPatterns {
		if p.Pattern == "" {
			errs = append(errs, FieldError{fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i), "must not be empty"})
		}
	}
	return errs
}

func validateMetrics(cfg *MetricsConfig) []FieldError {
	var errs []FieldError
	if cfg.Enabled && cfg.Address == "" {
		errs = append(errs, FieldError{"telemetry.metrics.address", "required when metrics are enabled"})
	}
	return errs
}

func validateBundles(cfg *BundlesConfig) []FieldError {
	var errs []FieldError
	if cfg.Dir == "" {
		errs = append(errs, FieldError{"bundles.dir", "must not be empty"})
	}
	return errs
}
