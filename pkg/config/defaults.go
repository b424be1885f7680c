package config

import "time"

// Default values for configuration fields.
const (
	DefaultStorageBackend      = "memory"
	DefaultStorageSQLitePath   = "data/compliance.db"
	DefaultStorageMaxOpenConns = 10
	DefaultStorageBusyTimeout  = 5 * time.Second

	DefaultRetentionEnabled  = false
	DefaultRetentionSchedule = "0 3 * * *"
	DefaultEvidenceTTL       = 90 * 24 * time.Hour
	DefaultAuditTTL          = 365 * 24 * time.Hour

	DefaultLoggingLevel      = "info"
	DefaultLoggingFormat     = "json"
	DefaultLoggingBufferSize = 1000

	DefaultMetricsEnabled = true
	DefaultMetricsAddress = "127.0.0.1:9090"
	DefaultMetricsPath    = "/metrics"

	DefaultBundlesDir            = "./bundles"
	DefaultBundlesValidateOnLoad = true
)

// ApplyDefaults sets zero-valued fields on cfg to their defaults. It is
// idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = DefaultStorageSQLitePath
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = DefaultStorageMaxOpenConns
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultStorageBusyTimeout
	}

	if cfg.Retention.Schedule == "" {
		cfg.Retention.Schedule = DefaultRetentionSchedule
	}
	if cfg.Retention.EvidenceTTL == 0 {
		cfg.Retention.EvidenceTTL = DefaultEvidenceTTL
	}
	if cfg.Retention.AuditTTL == 0 {
		cfg.Retention.AuditTTL = DefaultAuditTTL
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Logging.BufferSize == 0 {
		cfg.Telemetry.Logging.BufferSize = DefaultLoggingBufferSize
	}

	if cfg.Telemetry.Metrics.Address == "" {
		cfg.Telemetry.Metrics.Address = DefaultMetricsAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}

	if cfg.Bundles.Dir == "" {
		cfg.Bundles.Dir = DefaultBundlesDir
	}
}
