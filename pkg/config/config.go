package config

import "time"

// Config is the root configuration structure for the compliance engine.
// It covers evidence/audit storage, retention scheduling, telemetry, and
// bundle loading — the ambient concerns that surround rule execution itself.
type Config struct {
	// Storage selects and configures the evidence/audit persistence backend.
	Storage StorageConfig `yaml:"storage"`

	// Retention configures the scheduled pruning of evidence and audit
	// records older than their configured TTL.
	Retention RetentionConfig `yaml:"retention"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Bundles configures where decision bundles are loaded from and
	// whether the directory is watched for hot-reload.
	Bundles BundlesConfig `yaml:"bundles"`
}

// StorageConfig selects the backend used to persist evidence and audit
// records.
type StorageConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path when Backend is "sqlite".
	SQLitePath string `yaml:"sqlite_path"`

	// MaxOpenConns bounds the SQLite connection pool.
	MaxOpenConns int `yaml:"max_open_conns"`

	// BusyTimeout is how long SQLite waits on a locked database before
	// giving up.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig configures the background pruner that enforces evidence
// and audit TTLs.
type RetentionConfig struct {
	// Enabled turns the scheduled pruner on.
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression controlling how often pruning runs.
	Schedule string `yaml:"schedule"`

	// EvidenceTTL is how long evidence records are kept before pruning.
	EvidenceTTL time.Duration `yaml:"evidence_ttl"`

	// AuditTTL is how long audit entries are kept before pruning.
	AuditTTL time.Duration `yaml:"audit_ttl"`
}

// TelemetryConfig groups logging and metrics configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging and PII redaction.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`

	// AddSource includes the calling file:line in each log record.
	AddSource bool `yaml:"add_source"`

	// RedactPII enables pattern-based redaction of sensitive values.
	RedactPII bool `yaml:"redact_pii"`

	// RedactPatterns adds custom redaction patterns beyond the built-in set.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`

	// BufferSize is the capacity of the logger's entries channel; ApplyDefaults
	// replaces 0 with its default. The logger writes every record
	// synchronously, whatever this value is.
	BufferSize int `yaml:"buffer_size"`
}

// RedactPattern names an additional pattern the logger's Redactor should
// scrub from log output.
type RedactPattern struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
}

// BundlesConfig configures where decision bundles are discovered.
type BundlesConfig struct {
	// Dir is the directory scanned for bundle files.
	Dir string `yaml:"dir"`

	// Watch enables fsnotify-based hot-reload of Dir.
	Watch bool `yaml:"watch"`

	// ValidateOnLoad sets how the watcher reports a bundle file that fails
	// to load: at warn level when true, at debug level when false. Such a
	// file is skipped either way.
	ValidateOnLoad bool `yaml:"validate_on_load"`
}
