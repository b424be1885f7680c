package config

import "testing"

func validConfig() Config {
	cfg := Config{
		Storage:   StorageConfig{Backend: "memory"},
		Retention: RetentionConfig{},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{Level: "info", Format: "json"},
			Metrics: MetricsConfig{Enabled: false},
		},
		Bundles: BundlesConfig{Dir: "./bundles"},
	}
	return cfg
}

func TestValidate_AcceptsDefaultedConfig(t *testing.T) {
	cfg := validConfig()
	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		t.Fatalf("expected defaulted config to be valid, got %v", err)
	}
}

func TestValidate_RejectsUnknownStorageBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "redis"
	err := Validate(&cfg)
	if err == nil {
		t.Fatal("expected error for unknown storage backend")
	}
}

func TestValidate_RequiresSQLitePathWhenBackendIsSQLite(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "sqlite"
	cfg.Storage.SQLitePath = ""
	err := Validate(&cfg)
	if err == nil {
		t.Fatal("expected error for missing sqlite_path")
	}
}

func TestValidate_RequiresScheduleWhenRetentionEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Retention.Enabled = true
	cfg.Retention.Schedule = ""
	err := Validate(&cfg)
	if err == nil {
		t.Fatal("expected error for missing retention schedule")
	}
}

func TestValidate_RejectsUnknownLoggingLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Telemetry.Logging.Level = "verbose"
	err := Validate(&cfg)
	if err == nil {
		t.Fatal("expected error for unknown logging level")
	}
}

func TestValidate_RejectsEmptyRedactPattern(t *testing.T) {
	cfg := validConfig()
	cfg.Telemetry.Logging.RedactPatterns = []RedactPattern{{Name: "custom", Pattern: ""}}
	err := Validate(&cfg)
	if err == nil {
		t.Fatal("expected error for empty redact pattern")
	}
}

func TestValidate_RequiresMetricsAddressWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Telemetry.Metrics.Enabled = true
	cfg.Telemetry.Metrics.Address = ""
	err := Validate(&cfg)
	if err == nil {
		t.Fatal("expected error for missing metrics address")
	}
}

func TestValidate_RejectsEmptyBundlesDir(t *testing.T) {
	cfg := validConfig()
	cfg.Bundles.Dir = ""
	err := Validate(&cfg)
	if err == nil {
		t.Fatal("expected error for empty bundles dir")
	}
}

func TestValidate_AggregatesMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "bogus"
	cfg.Telemetry.Logging.Level = "bogus"
	err := Validate(&cfg)
	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) < 2 {
		t.Fatalf("expected at least 2 aggregated errors, got %d", len(verr.Errors))
	}
}
