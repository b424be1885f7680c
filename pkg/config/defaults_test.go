package config

import "testing"

func TestApplyDefaults_PopulatesZeroFields(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Storage.Backend != DefaultStorageBackend {
		t.Errorf("expected default storage backend %q, got %q", DefaultStorageBackend, cfg.Storage.Backend)
	}
	if cfg.Storage.MaxOpenConns != DefaultStorageMaxOpenConns {
		t.Errorf("expected default max_open_conns %d, got %d", DefaultStorageMaxOpenConns, cfg.Storage.MaxOpenConns)
	}
	if cfg.Retention.Schedule != DefaultRetentionSchedule {
		t.Errorf("expected default retention schedule %q, got %q", DefaultRetentionSchedule, cfg.Retention.Schedule)
	}
	if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
		t.Errorf("expected default logging level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Metrics.Address != DefaultMetricsAddress {
		t.Errorf("expected default metrics address %q, got %q", DefaultMetricsAddress, cfg.Telemetry.Metrics.Address)
	}
	if cfg.Bundles.Dir != DefaultBundlesDir {
		t.Errorf("expected default bundles dir %q, got %q", DefaultBundlesDir, cfg.Bundles.Dir)
	}
}

func TestApplyDefaults_DoesNotOverrideSetFields(t *testing.T) {
	cfg := Config{Storage: StorageConfig{Backend: "sqlite"}}
	ApplyDefaults(&cfg)

	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("expected explicit backend to survive ApplyDefaults, got %q", cfg.Storage.Backend)
	}
}

func TestApplyDefaults_IsIdempotent(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	firstBackend := cfg.Storage.Backend
	firstDir := cfg.Bundles.Dir
	ApplyDefaults(&cfg)

	if cfg.Storage.Backend != firstBackend || cfg.Bundles.Dir != firstDir {
		t.Fatal("expected ApplyDefaults to be idempotent")
	}
}
