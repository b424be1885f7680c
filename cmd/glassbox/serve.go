package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/glassbox-labs/compliance-engine/pkg/cli"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/audit"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/evidence"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/retention"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/storage"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/watcher"
	"github.com/glassbox-labs/compliance-engine/pkg/config"
	"github.com/glassbox-labs/compliance-engine/pkg/telemetry/logging"
	"github.com/glassbox-labs/compliance-engine/pkg/telemetry/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the long-lived compliance service",
	Long: `Start the compliance engine as a background service: load
configuration, open the configured evidence/audit storage backend, expose
Prometheus metrics, run the retention pruner on its schedule, and watch the
bundle directory for hot-reload. Runs until interrupted.

Examples:
  glassbox serve --config config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig()
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	logger, err := logging.New(logging.Config{
		Level:          cfg.Telemetry.Logging.Level,
		Format:         cfg.Telemetry.Logging.Format,
		AddSource:      cfg.Telemetry.Logging.AddSource,
		RedactPII:      cfg.Telemetry.Logging.RedactPII,
		RedactPatterns: cfg.Telemetry.Logging.RedactPatterns,
		BufferSize:     cfg.Telemetry.Logging.BufferSize,
	})
	if err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("init logging: %w", err))
	}
	defer logger.Shutdown()
	slogger := logger.Slog()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, registry)

	evidenceStore, auditStore, closeStores, err := openStores(&cfg.Storage)
	if err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("open storage: %w", err))
	}
	defer closeStores()

	evidenceMgr := evidence.NewManager(slogger)
	evidenceMgr.SetMetrics(collector)
	evidenceMgr.SetStorage(evidenceStore)

	auditTrail := audit.NewTrail(slogger)
	auditTrail.SetMetrics(collector)
	auditTrail.SetStorage(auditStore)

	ctx := cli.SetupSignalHandler()

	if err := evidenceMgr.LoadFromStorage(ctx); err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("load evidence from storage: %w", err))
	}
	if err := auditTrail.LoadFromStorage(ctx); err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("load audit entries from storage: %w", err))
	}

	if cfg.Retention.Enabled {
		pruner := retention.NewPruner(evidenceMgr, auditTrail, retention.Config{
			EvidenceTTL: cfg.Retention.EvidenceTTL,
			AuditTTL:    cfg.Retention.AuditTTL,
			Schedule:    cfg.Retention.Schedule,
		}, slogger)
		scheduler := retention.NewScheduler(pruner)
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("serve", fmt.Errorf("start retention scheduler: %w", err))
		}
	}

	var bundleWatcher *watcher.Watcher
	if cfg.Bundles.Dir != "" {
		bundleWatcher, err = watcher.New(watcher.Config{
			Dir:            cfg.Bundles.Dir,
			ValidateOnLoad: cfg.Bundles.ValidateOnLoad,
		}, slogger)
		if err != nil {
			return cli.NewCommandError("serve", fmt.Errorf("create bundle watcher: %w", err))
		}
		if err := bundleWatcher.Load(); err != nil {
			return cli.NewCommandError("serve", fmt.Errorf("load bundles: %w", err))
		}
		if cfg.Bundles.Watch {
			if err := bundleWatcher.Start(); err != nil {
				return cli.NewCommandError("serve", fmt.Errorf("start bundle watcher: %w", err))
			}
			defer bundleWatcher.Stop()
		}
	}

	var metricsServer *http.Server
	if cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(metricsPath(cfg.Telemetry.Metrics.Path), collector.Handler())
		metricsServer = &http.Server{Addr: cfg.Telemetry.Metrics.Address, Handler: mux}
		go func() {
			slogger.Info("metrics server listening", "address", cfg.Telemetry.Metrics.Address)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slogger.Error("metrics server failed", "error", err)
			}
		}()
	}

	slogger.Info("glassbox serve started")
	<-ctx.Done()
	slogger.Info("shutting down")

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	return nil
}

func loadServeConfig() (*config.Config, error) {
	if cfgFile == "" {
		cfg := &config.Config{}
		config.ApplyDefaults(cfg)
		return cfg, config.Validate(cfg)
	}
	return config.LoadConfig(cfgFile)
}

func metricsPath(path string) string {
	if path == "" {
		return "/metrics"
	}
	return path
}

func openStores(cfg *config.StorageConfig) (evidence.Storage, audit.Storage, func(), error) {
	if cfg.Backend == "sqlite" {
		conn, err := storage.OpenSQLite(&storage.SQLiteConfig{
			Path:         cfg.SQLitePath,
			Driver:       storage.DriverPure,
			MaxOpenConns: cfg.MaxOpenConns,
			BusyTimeout:  cfg.BusyTimeout,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		evidenceStore := storage.NewSQLiteEvidenceStore(conn)
		auditStore := storage.NewSQLiteAuditStore(conn)
		return evidenceStore, auditStore, func() {
			evidenceStore.Close()
			auditStore.Close()
		}, nil
	}

	evidenceStore := storage.NewMemoryEvidenceStore()
	auditStore := storage.NewMemoryAuditStore()
	return evidenceStore, auditStore, func() {
		evidenceStore.Close()
		auditStore.Close()
	}, nil
}
