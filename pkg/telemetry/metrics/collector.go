package metrics

import (
	"time"

	"github.com/glassbox-labs/compliance-engine/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// namespace is the fixed Prometheus metric namespace for the compliance
// engine; every metric name is "glassbox_<name>".
const namespace = "glassbox"

// Collector is the orchestrator for all Prometheus metrics exposed by the
// compliance engine. It wraps one Prometheus registry and exposes a typed
// recording method per instrumented subsystem.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	rules        *RuleMetrics
	records      *RecordMetrics
	cache        *CacheMetrics
	verification *VerificationMetrics
}

// NewCollector creates a metrics collector and registers every metric
// family against registry. If registry is nil, a fresh Prometheus registry
// is used.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	return &Collector{
		config:       cfg,
		registry:     registry,
		rules:        NewRuleMetrics(cfg, registry),
		records:      NewRecordMetrics(cfg, registry),
		cache:        NewCacheMetrics(cfg, registry),
		verification: NewVerificationMetrics(cfg, registry),
	}
}

// RecordRuleExecution records one rule evaluation outcome. result is
// "pass", "fail", or "error".
func (c *Collector) RecordRuleExecution(ruleID, result string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.rules.RecordExecution(ruleID, result, duration)
}

// RecordCacheHit records a rule engine cache hit.
func (c *Collector) RecordCacheHit() {
	if !c.config.Enabled {
		return
	}
	c.cache.RecordHit()
}

// RecordCacheMiss records a rule engine cache miss.
func (c *Collector) RecordCacheMiss() {
	if !c.config.Enabled {
		return
	}
	c.cache.RecordMiss()
}

// UpdateCacheSize updates the rule engine cache size gauge.
func (c *Collector) UpdateCacheSize(size int) {
	if !c.config.Enabled {
		return
	}
	c.cache.UpdateSize(size)
}

// RecordEvidence records the creation of one evidence record.
func (c *Collector) RecordEvidence(evType string) {
	if !c.config.Enabled {
		return
	}
	c.records.RecordEvidence(evType)
}

// RecordAudit records the creation of one audit entry.
func (c *Collector) RecordAudit(action string) {
	if !c.config.Enabled {
		return
	}
	c.records.RecordAudit(action)
}

// RecordVerification records one integrity verification outcome.
func (c *Collector) RecordVerification(kind, result string) {
	if !c.config.Enabled {
		return
	}
	c.verification.Record(kind, result)
}

// Registry returns the Prometheus registry backing this collector, for
// mounting an HTTP handler or scraping directly in tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
