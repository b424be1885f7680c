package metrics

import (
	"github.com/glassbox-labs/compliance-engine/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics tracks the rule engine's MD5-keyed memoization cache.
//
// Metrics:
//   - glassbox_rule_cache_hits_total
//   - glassbox_rule_cache_misses_total
//   - glassbox_rule_cache_entries
type CacheMetrics struct {
	hitsTotal   prometheus.Counter
	missesTotal prometheus.Counter
	entries     prometheus.Gauge
}

// NewCacheMetrics creates and registers rule cache metrics with the provided registry.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_cache_hits_total",
			Help:      "Total number of rule engine cache hits",
		}),
		missesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_cache_misses_total",
			Help:      "Total number of rule engine cache misses",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rule_cache_entries",
			Help:      "Current number of entries in the rule engine cache",
		}),
	}

	registry.MustRegister(cm.hitsTotal, cm.missesTotal, cm.entries)

	return cm
}

// RecordHit records a rule engine cache hit.
func (cm *CacheMetrics) RecordHit() {
	cm.hitsTotal.Inc()
}

// RecordMiss records a rule engine cache miss.
func (cm *CacheMetrics) RecordMiss() {
	cm.missesTotal.Inc()
}

// UpdateSize updates the current size of the rule engine cache.
func (cm *CacheMetrics) UpdateSize(size int) {
	cm.entries.Set(float64(size))
}
