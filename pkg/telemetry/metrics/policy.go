package metrics

import (
	"time"

	"github.com/glassbox-labs/compliance-engine/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RuleMetrics tracks metrics related to rule execution.
//
// Metrics:
//   - glassbox_rules_executed_total{result}
//   - glassbox_rule_execution_duration_seconds
type RuleMetrics struct {
	executedTotal     *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
}

// NewRuleMetrics creates and registers rule execution metrics with the provided registry.
func NewRuleMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RuleMetrics {
	rm := &RuleMetrics{
		executedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rules_executed_total",
				Help:      "Total number of rules executed, by result",
			},
			[]string{"result"},
		),

		executionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rule_execution_duration_seconds",
				Help:      "Duration of a single rule evaluation in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 2, 15),
			},
			[]string{"rule_id"},
		),
	}

	registry.MustRegister(rm.executedTotal, rm.executionDuration)

	return rm
}

// RecordExecution records one rule evaluation outcome.
//
// result is "pass", "fail", or "error".
func (rm *RuleMetrics) RecordExecution(ruleID, result string, duration time.Duration) {
	rm.executedTotal.WithLabelValues(result).Inc()
	rm.executionDuration.WithLabelValues(ruleID).Observe(duration.Seconds())
}
