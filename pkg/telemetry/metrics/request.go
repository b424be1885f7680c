package metrics

import (
	"github.com/glassbox-labs/compliance-engine/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordMetrics tracks evidence and audit record creation.
//
// Metrics:
//   - glassbox_evidence_records_total{type}
//   - glassbox_audit_entries_total{action}
type RecordMetrics struct {
	evidenceTotal *prometheus.CounterVec
	auditTotal    *prometheus.CounterVec
}

// NewRecordMetrics creates and registers evidence/audit record metrics with
// the provided registry.
func NewRecordMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RecordMetrics {
	rm := &RecordMetrics{
		evidenceTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evidence_records_total",
				Help:      "Total number of evidence records created, by type",
			},
			[]string{"type"},
		),

		auditTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_entries_total",
				Help:      "Total number of audit entries recorded, by action",
			},
			[]string{"action"},
		),
	}

	registry.MustRegister(rm.evidenceTotal, rm.auditTotal)

	return rm
}

// RecordEvidence records the creation of one evidence record.
func (rm *RecordMetrics) RecordEvidence(evType string) {
	rm.evidenceTotal.WithLabelValues(evType).Inc()
}

// RecordAudit records the creation of one audit entry.
func (rm *RecordMetrics) RecordAudit(action string) {
	rm.auditTotal.WithLabelValues(action).Inc()
}
