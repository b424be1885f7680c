package metrics

import (
	"github.com/glassbox-labs/compliance-engine/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// VerificationMetrics tracks evidence/audit integrity verification outcomes.
//
// Metrics:
//   - glassbox_verification_total{kind,result}
type VerificationMetrics struct {
	total *prometheus.CounterVec
}

// NewVerificationMetrics creates and registers verification metrics with the
// provided registry.
func NewVerificationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *VerificationMetrics {
	vm := &VerificationMetrics{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verification_total",
				Help:      "Total number of integrity verifications, by kind and result",
			},
			[]string{"kind", "result"},
		),
	}

	registry.MustRegister(vm.total)

	return vm
}

// Record records one verification outcome.
//
// kind is "evidence", "evidence_chain", "audit_entry", or "audit_bundle".
// result is "valid" or "invalid".
func (vm *VerificationMetrics) Record(kind, result string) {
	vm.total.WithLabelValues(kind, result).Inc()
}
