// Package telemetry groups the glassbox compliance engine's observability
// subpackages.
//
// # Components
//
//   - logging: structured slog-based logging with PII redaction
//   - metrics: Prometheus counters and histograms for rule, evidence, and
//     audit activity
//
// Each subpackage is used independently by the components that need it
// (pkg/compliance/ruleengine, pkg/compliance/evidence, pkg/compliance/audit)
// rather than through a single aggregate entry point.
package telemetry
