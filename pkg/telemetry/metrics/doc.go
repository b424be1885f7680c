// Package metrics provides Prometheus metrics collection for the compliance
// engine.
//
// # Overview
//
// The metrics package instruments rule execution, the rule engine's
// memoization cache, evidence/audit record creation, and integrity
// verification outcomes.
//
// # Metrics
//
//   - glassbox_rules_executed_total{result}
//   - glassbox_rule_execution_duration_seconds{rule_id}
//   - glassbox_rule_cache_hits_total / glassbox_rule_cache_misses_total
//   - glassbox_rule_cache_entries
//   - glassbox_evidence_records_total{type}
//   - glassbox_audit_entries_total{action}
//   - glassbox_verification_total{kind,result}
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	collector.RecordRuleExecution("gdpr-consent-check", "pass", 1200*time.Microsecond)
//	collector.RecordCacheHit()
//	collector.RecordEvidence("log")
//	collector.RecordAudit("decision_executed")
//	collector.RecordVerification("evidence_chain", "valid")
//
// # Prometheus Endpoint
//
// All metrics are exposed in standard Prometheus text format:
//
//	# HELP glassbox_rules_executed_total Total number of rules executed, by result
//	# TYPE glassbox_rules_executed_total counter
//	glassbox_rules_executed_total{result="pass"} 42
package metrics
