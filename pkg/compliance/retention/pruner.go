// Package retention enforces age-based TTLs on evidence records and audit
// entries, deleting anything older than its configured max age through the
// owning manager's own Delete method so the manager's indexes never drift
// out of sync with what's actually stored.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glassbox-labs/compliance-engine/pkg/compliance/audit"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/evidence"
)

// EvidenceManager is the narrow surface the pruner needs from
// evidence.Manager.
type EvidenceManager interface {
	All() []*evidence.Record
	Delete(id string) error
}

// AuditManager is the narrow surface the pruner needs from audit.Trail.
type AuditManager interface {
	All() []*audit.Entry
	Delete(id string) error
}

// Config controls how the pruner decides what to delete and when.
type Config struct {
	// EvidenceTTL is how long an evidence record is kept before pruning.
	// Zero disables evidence pruning.
	EvidenceTTL time.Duration

	// AuditTTL is how long an audit entry is kept before pruning. Zero
	// disables audit pruning.
	AuditTTL time.Duration

	// Schedule is a cron expression controlling how often Prune runs under
	// a Scheduler. Unused by Pruner.Prune itself.
	Schedule string
}

// Pruner deletes evidence records and audit entries older than their
// configured TTL.
type Pruner struct {
	evidence EvidenceManager
	audit    AuditManager
	config   Config
	logger   *slog.Logger
}

// NewPruner creates a pruner over the given evidence and audit managers.
// Either may be nil to skip pruning that kind of record.
func NewPruner(evidenceMgr EvidenceManager, auditMgr AuditManager, config Config, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		evidence: evidenceMgr,
		audit:    auditMgr,
		config:   config,
		logger:   logger.With("component", "compliance.retention"),
	}
}

// Prune deletes evidence records and audit entries older than the
// configured TTLs, returning the number of each deleted. A zero TTL skips
// that kind entirely.
func (p *Pruner) Prune(ctx context.Context) (evidenceDeleted, auditDeleted int, err error) {
	if p.config.EvidenceTTL > 0 && p.evidence != nil {
		evidenceDeleted, err = p.pruneEvidence(ctx)
		if err != nil {
			return evidenceDeleted, 0, fmt.Errorf("prune evidence failed: %w", err)
		}
	}

	if p.config.AuditTTL > 0 && p.audit != nil {
		auditDeleted, err = p.pruneAudit(ctx)
		if err != nil {
			return evidenceDeleted, auditDeleted, fmt.Errorf("prune audit failed: %w", err)
		}
	}

	if evidenceDeleted > 0 || auditDeleted > 0 {
		p.logger.Info("retention pruning completed",
			"evidence_deleted", evidenceDeleted, "audit_deleted", auditDeleted)
	} else {
		p.logger.Debug("retention pruning completed, nothing to delete")
	}

	return evidenceDeleted, auditDeleted, nil
}

func (p *Pruner) pruneEvidence(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-p.config.EvidenceTTL)
	deleted := 0
	for _, record := range p.evidence.All() {
		select {
		case <-ctx.Done():
			return deleted, ctx.Err()
		default:
		}
		ts, err := time.Parse(time.RFC3339, record.Timestamp)
		if err != nil || ts.After(cutoff) {
			continue
		}
		if err := p.evidence.Delete(record.ID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (p *Pruner) pruneAudit(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-p.config.AuditTTL)
	deleted := 0
	for _, entry := range p.audit.All() {
		select {
		case <-ctx.Done():
			return deleted, ctx.Err()
		default:
		}
		ts, err := time.Parse(time.RFC3339, entry.Timestamp)
		if err != nil || ts.After(cutoff) {
			continue
		}
		if err := p.audit.Delete(entry.ID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
