package retention_test

import (
	"context"
	"testing"
	"time"

	"github.com/glassbox-labs/compliance-engine/pkg/compliance/audit"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/evidence"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/retention"
)

// fixtures are seeded through a fake Storage backend and loaded via
// LoadFromStorage, since CreateEvidence/Record always stamp the current
// time and the public API offers no other way to seed an aged record.

type fakeEvidenceStore struct{ records map[string]*evidence.Record }

func newFakeEvidenceStore() *fakeEvidenceStore { return &fakeEvidenceStore{records: map[string]*evidence.Record{}} }
func (s *fakeEvidenceStore) put(r *evidence.Record)                                    { s.records[r.ID] = r }
func (s *fakeEvidenceStore) Store(_ context.Context, r *evidence.Record) error         { s.records[r.ID] = r; return nil }
func (s *fakeEvidenceStore) Get(_ context.Context, id string) (*evidence.Record, error) { return s.records[id], nil }
func (s *fakeEvidenceStore) All(_ context.Context) ([]*evidence.Record, error) {
	out := make([]*evidence.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out, nil
}
func (s *fakeEvidenceStore) Delete(_ context.Context, id string) error { delete(s.records, id); return nil }
func (s *fakeEvidenceStore) Close() error                              { return nil }

type fakeAuditStore struct{ entries map[string]*audit.Entry }

func newFakeAuditStore() *fakeAuditStore { return &fakeAuditStore{entries: map[string]*audit.Entry{}} }
func (s *fakeAuditStore) put(e *audit.Entry)                                  { s.entries[e.ID] = e }
func (s *fakeAuditStore) Store(_ context.Context, e *audit.Entry) error       { s.entries[e.ID] = e; return nil }
func (s *fakeAuditStore) Get(_ context.Context, id string) (*audit.Entry, error) { return s.entries[id], nil }
func (s *fakeAuditStore) All(_ context.Context) ([]*audit.Entry, error) {
	out := make([]*audit.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, nil
}
func (s *fakeAuditStore) Delete(_ context.Context, id string) error { delete(s.entries, id); return nil }
func (s *fakeAuditStore) Close() error                              { return nil }

func ageStamp(d time.Duration) string {
	return time.Now().Add(-d).UTC().Format(time.RFC3339)
}

func TestPruner_PruneOldEvidence(t *testing.T) {
	store := newFakeEvidenceStore()
	store.put(&evidence.Record{ID: "old-1", Type: "log", Timestamp: ageStamp(10 * 24 * time.Hour), Hash: "h1"})
	store.put(&evidence.Record{ID: "old-2", Type: "log", Timestamp: ageStamp(8 * 24 * time.Hour), Hash: "h2"})
	store.put(&evidence.Record{ID: "recent-1", Type: "log", Timestamp: ageStamp(3 * 24 * time.Hour), Hash: "h3"})

	mgr := evidence.NewManager(nil)
	mgr.SetStorage(store)
	if err := mgr.LoadFromStorage(context.Background()); err != nil {
		t.Fatalf("LoadFromStorage failed: %v", err)
	}

	pruner := retention.NewPruner(mgr, nil, retention.Config{EvidenceTTL: 7 * 24 * time.Hour}, nil)
	evDeleted, auDeleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if evDeleted != 2 {
		t.Fatalf("expected 2 evidence records deleted, got %d", evDeleted)
	}
	if auDeleted != 0 {
		t.Fatalf("expected 0 audit entries deleted, got %d", auDeleted)
	}
	if len(mgr.All()) != 1 {
		t.Fatalf("expected 1 remaining record, got %d", len(mgr.All()))
	}
	if len(store.records) != 1 {
		t.Fatalf("expected pruning to write through to storage, got %d records left", len(store.records))
	}
}

func TestPruner_PruneOldAudit(t *testing.T) {
	store := newFakeAuditStore()
	store.put(&audit.Entry{ID: "a-old", Action: "login", User: "alice", Timestamp: ageStamp(400 * 24 * time.Hour), Hash: "h1"})
	store.put(&audit.Entry{ID: "a-recent", Action: "login", User: "alice", Timestamp: ageStamp(1 * time.Hour), Hash: "h2"})

	tr := audit.NewTrail(nil)
	tr.SetStorage(store)
	if err := tr.LoadFromStorage(context.Background()); err != nil {
		t.Fatalf("LoadFromStorage failed: %v", err)
	}

	pruner := retention.NewPruner(nil, tr, retention.Config{AuditTTL: 365 * 24 * time.Hour}, nil)
	evDeleted, auDeleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if evDeleted != 0 {
		t.Fatalf("expected 0 evidence records deleted, got %d", evDeleted)
	}
	if auDeleted != 1 {
		t.Fatalf("expected 1 audit entry deleted, got %d", auDeleted)
	}
	if len(tr.All()) != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", len(tr.All()))
	}
}

func TestPruner_ZeroTTLSkipsPruning(t *testing.T) {
	store := newFakeEvidenceStore()
	store.put(&evidence.Record{ID: "old", Type: "log", Timestamp: ageStamp(999 * 24 * time.Hour), Hash: "h"})

	mgr := evidence.NewManager(nil)
	mgr.SetStorage(store)
	if err := mgr.LoadFromStorage(context.Background()); err != nil {
		t.Fatalf("LoadFromStorage failed: %v", err)
	}

	pruner := retention.NewPruner(mgr, nil, retention.Config{}, nil)
	evDeleted, _, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if evDeleted != 0 {
		t.Fatalf("expected no deletions with zero TTL, got %d", evDeleted)
	}
}

func TestPruner_NilManagersAreNoOp(t *testing.T) {
	pruner := retention.NewPruner(nil, nil, retention.Config{EvidenceTTL: time.Hour, AuditTTL: time.Hour}, nil)
	evDeleted, auDeleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if evDeleted != 0 || auDeleted != 0 {
		t.Fatalf("expected no deletions with nil managers, got ev=%d au=%d", evDeleted, auDeleted)
	}
}
