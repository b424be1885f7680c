package audit_test

import (
	"context"
	"testing"

	"github.com/glassbox-labs/compliance-engine/pkg/compliance/audit"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/storage"
)

func TestTrail_SetStorage_WriteThroughAndReload(t *testing.T) {
	store := storage.NewMemoryAuditStore()
	tr := audit.NewTrail(nil)
	tr.SetStorage(store)

	entry, err := tr.Record("login", "alice", nil, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := store.Get(context.Background(), entry.ID)
	if err != nil || stored == nil {
		t.Fatalf("expected entry to be written through to storage, got %+v err=%v", stored, err)
	}

	fresh := audit.NewTrail(nil)
	fresh.SetStorage(store)
	if err := fresh.LoadFromStorage(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := fresh.Get(entry.ID)
	if err != nil || got.Hash != entry.Hash {
		t.Fatalf("expected reloaded entry to match, got %+v err=%v", got, err)
	}
	if len(fresh.ByUser("alice")) != 1 {
		t.Fatalf("expected ByUser index to be rebuilt from storage")
	}
}

func TestTrail_Delete_WriteThroughRemovesFromStorage(t *testing.T) {
	store := storage.NewMemoryAuditStore()
	tr := audit.NewTrail(nil)
	tr.SetStorage(store)

	entry, _ := tr.Record("login", "bob", nil, "", "")
	if err := tr.Delete(entry.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(context.Background(), entry.ID)
	if err != nil || got != nil {
		t.Fatalf("expected storage entry to be deleted, got %+v err=%v", got, err)
	}
}
