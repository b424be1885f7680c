package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glassbox-labs/compliance-engine/pkg/compliance/audit"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/evidence"
)

func openTestDB(t *testing.T) *sqliteConn {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := OpenSQLite(&SQLiteConfig{
		Path:         path,
		Driver:       DriverPure,
		MaxOpenConns: 1,
		BusyTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSQLiteEvidenceStore_StoreGetAllDelete(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	s := NewSQLiteEvidenceStore(conn)

	record := &evidence.Record{
		ID: "ev-1", Type: "log",
		Content:   map[string]interface{}{"message": "consent recorded"},
		Timestamp: "2024-01-01T00:00:00Z", Source: "kyc-service", Hash: "deadbeef",
	}
	if err := s.Store(ctx, record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Get(ctx, "ev-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Hash != "deadbeef" {
		t.Fatalf("expected round-tripped record, got %+v", got)
	}
	if got.Content["message"] != "consent recorded" {
		t.Fatalf("expected content to round-trip through JSON, got %+v", got.Content)
	}

	all, err := s.All(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("expected 1 record, got %d err=%v", len(all), err)
	}

	if err := s.Delete(ctx, "ev-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err = s.Get(ctx, "ev-1")
	if err != nil || got != nil {
		t.Fatalf("expected record to be gone, got %+v err=%v", got, err)
	}
}

func TestSQLiteEvidenceStore_StoreUpsertsOnConflict(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	s := NewSQLiteEvidenceStore(conn)

	record := &evidence.Record{ID: "ev-1", Type: "log", Content: map[string]interface{}{"v": 1.0}, Timestamp: "t1", Source: "svc", Hash: "h1"}
	if err := s.Store(ctx, record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	record.Hash = "h2"
	if err := s.Store(ctx, record); err != nil {
		t.Fatalf("unexpected error on upsert: %v", err)
	}

	got, err := s.Get(ctx, "ev-1")
	if err != nil || got.Hash != "h2" {
		t.Fatalf("expected upserted hash h2, got %+v err=%v", got, err)
	}
}

func TestSQLiteAuditStore_StoreGetAllDelete(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	s := NewSQLiteAuditStore(conn)

	entry := &audit.Entry{
		ID: "a-1", Action: "decision_executed", User: "alice",
		Details: map[string]interface{}{"rule": "gdpr-1"}, Timestamp: "2024-01-01T00:00:00Z",
		BundleID: "bundle-1", Hash: "cafebabe",
	}
	if err := s.Store(ctx, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Get(ctx, "a-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.BundleID != "bundle-1" {
		t.Fatalf("expected round-tripped entry, got %+v", got)
	}

	all, err := s.All(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("expected 1 entry, got %d err=%v", len(all), err)
	}

	if err := s.Delete(ctx, "a-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err = s.Get(ctx, "a-1")
	if err != nil || got != nil {
		t.Fatalf("expected entry to be gone, got %+v err=%v", got, err)
	}
}

func TestSQLiteAuditStore_EmptyBundleIDRoundTrips(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	s := NewSQLiteAuditStore(conn)

	entry := &audit.Entry{ID: "a-2", Action: "login", User: "bob", Details: map[string]interface{}{}, Timestamp: "2024-01-01T00:00:00Z", Hash: "h"}
	if err := s.Store(ctx, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Get(ctx, "a-2")
	if err != nil || got.BundleID != "" {
		t.Fatalf("expected empty bundle id, got %+v err=%v", got, err)
	}
}

func TestSharedSQLiteConn_CloseIsIdempotentAcrossBothStores(t *testing.T) {
	conn := openTestDB(t)
	evStore := NewSQLiteEvidenceStore(conn)
	auditStore := NewSQLiteAuditStore(conn)

	if err := evStore.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := auditStore.Close(); err != nil {
		t.Fatalf("expected second Close through shared conn to be a no-op, got: %v", err)
	}
}
