package storage

import (
	"context"
	"sync"

	"github.com/glassbox-labs/compliance-engine/pkg/compliance/audit"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/evidence"
)

// MemoryEvidenceStore implements evidence.Storage with a guarded map. This
// is the default backend (config.StorageConfig.Backend == "memory") and is
// also what a SQLite-backed deployment falls back to in tests.
type MemoryEvidenceStore struct {
	mu      sync.RWMutex
	records map[string]*evidence.Record
}

func NewMemoryEvidenceStore() *MemoryEvidenceStore {
	return &MemoryEvidenceStore{records: make(map[string]*evidence.Record)}
}

func (s *MemoryEvidenceStore) Store(_ context.Context, record *evidence.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

func (s *MemoryEvidenceStore) Get(_ context.Context, id string) (*evidence.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return record, nil
}

func (s *MemoryEvidenceStore) All(_ context.Context) ([]*evidence.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*evidence.Record, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	return out, nil
}

func (s *MemoryEvidenceStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *MemoryEvidenceStore) Close() error { return nil }

// MemoryAuditStore implements audit.Storage with a guarded map.
type MemoryAuditStore struct {
	mu      sync.RWMutex
	entries map[string]*audit.Entry
}

func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{entries: make(map[string]*audit.Entry)}
}

func (s *MemoryAuditStore) Store(_ context.Context, entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry
	return nil
}

func (s *MemoryAuditStore) Get(_ context.Context, id string) (*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	return entry, nil
}

func (s *MemoryAuditStore) All(_ context.Context) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*audit.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry)
	}
	return out, nil
}

func (s *MemoryAuditStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *MemoryAuditStore) Close() error { return nil }
