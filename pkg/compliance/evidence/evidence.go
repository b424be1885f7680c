// Package evidence is the content-addressed evidence store: records are
// hashed on insertion, indexed by type/source/day, and can be re-verified
// or chained into an aggregate checksum on demand.
package evidence

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cerrors "github.com/glassbox-labs/compliance-engine/pkg/compliance/errors"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/hashutil"
)

var validTypes = map[string]bool{
	"log": true, "document": true, "metric": true,
	"user_input": true, "system_event": true,
}

// MetricsRecorder is the narrow interface the evidence store needs to report
// record creation and verification outcomes; *metrics.Collector satisfies it.
type MetricsRecorder interface {
	RecordEvidence(evType string)
	RecordVerification(kind, result string)
}

// Record is a single piece of hashed evidence.
type Record struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Content   map[string]interface{} `json:"content"`
	Timestamp string                 `json:"timestamp"`
	Source    string                 `json:"source"`
	Hash      string                 `json:"hash"`
}

func (r *Record) copy() *Record {
	contentCopy := make(map[string]interface{}, len(r.Content))
	for k, v := range r.Content {
		contentCopy[k] = v
	}
	cp := *r
	cp.Content = contentCopy
	return &cp
}

// Chain is an ordered, verified group of evidence records with an aggregate
// hash over their member hashes in input order.
type Chain struct {
	ChainID   string   `json:"chain_id"`
	ChainHash string   `json:"chain_hash"`
	RecordIDs []string `json:"record_ids"`
}

// VerifyResult reports whether a record's stored hash still matches its
// recomputed content hash.
type VerifyResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Manager is the in-memory evidence store. All mutation goes through its
// methods so the primary store and its indexes never drift apart (I3).
type Manager struct {
	mu          sync.RWMutex
	records     map[string]*Record
	byType      map[string][]string
	bySource    map[string][]string
	byTimestamp map[string][]string // date key YYYY-MM-DD
	logger      *slog.Logger
	metrics     MetricsRecorder
	storage     Storage
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		records:     make(map[string]*Record),
		byType:      make(map[string][]string),
		bySource:    make(map[string][]string),
		byTimestamp: make(map[string][]string),
		logger:      logger.With("component", "evidence.manager"),
	}
}

// SetMetrics attaches a metrics recorder. Nil disables metrics recording.
func (m *Manager) SetMetrics(metrics MetricsRecorder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = metrics
}

// SetStorage attaches a durable backing store. CreateEvidence and Delete
// write through to it; the in-memory indexes remain authoritative for reads.
func (m *Manager) SetStorage(storage Storage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storage = storage
}

// LoadFromStorage rebuilds the in-memory store and indexes from the
// attached Storage backend, for startup recovery. It is an error to call
// this with no storage attached.
func (m *Manager) LoadFromStorage(ctx context.Context) error {
	m.mu.Lock()
	storage := m.storage
	m.mu.Unlock()
	if storage == nil {
		return cerrors.Evidence("LoadFromStorage called with no storage attached", "")
	}

	records, err := storage.All(ctx)
	if err != nil {
		return cerrors.Storage("failed to load evidence records: "+err.Error(), "evidence", "load")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range records {
		if _, exists := m.records[record.ID]; exists {
			continue
		}
		m.records[record.ID] = record
		m.byType[record.Type] = append(m.byType[record.Type], record.ID)
		m.bySource[record.Source] = append(m.bySource[record.Source], record.ID)
		dateKey := record.Timestamp
		if t, err := time.Parse(time.RFC3339, record.Timestamp); err == nil {
			dateKey = t.UTC().Format("2006-01-02")
		}
		m.byTimestamp[dateKey] = append(m.byTimestamp[dateKey], record.ID)
	}
	return nil
}

// CreateEvidence validates type, rejects empty content, stamps a UTC
// timestamp, computes the content hash, and stores and indexes the record.
func (m *Manager) CreateEvidence(evType string, content map[string]interface{}, source, id string) (*Record, error) {
	if !validTypes[evType] {
		return nil, cerrors.Evidence(fmt.Sprintf("unknown evidence type %q", evType), id)
	}
	if len(content) == 0 {
		return nil, cerrors.Evidence("evidence content must not be empty", id)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339)

	if id == "" {
		id = hashutil.HashString(evType + "|" + source + "|" + now.Format(time.RFC3339Nano))
	}

	hash, err := hashutil.HashCanonical(content)
	if err != nil {
		return nil, cerrors.Evidence("failed to hash evidence content: "+err.Error(), id)
	}

	record := &Record{
		ID:        id,
		Type:      evType,
		Content:   content,
		Timestamp: timestamp,
		Source:    source,
		Hash:      hash,
	}

	m.mu.Lock()

	if _, exists := m.records[id]; exists {
		m.mu.Unlock()
		return nil, cerrors.Evidence("evidence id already exists", id)
	}

	m.records[id] = record
	m.byType[evType] = append(m.byType[evType], id)
	m.bySource[source] = append(m.bySource[source], id)
	dateKey := now.Format("2006-01-02")
	m.byTimestamp[dateKey] = append(m.byTimestamp[dateKey], id)

	metrics := m.metrics
	storage := m.storage
	m.mu.Unlock()

	if metrics != nil {
		metrics.RecordEvidence(evType)
	}

	if storage != nil {
		if err := storage.Store(context.Background(), record.copy()); err != nil {
			m.logger.Warn("evidence storage write-through failed", "id", id, "error", err)
		}
	}

	return record.copy(), nil
}

// Get returns a defensive copy of a stored record.
func (m *Manager) Get(id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[id]
	if !ok {
		return nil, cerrors.Evidence("evidence record not found", id)
	}
	return record.copy(), nil
}

func (m *Manager) idsToRecords(ids []string) []*Record {
	out := make([]*Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := m.records[id]; ok {
			out = append(out, r.copy())
		}
	}
	return out
}

// ByType returns defensive copies of every record of the given type.
func (m *Manager) ByType(evType string) []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idsToRecords(m.byType[evType])
}

// BySource returns defensive copies of every record from the given source.
func (m *Manager) BySource(source string) []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idsToRecords(m.bySource[source])
}

// ByTimestamp returns defensive copies of every record created on the given
// YYYY-MM-DD UTC date.
func (m *Manager) ByTimestamp(date string) []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idsToRecords(m.byTimestamp[date])
}

// Verify re-canonicalizes a record's stored content and compares the
// recomputed hash to the stored hash.
func (m *Manager) Verify(id string) (*VerifyResult, error) {
	m.mu.RLock()
	record, ok := m.records[id]
	metrics := m.metrics
	m.mu.RUnlock()
	if !ok {
		return nil, cerrors.Evidence("evidence record not found", id)
	}

	result := &VerifyResult{Valid: true}
	recomputed, err := hashutil.HashCanonical(record.Content)
	switch {
	case err != nil:
		result = &VerifyResult{Valid: false, Reason: "failed to recompute hash: " + err.Error()}
	case recomputed != record.Hash:
		result = &VerifyResult{Valid: false, Reason: "Hashes do not match"}
	}

	if metrics != nil {
		if result.Valid {
			metrics.RecordVerification("evidence", "valid")
		} else {
			metrics.RecordVerification("evidence", "invalid")
		}
	}
	return result, nil
}

// VerifyChain re-verifies every member of a chain and reports the first
// integrity failure encountered, if any.
func (m *Manager) VerifyChain(chain *Chain) (*VerifyResult, error) {
	m.mu.RLock()
	metrics := m.metrics
	m.mu.RUnlock()

	recordResult := func(result *VerifyResult) *VerifyResult {
		if metrics != nil {
			if result.Valid {
				metrics.RecordVerification("evidence_chain", "valid")
			} else {
				metrics.RecordVerification("evidence_chain", "invalid")
			}
		}
		return result
	}

	for _, id := range chain.RecordIDs {
		result, err := m.Verify(id)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			return recordResult(&VerifyResult{Valid: false, Reason: fmt.Sprintf("member %s failed verification: %s", id, result.Reason)}), nil
		}
	}
	recomputed, err := m.computeChainHash(chain.RecordIDs)
	if err != nil {
		return nil, err
	}
	if recomputed != chain.ChainHash {
		return recordResult(&VerifyResult{Valid: false, Reason: "chain hash does not match recomputed member hashes"}), nil
	}
	return recordResult(&VerifyResult{Valid: true}), nil
}

func (m *Manager) computeChainHash(ids []string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hashes := make([]string, 0, len(ids))
	for _, id := range ids {
		record, ok := m.records[id]
		if !ok {
			return "", cerrors.Evidence("evidence record not found", id)
		}
		hashes = append(hashes, record.Hash)
	}
	return hashutil.HashConcat(hashes), nil
}

// CreateChain verifies every member id, concatenates their hashes in input
// order, and produces the chain's aggregate hash and derived id.
func (m *Manager) CreateChain(ids []string) (*Chain, error) {
	for _, id := range ids {
		result, err := m.Verify(id)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			return nil, cerrors.Evidence(fmt.Sprintf("member %s failed verification: %s", id, result.Reason), id)
		}
	}
	chainHash, err := m.computeChainHash(ids)
	if err != nil {
		return nil, err
	}
	return &Chain{
		ChainID:   hashutil.HashString("chain:" + chainHash),
		ChainHash: chainHash,
		RecordIDs: append([]string(nil), ids...),
	}, nil
}

// Delete removes a record from the primary store and every index atomically
// with respect to external observers (held under the write lock).
func (m *Manager) Delete(id string) error {
	m.mu.Lock()

	record, ok := m.records[id]
	if !ok {
		m.mu.Unlock()
		return cerrors.Evidence("evidence record not found", id)
	}

	delete(m.records, id)
	m.byType[record.Type] = removeID(m.byType[record.Type], id)
	m.bySource[record.Source] = removeID(m.bySource[record.Source], id)

	dateKey := record.Timestamp
	if t, err := time.Parse(time.RFC3339, record.Timestamp); err == nil {
		dateKey = t.UTC().Format("2006-01-02")
	}
	m.byTimestamp[dateKey] = removeID(m.byTimestamp[dateKey], id)

	storage := m.storage
	m.mu.Unlock()

	if storage != nil {
		if err := storage.Delete(context.Background(), id); err != nil {
			m.logger.Warn("evidence storage delete write-through failed", "id", id, "error", err)
		}
	}

	return nil
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// All returns defensive copies of every stored record, used by export.
func (m *Manager) All() []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.copy())
	}
	return out
}

func (m *Manager) ResolveIDs(ids []string) []*Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idsToRecords(ids)
}
