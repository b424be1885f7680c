// Package audit is the append-only audit trail: actions are hashed on
// insertion, indexed by user/action/day/bundle, and can be grouped into
// audit bundles whose checksum is taken over timestamp-sorted member
// hashes (distinguishing them from evidence chains, which use input order).
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	cerrors "github.com/glassbox-labs/compliance-engine/pkg/compliance/errors"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/hashutil"
)

// Entry is a single audit record.
type Entry struct {
	ID        string                 `json:"id"`
	Action    string                 `json:"action"`
	User      string                 `json:"user"`
	Details   map[string]interface{} `json:"details"`
	Timestamp string                 `json:"timestamp"`
	BundleID  string                 `json:"bundle_id,omitempty"`
	Hash      string                 `json:"hash"`
}

func (e *Entry) copy() *Entry {
	detailsCopy := make(map[string]interface{}, len(e.Details))
	for k, v := range e.Details {
		detailsCopy[k] = v
	}
	cp := *e
	cp.Details = detailsCopy
	return &cp
}

// MetricsRecorder is the narrow interface the audit trail needs to report
// entry creation and verification outcomes; *metrics.Collector satisfies it.
type MetricsRecorder interface {
	RecordAudit(action string)
	RecordVerification(kind, result string)
}

func entryHash(action, user string, details map[string]interface{}, timestamp string) (string, error) {
	canonicalDetails, err := hashutil.HashCanonical(details)
	if err != nil {
		return "", err
	}
	return hashutil.HashString(action + ":" + user + ":" + canonicalDetails + ":" + timestamp), nil
}

// Bundle aggregates audit entries with an integrity checksum computed over
// member hashes in ascending timestamp order.
type Bundle struct {
	BundleID  string   `json:"bundle_id"`
	EntryIDs  []string `json:"entry_ids"`
	BundleHash string  `json:"bundle_hash"`
	Checksum  string   `json:"checksum"`
}

// VerifyResult reports an entry or bundle's integrity check outcome.
type VerifyResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Report is a time-bounded view over the trail with aggregated statistics.
type Report struct {
	Start        string         `json:"start"`
	End          string         `json:"end"`
	EntryCount   int            `json:"entry_count"`
	ByUser       map[string]int `json:"by_user"`
	ByAction     map[string]int `json:"by_action"`
	ByHour       map[string]int `json:"by_hour"`
	ByDay        map[string]int `json:"by_day"`
}

// Trail is the in-memory audit store.
type Trail struct {
	mu          sync.RWMutex
	entries     map[string]*Entry
	bundles     map[string]*Bundle
	byUser      map[string][]string
	byAction    map[string][]string
	byTimestamp map[string][]string
	byBundle    map[string][]string
	logger      *slog.Logger
	metrics     MetricsRecorder
	storage     Storage
}

func NewTrail(logger *slog.Logger) *Trail {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trail{
		entries:     make(map[string]*Entry),
		bundles:     make(map[string]*Bundle),
		byUser:      make(map[string][]string),
		byAction:    make(map[string][]string),
		byTimestamp: make(map[string][]string),
		byBundle:    make(map[string][]string),
		logger:      logger.With("component", "audit.trail"),
	}
}

// SetMetrics attaches a metrics recorder. Nil disables metrics recording.
func (t *Trail) SetMetrics(metrics MetricsRecorder) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics = metrics
}

// SetStorage attaches a durable backing store. Record and Delete write
// through to it; the in-memory indexes remain authoritative for reads.
func (t *Trail) SetStorage(storage Storage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.storage = storage
}

// LoadFromStorage rebuilds the in-memory store and indexes from the
// attached Storage backend, for startup recovery. It is an error to call
// this with no storage attached.
func (t *Trail) LoadFromStorage(ctx context.Context) error {
	t.mu.Lock()
	storage := t.storage
	t.mu.Unlock()
	if storage == nil {
		return cerrors.Audit("LoadFromStorage called with no storage attached", "")
	}

	entries, err := storage.All(ctx)
	if err != nil {
		return cerrors.Storage("failed to load audit entries: "+err.Error(), "audit", "load")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, entry := range entries {
		if _, exists := t.entries[entry.ID]; exists {
			continue
		}
		t.entries[entry.ID] = entry
		t.byUser[entry.User] = append(t.byUser[entry.User], entry.ID)
		t.byAction[entry.Action] = append(t.byAction[entry.Action], entry.ID)
		dateKey := entry.Timestamp
		if ts, err := time.Parse(time.RFC3339, entry.Timestamp); err == nil {
			dateKey = ts.UTC().Format("2006-01-02")
		}
		t.byTimestamp[dateKey] = append(t.byTimestamp[dateKey], entry.ID)
		if entry.BundleID != "" {
			t.byBundle[entry.BundleID] = append(t.byBundle[entry.BundleID], entry.ID)
		}
	}
	return nil
}

// Record appends a new audit entry, stamping a UTC timestamp and computing
// its hash before storing and indexing it.
func (t *Trail) Record(action, user string, details map[string]interface{}, bundleID, id string) (*Entry, error) {
	if action == "" {
		return nil, cerrors.Audit("audit entry requires a non-empty action", id)
	}
	if details == nil {
		details = map[string]interface{}{}
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339)

	hash, err := entryHash(action, user, details, timestamp)
	if err != nil {
		return nil, cerrors.Audit("failed to hash audit entry: "+err.Error(), id)
	}

	if id == "" {
		id = hashutil.HashString(action + "|" + user + "|" + timestamp)
	}

	entry := &Entry{
		ID:        id,
		Action:    action,
		User:      user,
		Details:   details,
		Timestamp: timestamp,
		BundleID:  bundleID,
		Hash:      hash,
	}

	t.mu.Lock()

	if _, exists := t.entries[id]; exists {
		t.mu.Unlock()
		return nil, cerrors.Audit("audit entry id already exists", id)
	}

	t.entries[id] = entry
	t.byUser[user] = append(t.byUser[user], id)
	t.byAction[action] = append(t.byAction[action], id)
	dateKey := now.Format("2006-01-02")
	t.byTimestamp[dateKey] = append(t.byTimestamp[dateKey], id)
	if bundleID != "" {
		t.byBundle[bundleID] = append(t.byBundle[bundleID], id)
	}

	metrics := t.metrics
	storage := t.storage
	t.mu.Unlock()

	if metrics != nil {
		metrics.RecordAudit(action)
	}

	if storage != nil {
		if err := storage.Store(context.Background(), entry.copy()); err != nil {
			t.logger.Warn("audit storage write-through failed", "id", id, "error", err)
		}
	}

	return entry.copy(), nil
}

func (t *Trail) Get(id string) (*Entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.entries[id]
	if !ok {
		return nil, cerrors.Audit("audit entry not found", id)
	}
	return entry.copy(), nil
}

// Delete removes an entry from the primary store and every index. Audit
// trails are append-only in normal operation; this exists for retention
// pruning of entries past their configured retention window, not for
// correcting or retracting recorded actions.
func (t *Trail) Delete(id string) error {
	t.mu.Lock()

	entry, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return cerrors.Audit("audit entry not found", id)
	}

	delete(t.entries, id)
	t.byUser[entry.User] = removeID(t.byUser[entry.User], id)
	t.byAction[entry.Action] = removeID(t.byAction[entry.Action], id)
	if entry.BundleID != "" {
		t.byBundle[entry.BundleID] = removeID(t.byBundle[entry.BundleID], id)
	}

	dateKey := entry.Timestamp
	if ts, err := time.Parse(time.RFC3339, entry.Timestamp); err == nil {
		dateKey = ts.UTC().Format("2006-01-02")
	}
	t.byTimestamp[dateKey] = removeID(t.byTimestamp[dateKey], id)

	storage := t.storage
	t.mu.Unlock()

	if storage != nil {
		if err := storage.Delete(context.Background(), id); err != nil {
			t.logger.Warn("audit storage delete write-through failed", "id", id, "error", err)
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

func (t *Trail) idsToEntries(ids []string) []*Entry {
	out := make([]*Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := t.entries[id]; ok {
			out = append(out, e.copy())
		}
	}
	return out
}

func (t *Trail) ByUser(user string) []*Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.idsToEntries(t.byUser[user])
}

func (t *Trail) ByAction(action string) []*Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.idsToEntries(t.byAction[action])
}

func (t *Trail) ByTimestamp(date string) []*Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.idsToEntries(t.byTimestamp[date])
}

func (t *Trail) ByBundle(bundleID string) []*Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.idsToEntries(t.byBundle[bundleID])
}

// All returns every entry currently held in the trail.
func (t *Trail) All() []*Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.copy())
	}
	return out
}

// Verify recomputes an entry's hash from its stored fields and compares it
// to the stored hash.
func (t *Trail) Verify(id string) (*VerifyResult, error) {
	t.mu.RLock()
	entry, ok := t.entries[id]
	metrics := t.metrics
	t.mu.RUnlock()
	if !ok {
		return nil, cerrors.Audit("audit entry not found", id)
	}

	result := &VerifyResult{Valid: true}
	recomputed, err := entryHash(entry.Action, entry.User, entry.Details, entry.Timestamp)
	switch {
	case err != nil:
		result = &VerifyResult{Valid: false, Reason: "failed to recompute hash: " + err.Error()}
	case recomputed != entry.Hash:
		result = &VerifyResult{Valid: false, Reason: "stored hash does not match recomputed entry hash"}
	}

	if metrics != nil {
		if result.Valid {
			metrics.RecordVerification("audit_entry", "valid")
		} else {
			metrics.RecordVerification("audit_entry", "invalid")
		}
	}
	return result, nil
}

// CreateBundle verifies every member entry, sorts them by ascending
// timestamp (ties broken by the order the entries were recorded in the
// trail), and concatenates their hashes in that order to produce
// bundle_hash/checksum.
func (t *Trail) CreateBundle(entryIDs []string, bundleID string) (*Bundle, error) {
	t.mu.RLock()
	entries := make([]*Entry, 0, len(entryIDs))
	for _, id := range entryIDs {
		entry, ok := t.entries[id]
		if !ok {
			t.mu.RUnlock()
			return nil, cerrors.Audit("audit entry not found", id)
		}
		entries = append(entries, entry)
	}
	t.mu.RUnlock()

	for _, entry := range entries {
		result, err := t.Verify(entry.ID)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			return nil, cerrors.Audit(fmt.Sprintf("member %s failed verification: %s", entry.ID, result.Reason), entry.ID)
		}
	}

	sorted := append([]*Entry(nil), entries...)
	// Each day's by_timestamp index lists its ids in recording order, which
	// decides between entries that share a timestamp.
	t.mu.RLock()
	recorded := make(map[string]int)
	for _, ids := range t.byTimestamp {
		for i, id := range ids {
			recorded[id] = i
		}
	}
	t.mu.RUnlock()
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Timestamp != sorted[j].Timestamp {
			return sorted[i].Timestamp < sorted[j].Timestamp
		}
		return recorded[sorted[i].ID] < recorded[sorted[j].ID]
	})

	hashes := make([]string, len(sorted))
	for i, e := range sorted {
		hashes[i] = e.Hash
	}
	checksum := hashutil.HashConcat(hashes)

	if bundleID == "" {
		bundleID = hashutil.HashString("audit-bundle:" + checksum)
	}

	bundle := &Bundle{
		BundleID:   bundleID,
		EntryIDs:   append([]string(nil), entryIDs...),
		BundleHash: checksum,
		Checksum:   checksum,
	}

	t.mu.Lock()
	t.bundles[bundleID] = bundle
	t.mu.Unlock()

	return bundle, nil
}

// VerifyBundle re-verifies every member and recomputes the timestamp-sorted
// checksum, comparing both bundle_hash and checksum to the stored values.
func (t *Trail) VerifyBundle(bundleID string) (*VerifyResult, error) {
	t.mu.RLock()
	bundle, ok := t.bundles[bundleID]
	metrics := t.metrics
	t.mu.RUnlock()
	if !ok {
		return nil, cerrors.Audit("audit bundle not found", bundleID)
	}

	record := func(result *VerifyResult) *VerifyResult {
		if metrics != nil {
			if result.Valid {
				metrics.RecordVerification("audit_bundle", "valid")
			} else {
				metrics.RecordVerification("audit_bundle", "invalid")
			}
		}
		return result
	}

	recomputed, err := t.CreateBundle(bundle.EntryIDs, "")
	if err != nil {
		return record(&VerifyResult{Valid: false, Reason: err.Error()}), nil
	}
	if recomputed.Checksum != bundle.Checksum || recomputed.BundleHash != bundle.BundleHash {
		return record(&VerifyResult{Valid: false, Reason: "bundle checksum does not match recomputed member hashes"}), nil
	}
	return record(&VerifyResult{Valid: true}), nil
}

// Report builds a time-bounded aggregate view of the trail between start
// and end (inclusive), both ISO-8601 UTC timestamps.
func (t *Trail) Report(start, end string) *Report {
	t.mu.RLock()
	defer t.mu.RUnlock()

	report := &Report{
		Start:    start,
		End:      end,
		ByUser:   map[string]int{},
		ByAction: map[string]int{},
		ByHour:   map[string]int{},
		ByDay:    map[string]int{},
	}

	for _, entry := range t.entries {
		if entry.Timestamp < start || entry.Timestamp > end {
			continue
		}
		report.EntryCount++
		report.ByUser[entry.User]++
		report.ByAction[entry.Action]++

		ts, err := time.Parse(time.RFC3339, entry.Timestamp)
		if err != nil {
			continue
		}
		ts = ts.UTC()
		report.ByHour[ts.Format("2006-01-02T15")]++
		report.ByDay[ts.Format("2006-01-02")]++
	}

	return report
}
