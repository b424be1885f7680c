package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers driver "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // registers driver "sqlite" (pure Go)

	"github.com/glassbox-labs/compliance-engine/pkg/compliance/audit"
	cerrors "github.com/glassbox-labs/compliance-engine/pkg/compliance/errors"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/evidence"
)

// Driver selects which registered database/sql driver backs a SQLiteConfig.
type Driver string

const (
	// DriverPure uses modernc.org/sqlite, a cgo-free driver. This is the
	// default: it cross-compiles cleanly and needs no C toolchain.
	DriverPure Driver = "sqlite"

	// DriverCGO uses github.com/mattn/go-sqlite3, for deployments that
	// already require cgo and want the more battle-tested driver.
	DriverCGO Driver = "sqlite3"
)

// SQLiteConfig configures the shared connection both SQLite stores use.
type SQLiteConfig struct {
	Path         string
	Driver       Driver
	MaxOpenConns int
	BusyTimeout  time.Duration
}

func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/glassbox.db",
		Driver:       DriverPure,
		MaxOpenConns: 10,
		BusyTimeout:  5 * time.Second,
	}
}

// sqliteConn is the shared database handle both SQLiteEvidenceStore and
// SQLiteAuditStore hold a pointer to, so the connection is only opened and
// only closed once despite there being two Storage implementations over it.
type sqliteConn struct {
	db        *sql.DB
	closeOnce sync.Once
	closeErr  error
}

func (c *sqliteConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.db.Close()
	})
	return c.closeErr
}

// OpenSQLite opens (or creates) the database at cfg.Path, applies the
// shared evidence/audit schema, and returns the connection both
// NewSQLiteEvidenceStore and NewSQLiteAuditStore wrap.
func OpenSQLite(cfg *SQLiteConfig) (*sqliteConn, error) {
	if cfg == nil {
		cfg = DefaultSQLiteConfig()
	}
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPure
	}

	db, err := sql.Open(string(driver), cfg.Path)
	if err != nil {
		return nil, cerrors.Storage(err.Error(), string(driver), "open")
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	busyTimeoutMs := cfg.BusyTimeout.Milliseconds()
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		db.Close()
		return nil, cerrors.Storage(err.Error(), string(driver), "set_busy_timeout")
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, cerrors.Storage(err.Error(), string(driver), "enable_wal")
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, cerrors.Storage(err.Error(), string(driver), "create_schema")
	}
	if _, err := db.Exec(insertSchemaVersion, SchemaVersion); err != nil {
		db.Close()
		return nil, cerrors.Storage(err.Error(), string(driver), "insert_schema_version")
	}

	var version int
	if err := db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		db.Close()
		return nil, cerrors.Storage(err.Error(), string(driver), "get_schema_version")
	}
	if version != SchemaVersion {
		db.Close()
		return nil, cerrors.Storage(
			fmt.Sprintf("expected schema version %d, got %d", SchemaVersion, version),
			string(driver), "schema_version_mismatch")
	}

	slog.Default().With("component", "storage.sqlite").Debug(
		"sqlite storage initialized", "path", cfg.Path, "driver", string(driver))

	return &sqliteConn{db: db}, nil
}

// SQLiteEvidenceStore implements evidence.Storage over a shared sqliteConn.
type SQLiteEvidenceStore struct {
	conn *sqliteConn
}

func NewSQLiteEvidenceStore(conn *sqliteConn) *SQLiteEvidenceStore {
	return &SQLiteEvidenceStore{conn: conn}
}

func (s *SQLiteEvidenceStore) Store(ctx context.Context, record *evidence.Record) error {
	content, err := json.Marshal(record.Content)
	if err != nil {
		return cerrors.Storage(err.Error(), "sqlite", "marshal_content")
	}
	_, err = s.conn.db.ExecContext(ctx, `
		INSERT INTO evidence (id, type, content, timestamp, source, hash)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type=excluded.type, content=excluded.content,
			timestamp=excluded.timestamp, source=excluded.source, hash=excluded.hash
	`, record.ID, record.Type, string(content), record.Timestamp, record.Source, record.Hash)
	if err != nil {
		return cerrors.Storage(err.Error(), "sqlite", "store")
	}
	return nil
}

func (s *SQLiteEvidenceStore) Get(ctx context.Context, id string) (*evidence.Record, error) {
	row := s.conn.db.QueryRowContext(ctx,
		`SELECT id, type, content, timestamp, source, hash FROM evidence WHERE id = ?`, id)
	record, err := scanEvidenceRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, cerrors.Storage(err.Error(), "sqlite", "get")
	}
	return record, nil
}

func (s *SQLiteEvidenceStore) All(ctx context.Context) ([]*evidence.Record, error) {
	rows, err := s.conn.db.QueryContext(ctx,
		`SELECT id, type, content, timestamp, source, hash FROM evidence`)
	if err != nil {
		return nil, cerrors.Storage(err.Error(), "sqlite", "query")
	}
	defer rows.Close()

	var out []*evidence.Record
	for rows.Next() {
		record, err := scanEvidenceRow(rows.Scan)
		if err != nil {
			return nil, cerrors.Storage(err.Error(), "sqlite", "scan")
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *SQLiteEvidenceStore) Delete(ctx context.Context, id string) error {
	if _, err := s.conn.db.ExecContext(ctx, `DELETE FROM evidence WHERE id = ?`, id); err != nil {
		return cerrors.Storage(err.Error(), "sqlite", "delete")
	}
	return nil
}

func (s *SQLiteEvidenceStore) Close() error { return s.conn.Close() }

func scanEvidenceRow(scan func(...interface{}) error) (*evidence.Record, error) {
	var record evidence.Record
	var content string
	if err := scan(&record.ID, &record.Type, &content, &record.Timestamp, &record.Source, &record.Hash); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(content), &record.Content); err != nil {
		return nil, err
	}
	return &record, nil
}

// SQLiteAuditStore implements audit.Storage over a shared sqliteConn.
type SQLiteAuditStore struct {
	conn *sqliteConn
}

func NewSQLiteAuditStore(conn *sqliteConn) *SQLiteAuditStore {
	return &SQLiteAuditStore{conn: conn}
}

func (s *SQLiteAuditStore) Store(ctx context.Context, entry *audit.Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return cerrors.Storage(err.Error(), "sqlite", "marshal_details")
	}
	var bundleID interface{}
	if entry.BundleID != "" {
		bundleID = entry.BundleID
	}
	_, err = s.conn.db.ExecContext(ctx, `
		INSERT INTO audit_entries (id, action, user, details, timestamp, bundle_id, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			action=excluded.action, user=excluded.user, details=excluded.details,
			timestamp=excluded.timestamp, bundle_id=excluded.bundle_id, hash=excluded.hash
	`, entry.ID, entry.Action, entry.User, string(details), entry.Timestamp, bundleID, entry.Hash)
	if err != nil {
		return cerrors.Storage(err.Error(), "sqlite", "store")
	}
	return nil
}

func (s *SQLiteAuditStore) Get(ctx context.Context, id string) (*audit.Entry, error) {
	row := s.conn.db.QueryRowContext(ctx,
		`SELECT id, action, user, details, timestamp, bundle_id, hash FROM audit_entries WHERE id = ?`, id)
	entry, err := scanAuditRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, cerrors.Storage(err.Error(), "sqlite", "get")
	}
	return entry, nil
}

func (s *SQLiteAuditStore) All(ctx context.Context) ([]*audit.Entry, error) {
	rows, err := s.conn.db.QueryContext(ctx,
		`SELECT id, action, user, details, timestamp, bundle_id, hash FROM audit_entries`)
	if err != nil {
		return nil, cerrors.Storage(err.Error(), "sqlite", "query")
	}
	defer rows.Close()

	var out []*audit.Entry
	for rows.Next() {
		entry, err := scanAuditRow(rows.Scan)
		if err != nil {
			return nil, cerrors.Storage(err.Error(), "sqlite", "scan")
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *SQLiteAuditStore) Delete(ctx context.Context, id string) error {
	if _, err := s.conn.db.ExecContext(ctx, `DELETE FROM audit_entries WHERE id = ?`, id); err != nil {
		return cerrors.Storage(err.Error(), "sqlite", "delete")
	}
	return nil
}

func (s *SQLiteAuditStore) Close() error { return s.conn.Close() }

func scanAuditRow(scan func(...interface{}) error) (*audit.Entry, error) {
	var entry audit.Entry
	var details string
	var bundleID sql.NullString
	if err := scan(&entry.ID, &entry.Action, &entry.User, &details, &entry.Timestamp, &bundleID, &entry.Hash); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(details), &entry.Details); err != nil {
		return nil, err
	}
	if bundleID.Valid {
		entry.BundleID = bundleID.String
	}
	return &entry, nil
}
