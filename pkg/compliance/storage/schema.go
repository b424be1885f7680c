package storage

// SchemaVersion is the current SQLite schema version for both the
// evidence and audit tables.
const SchemaVersion = 1

// Schema creates the evidence and audit tables plus their lookup indexes.
// Content/Details are stored as JSON text rather than normalized columns,
// since the record shapes are caller-defined maps, not a fixed set of
// fields the way the teacher's LLM-proxy evidence schema was.
const Schema = `
CREATE TABLE IF NOT EXISTS evidence (
	id        TEXT PRIMARY KEY,
	type      TEXT NOT NULL,
	content   TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	source    TEXT NOT NULL,
	hash      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evidence_type ON evidence(type);
CREATE INDEX IF NOT EXISTS idx_evidence_source ON evidence(source);
CREATE INDEX IF NOT EXISTS idx_evidence_timestamp ON evidence(timestamp);

CREATE TABLE IF NOT EXISTS audit_entries (
	id        TEXT PRIMARY KEY,
	action    TEXT NOT NULL,
	user      TEXT NOT NULL,
	details   TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	bundle_id TEXT,
	hash      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_user ON audit_entries(user);
CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_entries(action);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_entries(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_bundle ON audit_entries(bundle_id);

CREATE TABLE IF NOT EXISTS schema_version (
	version    INTEGER PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL
);
`

const insertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

const getSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
