package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the evidence tables.
const Schema = `
CREATE TABLE IF NOT EXISTS evidence (
    id TEXT PRIMARY KEY,
    call_id TEXT NOT NULL,

    tool TEXT NOT NULL,
    client TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    invalid_fields TEXT NOT NULL DEFAULT '[]',
    replayed BOOLEAN NOT NULL DEFAULT 0,

    args_hash TEXT NOT NULL DEFAULT '',
    args TEXT,

    error TEXT,

    duration_ns INTEGER NOT NULL,
    called_at_ns INTEGER NOT NULL,
    recorded_at_ns INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evidence_called_at ON evidence(called_at_ns);
CREATE INDEX IF NOT EXISTS idx_evidence_tool ON evidence(tool);
CREATE INDEX IF NOT EXISTS idx_evidence_status ON evidence(status);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion reads the newest schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const columns = `id, call_id, tool, client, status, invalid_fields, replayed, args_hash, args, error,
	duration_ns, called_at_ns, recorded_at_ns`
