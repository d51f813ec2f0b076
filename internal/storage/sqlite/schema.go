// ABOUTME: SQLite database schema for document and snapshot storage
// ABOUTME: Creates tables and indexes for the local document library
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Source documents added to the library
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    source_name TEXT NOT NULL,
    full_text TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Byte ranges of each extracted page
CREATE TABLE IF NOT EXISTS document_pages (
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    page_number INTEGER NOT NULL,
    start_offset INTEGER NOT NULL,
    end_offset INTEGER NOT NULL,
    PRIMARY KEY (document_id, page_number)
);

-- Persisted index generations
CREATE TABLE IF NOT EXISTS snapshots (
    version INTEGER PRIMARY KEY,
    dimension INTEGER NOT NULL,
    chunk_count INTEGER NOT NULL,
    built_at DATETIME NOT NULL
);

-- Embedded chunks belonging to a snapshot, in build order
CREATE TABLE IF NOT EXISTS snapshot_chunks (
    version INTEGER NOT NULL REFERENCES snapshots(version) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    chunk_id TEXT NOT NULL,
    document_id TEXT NOT NULL,
    source_name TEXT,
    text TEXT NOT NULL,
    start_offset INTEGER NOT NULL,
    end_offset INTEGER NOT NULL,
    page_number INTEGER DEFAULT 0,
    vector BLOB NOT NULL,
    PRIMARY KEY (version, seq)
);

CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source_name);
CREATE INDEX IF NOT EXISTS idx_snapshot_chunks_document ON snapshot_chunks(document_id);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
