// ABOUTME: SQLite database schema for the vector index
// ABOUTME: Collections record their embedding model and dimension; chunks hold vectors as BLOBs
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- One row per logical collection, versioned by embedding model
CREATE TABLE IF NOT EXISTS collections (
    name TEXT PRIMARY KEY,
    embedding_model TEXT NOT NULL,
    dimension INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexed chunks (vector is little-endian float32)
CREATE TABLE IF NOT EXISTS chunks (
    collection TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
    id TEXT NOT NULL,
    document TEXT NOT NULL,
    source TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    vector BLOB NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(collection, source, chunk_index);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
