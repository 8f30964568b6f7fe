// Package sqlite implements the repositories on a single SQLite file using the
// pure Go modernc driver. Batches and events are stored as JSON documents.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS farmers (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	village       TEXT NOT NULL,
	contact       TEXT NOT NULL,
	geo_fence     TEXT NOT NULL,
	registered_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS batches (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	collected_at INTEGER NOT NULL,
	document     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS batches_collected_at_idx ON batches (collected_at DESC);
CREATE TABLE IF NOT EXISTS batch_events (
	id         TEXT PRIMARY KEY,
	seq        INTEGER NOT NULL,
	batch_id   TEXT NOT NULL,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL,
	actor      TEXT NOT NULL,
	payload    BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS batch_events_batch_idx ON batch_events (batch_id, seq);
`

// Open creates (if needed) and opens the database at path, applying the schema.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		path = "herbtrace.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
