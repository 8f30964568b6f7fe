package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/sanrakshak/herbtrace/repository/repotest"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBatchRepository(t *testing.T) {
	repotest.BatchRepository(t, NewBatchRepository(openTestDB(t)))
}

func TestFarmerRepository(t *testing.T) {
	repotest.FarmerRepository(t, NewFarmerRepository(openTestDB(t)))
}

func TestEventRepository(t *testing.T) {
	repotest.EventRepository(t, NewEventRepository(openTestDB(t)))
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	_ = first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen must reuse the schema: %v", err)
	}
	_ = second.Close()
}
