package sqlite

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"
)

// TestDB is an in-memory database for tests, closed on cleanup.
type TestDB struct {
	DB       *sql.DB
	TxRunner *TxRunner
}

func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	db, err := OpenInMemory(context.Background())
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &TestDB{DB: db, TxRunner: NewTxRunner(db)}
}

// Migrate applies migrations or fails the test.
func (tdb *TestDB) Migrate(t *testing.T, fsys fs.FS, dir string) {
	t.Helper()
	if _, err := Migrate(tdb.DB, fsys, dir); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func (tdb *TestDB) Exec(t *testing.T, query string, args ...any) {
	t.Helper()
	if _, err := tdb.DB.ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func (tdb *TestDB) CountRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := tdb.DB.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func (tdb *TestDB) TableExists(t *testing.T, table string) bool {
	t.Helper()
	var n int
	err := tdb.DB.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n)
	if err != nil {
		t.Fatalf("lookup table %s: %v", table, err)
	}
	return n > 0
}
