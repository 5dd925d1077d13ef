package dedup

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jobsift/jobsift/internal/model"
)

var _ model.DedupStore = (*SQLiteStore)(nil)

// SQLiteStore backs the dedup set with a local SQLite database, for
// single-node deployments without a redis. INSERT OR IGNORE against the
// primary key is the atomic test-and-insert.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the seen_jobs table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection serializes writers; concurrent Admits queue
	// instead of surfacing SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS seen_jobs (
		identity_key TEXT PRIMARY KEY,
		first_seen   DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating seen_jobs table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Admit(ctx context.Context, key model.IdentityKey) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO seen_jobs (identity_key) VALUES (?)", key.String())
	if err != nil {
		return false, fmt.Errorf("%w: insert: %v", model.ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected: %v", model.ErrStoreUnavailable, err)
	}
	return n == 1, nil
}

func (s *SQLiteStore) IsDuplicate(ctx context.Context, key model.IdentityKey) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM seen_jobs WHERE identity_key = ?", key.String()).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: select: %v", model.ErrStoreUnavailable, err)
	}
	return true, nil
}

// Cleanup deletes seen-key entries older than the given duration.
func (s *SQLiteStore) Cleanup(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	_, err := s.db.Exec("DELETE FROM seen_jobs WHERE first_seen < ?", cutoff)
	if err != nil {
		return fmt.Errorf("cleaning up seen jobs older than %v: %w", olderThan, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
