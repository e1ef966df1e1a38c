package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSQLite opens (or creates) a module store.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS modules (
		path TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		locale TEXT NOT NULL,
		mode TEXT NOT NULL,
		data BLOB NOT NULL,
		stored_at INTEGER NOT NULL,
		PRIMARY KEY (path, fingerprint, locale, mode)
	);
	CREATE INDEX IF NOT EXISTS idx_modules_stored_at ON modules(stored_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the encoded module for key.
func (s *SQLiteStore) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM modules WHERE path = ? AND fingerprint = ? AND locale = ? AND mode = ?",
		key.Path, key.Fingerprint, key.Locale, string(key.Mode),
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query module: %w", err)
	}
	return data, true, nil
}

// Put stores data for key and drops rows for other fingerprints of the path.
func (s *SQLiteStore) Put(ctx context.Context, key Key, data []byte, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM modules WHERE path = ? AND fingerprint <> ?",
		key.Path, key.Fingerprint,
	); err != nil {
		return fmt.Errorf("delete stale modules: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO modules (path, fingerprint, locale, mode, data, stored_at) VALUES (?, ?, ?, ?, ?, ?)",
		key.Path, key.Fingerprint, key.Locale, string(key.Mode), data, at.UnixNano(),
	); err != nil {
		return fmt.Errorf("insert module: %w", err)
	}
	return tx.Commit()
}

// DeletePath removes every row for path.
func (s *SQLiteStore) DeletePath(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM modules WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete modules: %w", err)
	}
	return nil
}

// Prune removes rows stored before the cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM modules WHERE stored_at < ?", before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune modules: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
