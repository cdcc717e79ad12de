package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // database/sql driver
)

const (
	defaultBusyTimeoutMS = 5000

	createTableSQL = `
CREATE TABLE IF NOT EXISTS quota_days (
	date_key TEXT NOT NULL,
	identity TEXT NOT NULL,
	count    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (date_key, identity)
)`
)

// SQLiteStore implements Store on a SQLite database. The conditional UPDATE
// inside a write transaction is the atomic increment-if-below-ceiling; SQLite
// single-writer semantics serialize racing consumes across processes too.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the quota database at path.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	cfg := storeConfig{busyTimeoutMS: defaultBusyTimeoutMS}
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, cfg.busyTimeoutMS)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open quota db: %w", err)
	}
	// A single writer avoids SQLITE_BUSY churn under concurrent consumes.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init quota schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// IncrBelow atomically increments the counter for (dateKey, identity) when
// it is below ceiling.
func (s *SQLiteStore) IncrBelow(ctx context.Context, dateKey, identity string, ceiling int) (int, bool, error) {
	if ceiling < 0 {
		return 0, false, ErrInvalidCeiling
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin quota tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO quota_days (date_key, identity, count) VALUES (?, ?, 0)`,
		dateKey, identity); err != nil {
		return 0, false, fmt.Errorf("seed quota row: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE quota_days SET count = count + 1 WHERE date_key = ? AND identity = ? AND count < ?`,
		dateKey, identity, ceiling)
	if err != nil {
		return 0, false, fmt.Errorf("increment quota row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("increment quota row: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT count FROM quota_days WHERE date_key = ? AND identity = ?`,
		dateKey, identity).Scan(&count); err != nil {
		return 0, false, fmt.Errorf("read quota row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit quota tx: %w", err)
	}
	return count, affected > 0, nil
}

// Count returns the counter for (dateKey, identity) without mutation.
func (s *SQLiteStore) Count(ctx context.Context, dateKey, identity string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT count FROM quota_days WHERE date_key = ? AND identity = ?`,
		dateKey, identity).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read quota row: %w", err)
	}
	return count, nil
}

// PruneBefore deletes all rows with a date key earlier than dateKey. Stale
// days otherwise accumulate; an operator job can call this periodically.
func (s *SQLiteStore) PruneBefore(ctx context.Context, dateKey string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quota_days WHERE date_key < ?`, dateKey)
	if err != nil {
		return 0, fmt.Errorf("prune quota rows: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune quota rows: %w", err)
	}
	return n, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close quota db: %w", err)
	}
	return nil
}
