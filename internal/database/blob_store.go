package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// UpdateFunc receives the current value of a key and returns the value to store
type UpdateFunc func(current []byte, found bool) ([]byte, error)

// BlobStore is a key-value store of JSON documents
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
	// Update performs a read-modify-write of one key as a single unit
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// Open returns the blob store described by cfg together with a close function
func Open(cfg Config) (BlobStore, func() error, error) {
	if cfg.Driver == DriverMemory {
		return NewMemoryStore(), func() error { return nil }, nil
	}
	db, err := Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewSQLStore(db), db.Close, nil
}

// SQLStore keeps blobs in the kv_store table
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore creates a store over an initialized connection
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

const upsertBlobQuery = `
	INSERT INTO kv_store (blob_key, blob_value, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (blob_key) DO UPDATE SET
		blob_value = excluded.blob_value,
		updated_at = CURRENT_TIMESTAMP
`

// Load returns the value stored under key
func (s *SQLStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, s.db.Rebind("SELECT blob_value FROM kv_store WHERE blob_key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Save stores value under key, replacing any previous value
func (s *SQLStore) Save(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(upsertBlobQuery), key, string(value)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Update runs fn inside a transaction; on postgres the row is locked for the duration
func (s *SQLStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	query := "SELECT blob_value FROM kv_store WHERE blob_key = ?"
	if s.db.DriverName() == DriverPostgres {
		query += " FOR UPDATE"
	}

	var current string
	found := true
	err = tx.GetContext(ctx, &current, tx.Rebind(query), key)
	if errors.Is(err, sql.ErrNoRows) {
		found = false
	} else if err != nil {
		return fmt.Errorf("failed to load %s: %w", key, err)
	}

	var currentBytes []byte
	if found {
		currentBytes = []byte(current)
	}
	next, err := fn(currentBytes, found)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(upsertBlobQuery), key, string(next)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", key, err)
	}
	return nil
}
