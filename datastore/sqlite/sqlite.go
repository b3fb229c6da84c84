/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package sqlite persists entities as JSON documents in a SQLite database.
//
// One database file can hold several repositories; each DataStore is scoped
// to its repository name. Keys are stored in their fmt.Sprint form, so two
// keys that print the same address the same entity.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/suparena/entityevents/datastore"
	"github.com/suparena/entityevents/errors"
)

// DB is a SQLite database shared by the repositories stored in it.
type DB struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the database at path. Use ":memory:" for a private
// in-memory database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entities (
			repository TEXT NOT NULL,
			key TEXT NOT NULL,
			data BLOB NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (repository, key)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database. Stores opened on it fail with ErrStoreClosed
// afterwards. Closing twice is a no-op.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

// Repositories lists the repository names that hold at least one entity.
func (d *DB) Repositories(ctx context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil, errors.ErrStoreClosed
	}

	rows, err := d.db.QueryContext(ctx, `SELECT DISTINCT repository FROM entities ORDER BY repository`)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repositories: %w", err)
	}
	return names, nil
}

// DataStore implements datastore.DataStore[K, E] on one repository of a DB.
type DataStore[K comparable, E any] struct {
	db         *DB
	repository string
}

var _ datastore.DataStore[string, struct{}] = (*DataStore[string, struct{}])(nil)

// New returns the store for repository in db.
func New[K comparable, E any](db *DB, repository string) (*DataStore[K, E], error) {
	if db == nil {
		return nil, errors.NewValidationError("db", "must not be nil")
	}
	if repository == "" {
		return nil, errors.NewValidationError("repository", "must not be empty")
	}
	return &DataStore[K, E]{db: db, repository: repository}, nil
}

// HasKey reports whether key is present.
func (s *DataStore[K, E]) HasKey(ctx context.Context, key K) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	if s.db.closed {
		return false, errors.ErrStoreClosed
	}

	var one int
	err := s.db.db.QueryRowContext(ctx, `
		SELECT 1 FROM entities
		WHERE repository = ? AND key = ?
	`, s.repository, fmt.Sprint(key)).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check key: %w", err)
	}
	return true, nil
}

// Save inserts or replaces the entity under key.
func (s *DataStore[K, E]) Save(ctx context.Context, key K, entity E) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("encode entity: %w", err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if s.db.closed {
		return errors.ErrStoreClosed
	}

	_, err = s.db.db.ExecContext(ctx, `
		INSERT INTO entities (repository, key, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(repository, key) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, s.repository, fmt.Sprint(key), data, time.Now().UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("save entity: %w", err)
	}
	return nil
}

// Retrieve returns the entity under key or a NotFoundError.
func (s *DataStore[K, E]) Retrieve(ctx context.Context, key K) (*E, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	if s.db.closed {
		return nil, errors.ErrStoreClosed
	}

	var data []byte
	err := s.db.db.QueryRowContext(ctx, `
		SELECT data FROM entities
		WHERE repository = ? AND key = ?
	`, s.repository, fmt.Sprint(key)).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(s.repository, fmt.Sprint(key))
	}
	if err != nil {
		return nil, fmt.Errorf("load entity: %w", err)
	}

	entity := new(E)
	if err := json.Unmarshal(data, entity); err != nil {
		return nil, fmt.Errorf("decode entity %v: %w", key, err)
	}
	return entity, nil
}

// RetrieveAll returns the repository's entities ordered by key.
func (s *DataStore[K, E]) RetrieveAll(ctx context.Context) ([]E, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	if s.db.closed {
		return nil, errors.ErrStoreClosed
	}

	rows, err := s.db.db.QueryContext(ctx, `
		SELECT key, data FROM entities
		WHERE repository = ?
		ORDER BY key
	`, s.repository)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var entities []E
	for rows.Next() {
		var key string
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		var entity E
		if err := json.Unmarshal(data, &entity); err != nil {
			return nil, fmt.Errorf("decode entity %s: %w", key, err)
		}
		entities = append(entities, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return entities, nil
}

// Delete removes the entity under key, returning a NotFoundError when absent.
func (s *DataStore[K, E]) Delete(ctx context.Context, key K) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if s.db.closed {
		return errors.ErrStoreClosed
	}

	res, err := s.db.db.ExecContext(ctx, `
		DELETE FROM entities
		WHERE repository = ? AND key = ?
	`, s.repository, fmt.Sprint(key))
	if err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError(s.repository, fmt.Sprint(key))
	}
	return nil
}

// EntityType returns the reflect.Type of E.
func (s *DataStore[K, E]) EntityType() reflect.Type {
	return datastore.TypeOf[E]()
}
