// Package store implements the Store adapter (C18): typed operations over
// the persistent schema from spec.md §6, backed by SQLite with the
// sqlite-vec extension for approximate-nearest-neighbor search.
//
// Grounded on the teacher's internal/storage package (schema.go,
// vector_index.go, chunk_writer.go, chunk_reader.go, file_writer.go,
// file_reader.go), extended with the repositories/workspaces/services/
// cross_repo_dependencies tables SPEC_FULL §4.3 adds.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/codegraph-dev/codegraph/internal/errs"
)

// Store wraps a SQLite connection implementing the C18 contract.
type Store struct {
	db         *sql.DB
	dimensions int
}

// Open opens (creating if necessary) a SQLite-backed store at path. A new
// database gets the schema for the given embedding dimension; an existing
// one only has its schema version checked (Healthcheck checks the
// dimension).
func Open(path string, dimensions int) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.Wrap(errs.KindStoreUnavailable, "open database", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.KindStoreUnavailable, "enable foreign keys", err)
	}

	version, err := GetSchemaVersion(db)
	if err != nil {
		db.Close()
		return nil, errs.Wrap(errs.KindStoreUnavailable, "check schema version", err)
	}
	if version == "0" {
		if err := CreateSchema(db, dimensions); err != nil {
			db.Close()
			return nil, errs.Wrap(errs.KindStoreUnavailable, "create schema", err)
		}
	} else if version != SchemaVersion {
		db.Close()
		return nil, errs.New(errs.KindStoreSchemaMismatch,
			fmt.Sprintf("schema version %s does not match expected %s", version, SchemaVersion))
	}

	return &Store{db: db, dimensions: dimensions}, nil
}

// Healthcheck verifies the embedding dimension recorded at schema creation
// matches the store's configured dimension, per spec.md's "mixing D's is a
// hard error detected at store healthcheck" invariant.
func (s *Store) Healthcheck(ctx context.Context) error {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM cache_metadata WHERE key = 'embedding_dimensions'").Scan(&raw)
	if err != nil {
		return errs.Wrap(errs.KindStoreUnavailable, "read embedding_dimensions metadata", err)
	}
	var stored int
	if _, err := fmt.Sscanf(raw, "%d", &stored); err != nil {
		return errs.Wrap(errs.KindStoreSchemaMismatch, "parse embedding_dimensions metadata", err)
	}
	if stored != s.dimensions {
		return errs.New(errs.KindStoreSchemaMismatch,
			fmt.Sprintf("store embedding dimension %d does not match configured dimension %d", stored, s.dimensions))
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// withTx runs fn in a transaction, committing on success and rolling back
// on error or panic.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
