// Package store is the SQLite persistence layer of the tracker: the
// application list, the settings row and the pending detected job.
package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hazyhaar/jobtrack/dbopen"
)

// ErrNotFound is returned when a row addressed by ID does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the tracker database handle.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the tracker database at path and applies Schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
