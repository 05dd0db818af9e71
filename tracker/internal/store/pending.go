package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/jobtrack/dbopen"
	"github.com/hazyhaar/jobtrack/domain"
)

// GetPending returns the held job, or ErrNotFound when the slot is empty.
func (s *Store) GetPending(ctx context.Context) (domain.JobRecord, error) {
	return readPending(ctx, s.DB)
}

// SetPending overwrites the slot with rec.
func (s *Store) SetPending(ctx context.Context, rec domain.JobRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode pending job: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO pending_job (id, data, held_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, held_at = excluded.held_at`,
		string(data), time.Now().UnixMilli(),
	)
	return err
}

// ClearPending empties the slot. Clearing an empty slot is not an error.
func (s *Store) ClearPending(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM pending_job`)
	return err
}

// TakePending returns the held job and empties the slot in one transaction.
func (s *Store) TakePending(ctx context.Context) (domain.JobRecord, error) {
	var rec domain.JobRecord
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		if rec, err = readPending(ctx, tx); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM pending_job`)
		return err
	})
	return rec, err
}

// PromotePending converts the held job with convert, inserts the result and
// empties the slot, all in one transaction. No duplicate check is made.
func (s *Store) PromotePending(ctx context.Context, convert func(domain.JobRecord) domain.Application) (domain.Application, error) {
	var app domain.Application
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		rec, err := readPending(ctx, tx)
		if err != nil {
			return err
		}
		app = convert(rec)
		if err := insertApplication(ctx, tx, app); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM pending_job`)
		return err
	})
	return app, err
}

func readPending(ctx context.Context, q querier) (domain.JobRecord, error) {
	var data string
	err := q.QueryRowContext(ctx, `SELECT data FROM pending_job WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.JobRecord{}, ErrNotFound
	}
	if err != nil {
		return domain.JobRecord{}, err
	}
	var rec domain.JobRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return domain.JobRecord{}, fmt.Errorf("decode pending job: %w", err)
	}
	return rec, nil
}
