package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/jobtrack/dbopen"
	"github.com/hazyhaar/jobtrack/domain"
)

const applicationColumns = `id, company, position, date, status, notes, source, url, created_at, updated_at`

// ListApplications returns every application in insertion order.
func (s *Store) ListApplications(ctx context.Context) ([]domain.Application, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+applicationColumns+` FROM applications ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []domain.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// GetApplication returns the application with the given ID.
func (s *Store) GetApplication(ctx context.Context, id int64) (domain.Application, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Application{}, fmt.Errorf("application %d: %w", id, ErrNotFound)
	}
	return a, err
}

// MaxApplicationID returns the largest ID in use, or 0.
func (s *Store) MaxApplicationID(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	if err := s.DB.QueryRowContext(ctx, `SELECT MAX(id) FROM applications`).Scan(&id); err != nil {
		return 0, err
	}
	return id.Int64, nil
}

// InsertApplication appends a. The caller assigns a.ID.
func (s *Store) InsertApplication(ctx context.Context, a domain.Application) error {
	return insertApplication(ctx, s.DB, a)
}

// UpdateApplication overwrites the mutable fields of the application with
// a.ID. ID and CreatedAt are never changed.
func (s *Store) UpdateApplication(ctx context.Context, a domain.Application) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE applications
		SET company = ?, position = ?, date = ?, status = ?, notes = ?, source = ?, url = ?, updated_at = ?
		WHERE id = ?`,
		a.Company, a.Position, a.Date, a.Status, a.Notes, a.Source, a.URL, nullMillis(a.UpdatedAt), a.ID,
	)
	if err != nil {
		return err
	}
	return expectRow(res, a.ID)
}

// DeleteApplication removes exactly the application with the given ID.
func (s *Store) DeleteApplication(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM applications WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(res, id)
}

// ClearApplications removes every application. Settings are kept.
func (s *Store) ClearApplications(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM applications`)
	return err
}

// FindRecentDuplicate returns the most recent application with the same
// company and position created strictly after since, or ErrNotFound.
func (s *Store) FindRecentDuplicate(ctx context.Context, company, position string, since time.Time) (domain.Application, error) {
	return findRecentDuplicate(ctx, s.DB, company, position, since)
}

// InsertUnlessDuplicate checks for a recent duplicate of a and inserts a
// when there is none, in a single transaction. It reports whether a was
// inserted.
func (s *Store) InsertUnlessDuplicate(ctx context.Context, a domain.Application, since time.Time) (bool, error) {
	inserted := false
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		inserted = false
		_, err := findRecentDuplicate(ctx, tx, a.Company, a.Position, since)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := insertApplication(ctx, tx, a); err != nil {
			return err
		}
		inserted = true
		return nil
	})
	return inserted, err
}

func findRecentDuplicate(ctx context.Context, q querier, company, position string, since time.Time) (domain.Application, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE company = ? AND position = ? AND created_at > ?
		ORDER BY created_at DESC LIMIT 1`,
		company, position, since.UnixMilli(),
	)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Application{}, ErrNotFound
	}
	return a, err
}

func insertApplication(ctx context.Context, q querier, a domain.Application) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.Company, a.Position, a.Date, a.Status, a.Notes, a.Source, a.URL,
		a.CreatedAt.UnixMilli(), nullMillis(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert application %d: %w", a.ID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(sc scanner) (domain.Application, error) {
	var a domain.Application
	var created int64
	var updated sql.NullInt64
	err := sc.Scan(&a.ID, &a.Company, &a.Position, &a.Date, &a.Status, &a.Notes, &a.Source, &a.URL, &created, &updated)
	if err != nil {
		return domain.Application{}, err
	}
	a.CreatedAt = time.UnixMilli(created).UTC()
	if updated.Valid {
		t := time.UnixMilli(updated.Int64).UTC()
		a.UpdatedAt = &t
	}
	return a, nil
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func expectRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("application %d: %w", id, ErrNotFound)
	}
	return nil
}
