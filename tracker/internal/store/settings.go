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

// GetSettings returns the stored settings. Fields absent from the stored
// row, or the whole row when none was ever saved, take their defaults.
func (s *Store) GetSettings(ctx context.Context) (domain.Settings, error) {
	var data string
	err := s.DB.QueryRowContext(ctx, `SELECT data FROM settings WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, err
	}
	return decodeSettings([]byte(data))
}

// SaveSettings replaces the settings row.
func (s *Store) SaveSettings(ctx context.Context, set domain.Settings) error {
	return saveSettings(ctx, s.DB, set)
}

// ReplaceAll swaps the whole application list, and the settings when set is
// non-nil, in one transaction. The pending job is left alone.
func (s *Store) ReplaceAll(ctx context.Context, apps []domain.Application, set *domain.Settings) error {
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM applications`); err != nil {
			return err
		}
		for _, a := range apps {
			if err := insertApplication(ctx, tx, a); err != nil {
				return err
			}
		}
		if set != nil {
			return saveSettings(ctx, tx, *set)
		}
		return nil
	})
}

func saveSettings(ctx context.Context, q querier, set domain.Settings) error {
	if set.CustomJobSites == nil {
		set.CustomJobSites = []string{}
	}
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO settings (id, data, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(data), time.Now().UnixMilli(),
	)
	return err
}

func decodeSettings(data []byte) (domain.Settings, error) {
	set := domain.DefaultSettings()
	if err := json.Unmarshal(data, &set); err != nil {
		return domain.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if set.CustomJobSites == nil {
		set.CustomJobSites = []string{}
	}
	return set, nil
}
