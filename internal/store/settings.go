package store

import (
	"context"
	"time"
)

// GetSetting fetches one setting row by name.
func (s *Store) GetSetting(ctx context.Context, name string) (*Setting, error) {
	var row Setting
	err := s.db.GetContext(ctx, &row, `
		SELECT name, value, autoload, public, updated_at
		FROM settings WHERE name = $1
	`, name)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// PutSetting inserts or replaces a setting value.
func (s *Store) PutSetting(ctx context.Context, row *Setting) error {
	row.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (name, value, autoload, public, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			value = EXCLUDED.value,
			autoload = EXCLUDED.autoload,
			public = EXCLUDED.public,
			updated_at = EXCLUDED.updated_at
	`, row.Name, row.Value, row.Autoload, row.Public, row.UpdatedAt)
	return err
}

// ListSettings returns all settings, optionally only publicly visible ones.
func (s *Store) ListSettings(ctx context.Context, publicOnly bool) ([]Setting, error) {
	var rows []Setting
	query := `SELECT name, value, autoload, public, updated_at FROM settings ORDER BY name`
	if publicOnly {
		query = `SELECT name, value, autoload, public, updated_at FROM settings WHERE public ORDER BY name`
	}
	err := s.db.SelectContext(ctx, &rows, query)
	return rows, err
}

// ListAutoloadSettings returns settings flagged for load-on-boot.
func (s *Store) ListAutoloadSettings(ctx context.Context) ([]Setting, error) {
	var rows []Setting
	err := s.db.SelectContext(ctx, &rows, `
		SELECT name, value, autoload, public, updated_at FROM settings WHERE autoload ORDER BY name
	`)
	return rows, err
}

// DeleteSetting removes a setting row.
func (s *Store) DeleteSetting(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE name = $1`, name)
	if err != nil {
		return err
	}
	return requireRows(res)
}
