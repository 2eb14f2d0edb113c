package store

import (
	"context"
	"database/sql"
	"time"
)

// GetCache returns the value stored under name. A row past its expiry is
// treated as missing and removed opportunistically.
func (s *Store) GetCache(ctx context.Context, name string) ([]byte, error) {
	var row CacheRow
	err := s.db.GetContext(ctx, &row, `
		SELECT name, value, expires_at FROM cache WHERE name = $1
	`, name)
	if err != nil {
		return nil, err
	}
	if time.Now().After(row.ExpiresAt) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cache WHERE name = $1 AND expires_at = $2`, name, row.ExpiresAt)
		return nil, sql.ErrNoRows
	}
	return row.Value, nil
}

// PutCache stores value under name with the given expiry, replacing any
// existing row.
func (s *Store) PutCache(ctx context.Context, name string, value []byte, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache (name, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
	`, name, value, expiresAt.UTC())
	return err
}

// DeleteCache removes a cache row by name.
func (s *Store) DeleteCache(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache WHERE name = $1`, name)
	return err
}

// FlushCache removes every cache row.
func (s *Store) FlushCache(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache`)
	return err
}

// PurgeExpiredCache removes rows past their expiry and returns the number
// deleted. Reads already ignore expired rows; this is scheduled hygiene.
func (s *Store) PurgeExpiredCache(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}
