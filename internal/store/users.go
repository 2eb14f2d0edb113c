package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// pqUniqueViolation is the PostgreSQL error code for unique constraint hits.
const pqUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if ok := asPQError(err, &pqErr); ok {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}

// CreateUser inserts a new user, assigning an ID if absent.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, blocked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Blocked, u.CreatedAt, u.UpdatedAt)
	return err
}

// GetUser fetches a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, `
		SELECT id, name, email, password_hash, role, blocked, blocked_at, last_seen_at, created_at, updated_at
		FROM users WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, `
		SELECT id, name, email, password_hash, role, blocked, blocked_at, last_seen_at, created_at, updated_at
		FROM users WHERE email = $1
	`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := s.db.SelectContext(ctx, &users, `
		SELECT id, name, email, password_hash, role, blocked, blocked_at, last_seen_at, created_at, updated_at
		FROM users ORDER BY created_at
	`)
	return users, err
}

// UpdateUserProfile updates mutable profile fields.
func (s *Store) UpdateUserProfile(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET name = $2, updated_at = $3 WHERE id = $1
	`, id, name, time.Now().UTC())
	return err
}

// SetUserRole changes a user's role.
func (s *Store) SetUserRole(ctx context.Context, id, role string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET role = $2, updated_at = $3 WHERE id = $1
	`, id, role, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRows(res)
}

// SetUserBlocked toggles the blocked flag, recording when blocking happened.
func (s *Store) SetUserBlocked(ctx context.Context, id string, blocked bool) error {
	now := time.Now().UTC()
	var blockedAt interface{}
	if blocked {
		blockedAt = now
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET blocked = $2, blocked_at = $3, updated_at = $4 WHERE id = $1
	`, id, blocked, blockedAt, now)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// TouchLastSeen stamps the user's last_seen_at.
func (s *Store) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET last_seen_at = $2 WHERE id = $1
	`, id, at.UTC())
	return err
}

// UpsertUserByEmail inserts the user or, when the email exists, refreshes the
// role and name. Used by the seeder.
func (s *Store) UpsertUserByEmail(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, blocked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, false, $6, $6)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, updated_at = EXCLUDED.updated_at
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, now)
	return err
}
