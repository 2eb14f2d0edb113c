// Package store implements PostgreSQL persistence for users, sessions,
// settings and the site cache.
package store

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// User is an application account.
type User struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	Blocked      bool       `db:"blocked" json:"blocked"`
	BlockedAt    *time.Time `db:"blocked_at" json:"blocked_at,omitempty"`
	LastSeenAt   *time.Time `db:"last_seen_at" json:"last_seen_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Session is a server-side login session. Only the SHA-256 of the bearer
// token is persisted.
type Session struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	TokenHash    string    `db:"token_hash" json:"-"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	LastActiveAt time.Time `db:"last_active_at" json:"last_active_at"`
}

// Setting is a site-wide configuration row.
type Setting struct {
	Name      string    `db:"name" json:"name"`
	Value     string    `db:"value" json:"value"`
	Autoload  bool      `db:"autoload" json:"autoload"`
	Public    bool      `db:"public" json:"public"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CacheRow is a serialized cache entry with wall-clock expiry.
type CacheRow struct {
	Name      string    `db:"name"`
	Value     []byte    `db:"value"`
	ExpiresAt time.Time `db:"expires_at"`
}

// Store provides access to all tables through a shared sqlx handle.
type Store struct {
	db *sqlx.DB
}

// New wraps an existing database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(dsn string, maxOpen, maxIdle int, connLifetime time.Duration) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connLifetime)
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for migrations and shutdown.
func (s *Store) DB() *sqlx.DB { return s.db }

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }
