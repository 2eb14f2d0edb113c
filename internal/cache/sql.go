package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sitekit/sitekit/internal/store"
)

// SQLCache stores entries in the database cache table. Expiry is enforced on
// read by the store; the scheduled purge only keeps the table small.
type SQLCache struct {
	store *store.Store
}

// NewSQL builds a SQLCache over the shared store.
func NewSQL(s *store.Store) *SQLCache {
	return &SQLCache{store: s}
}

func (c *SQLCache) Get(ctx context.Context, name string, dest interface{}) error {
	data, err := c.store.GetCache(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMiss
		}
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode cache value %q: %w", name, err)
	}
	return nil
}

func (c *SQLCache) Put(ctx context.Context, name string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value %q: %w", name, err)
	}
	return c.store.PutCache(ctx, name, data, time.Now().Add(ttl))
}

func (c *SQLCache) Forget(ctx context.Context, name string) error {
	return c.store.DeleteCache(ctx, name)
}

func (c *SQLCache) Flush(ctx context.Context) error {
	return c.store.FlushCache(ctx)
}
