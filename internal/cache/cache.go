// Package cache provides the site cache: a name-to-serialized-value store
// with a per-entry TTL re-checked on every read. The SQL backend persists
// entries in the cache table; a Redis backend is available behind the same
// interface.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sitekit/sitekit/internal/metrics"
)

// ErrMiss is returned when a name is absent or its entry has expired.
var ErrMiss = errors.New("cache: miss")

// Cache is the site cache contract. Values are JSON-serialized on write and
// decoded into dest on read.
type Cache interface {
	// Get decodes the value stored under name into dest. Returns ErrMiss
	// when the name is absent or expired.
	Get(ctx context.Context, name string, dest interface{}) error
	// Put serializes value and stores it under name for ttl.
	Put(ctx context.Context, name string, value interface{}, ttl time.Duration) error
	// Forget removes the entry stored under name.
	Forget(ctx context.Context, name string) error
	// Flush removes every entry.
	Flush(ctx context.Context) error
}

// Remember returns the cached value under name, computing and storing it via
// fn on a miss. dest receives the value either way.
func Remember(ctx context.Context, c Cache, name string, ttl time.Duration, dest interface{}, fn func() (interface{}, error)) error {
	err := c.Get(ctx, name, dest)
	if err == nil {
		metrics.RecordCacheRead("hit")
		return nil
	}
	if !errors.Is(err, ErrMiss) {
		return err
	}
	metrics.RecordCacheRead("miss")

	value, err := fn()
	if err != nil {
		return err
	}
	if err := c.Put(ctx, name, value, ttl); err != nil {
		return err
	}
	return c.Get(ctx, name, dest)
}
