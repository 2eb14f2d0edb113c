package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/sitekit/sitekit/internal/store"
)

// memCache is a test double implementing Cache over a map.
type memCache struct {
	entries map[string][]byte
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (m *memCache) Get(ctx context.Context, name string, dest interface{}) error {
	data, ok := m.entries[name]
	if !ok {
		return ErrMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *memCache) Put(ctx context.Context, name string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[name] = data
	m.puts++
	return nil
}

func (m *memCache) Forget(ctx context.Context, name string) error {
	delete(m.entries, name)
	return nil
}

func (m *memCache) Flush(ctx context.Context) error {
	m.entries = make(map[string][]byte)
	return nil
}

func TestRememberComputesOnMissOnly(t *testing.T) {
	ctx := context.Background()
	c := newMemCache()
	calls := 0
	compute := func() (interface{}, error) {
		calls++
		return map[string]int{"total": 42}, nil
	}

	var got map[string]int
	require.NoError(t, Remember(ctx, c, "stats", time.Minute, &got, compute))
	require.Equal(t, 42, got["total"])
	require.Equal(t, 1, calls)

	got = nil
	require.NoError(t, Remember(ctx, c, "stats", time.Minute, &got, compute))
	require.Equal(t, 42, got["total"])
	require.Equal(t, 1, calls, "second read should be served from cache")
	require.Equal(t, 1, c.puts)
}

func TestRememberPropagatesComputeError(t *testing.T) {
	ctx := context.Background()
	c := newMemCache()
	boom := errors.New("boom")

	var got int
	err := Remember(ctx, c, "stats", time.Minute, &got, func() (interface{}, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, c.puts)
}

func TestMemoryCacheExpiresOnRead(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	require.NoError(t, c.Put(ctx, "short", "value", 10*time.Millisecond))

	var got string
	require.NoError(t, c.Get(ctx, "short", &got))
	require.Equal(t, "value", got)

	time.Sleep(20 * time.Millisecond)
	require.ErrorIs(t, c.Get(ctx, "short", &got), ErrMiss)
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	require.NoError(t, c.Put(ctx, "pinned", 7, 0))

	var got int
	require.NoError(t, c.Get(ctx, "pinned", &got))
	require.Equal(t, 7, got)
}

func newSQLCache(t *testing.T) (*SQLCache, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQL(store.New(sqlx.NewDb(db, "postgres"))), mock
}

func TestSQLCacheGetDecodesValue(t *testing.T) {
	c, mock := newSQLCache(t)

	mock.ExpectQuery("SELECT name, value, expires_at FROM cache WHERE name").
		WithArgs("greeting").
		WillReturnRows(sqlmock.NewRows([]string{"name", "value", "expires_at"}).
			AddRow("greeting", []byte(`"hello"`), time.Now().Add(time.Minute)))

	var got string
	require.NoError(t, c.Get(context.Background(), "greeting", &got))
	require.Equal(t, "hello", got)
}

func TestSQLCacheGetMissOnAbsentRow(t *testing.T) {
	c, mock := newSQLCache(t)

	mock.ExpectQuery("SELECT name, value, expires_at FROM cache WHERE name").
		WithArgs("absent").
		WillReturnRows(sqlmock.NewRows([]string{"name", "value", "expires_at"}))

	var got string
	require.ErrorIs(t, c.Get(context.Background(), "absent", &got), ErrMiss)
}

func TestSQLCachePutSerializesToJSON(t *testing.T) {
	c, mock := newSQLCache(t)

	mock.ExpectExec("INSERT INTO cache").
		WithArgs("counts", []byte(`{"users":3}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, c.Put(context.Background(), "counts", map[string]int{"users": 3}, time.Minute))
	require.NoError(t, mock.ExpectationsWereMet())
}
