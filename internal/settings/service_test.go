package settings

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/sitekit/sitekit/internal/cache"
	"github.com/sitekit/sitekit/internal/hook"
	"github.com/sitekit/sitekit/internal/store"
)

func newService(t *testing.T) (*Service, sqlmock.Sqlmock, *hook.Registry) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hooks := hook.NewRegistry()
	svc := NewService(store.New(sqlx.NewDb(db, "postgres")), cache.NewMemory(), hooks, time.Minute)
	return svc, mock, hooks
}

func settingRows(pairs ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"name", "value", "autoload", "public", "updated_at"})
	for i := 0; i+1 < len(pairs); i += 2 {
		rows.AddRow(pairs[i], pairs[i+1], true, true, time.Now())
	}
	return rows
}

func TestGetServesAutoloadFromCacheAfterFirstRead(t *testing.T) {
	svc, mock, _ := newService(t)
	ctx := context.Background()

	// Only one autoload query despite two reads.
	mock.ExpectQuery("FROM settings WHERE autoload").
		WillReturnRows(settingRows("site_name", "Sitekit"))

	got, err := svc.Get(ctx, KeySiteName)
	require.NoError(t, err)
	require.Equal(t, "Sitekit", got)

	got, err = svc.Get(ctx, KeySiteName)
	require.NoError(t, err)
	require.Equal(t, "Sitekit", got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFallsBackToTableForNonAutoload(t *testing.T) {
	svc, mock, _ := newService(t)
	ctx := context.Background()

	mock.ExpectQuery("FROM settings WHERE autoload").
		WillReturnRows(settingRows())
	mock.ExpectQuery("FROM settings WHERE name").
		WithArgs("contact_email").
		WillReturnRows(settingRows("contact_email", "admin@example.com"))

	got, err := svc.Get(ctx, KeyContactEmail)
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", got)
}

func TestGetMissingSettingIsNotFound(t *testing.T) {
	svc, mock, _ := newService(t)
	ctx := context.Background()

	mock.ExpectQuery("FROM settings WHERE autoload").
		WillReturnRows(settingRows())
	mock.ExpectQuery("FROM settings WHERE name").
		WithArgs("contact_email").
		WillReturnRows(settingRows())

	_, err := svc.Get(ctx, KeyContactEmail)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestGetAppliesValueFilter(t *testing.T) {
	svc, mock, hooks := newService(t)
	ctx := context.Background()

	mock.ExpectQuery("FROM settings WHERE autoload").
		WillReturnRows(settingRows("site_name", "Sitekit"))

	hooks.AddFilter("setting.site_name", "decorate", func(ctx context.Context, v interface{}, args ...interface{}) interface{} {
		return v.(string) + " (staging)"
	}, hook.DefaultPriority)

	got, err := svc.Get(ctx, KeySiteName)
	require.NoError(t, err)
	require.Equal(t, "Sitekit (staging)", got)
}

func TestPutSanitizesInvalidatesAndFiresAction(t *testing.T) {
	svc, mock, hooks := newService(t)
	ctx := context.Background()

	// Warm the autoload cache so Put has something to invalidate.
	mock.ExpectQuery("FROM settings WHERE autoload").
		WillReturnRows(settingRows("site_name", "Old"))
	got, err := svc.Get(ctx, KeySiteName)
	require.NoError(t, err)
	require.Equal(t, "Old", got)

	var firedName, firedValue string
	hooks.AddAction(HookSettingUpdated, "audit", func(ctx context.Context, args ...interface{}) {
		firedName, _ = args[0].(string)
		firedValue, _ = args[1].(string)
	}, hook.DefaultPriority)

	mock.ExpectQuery("FROM settings WHERE name").
		WithArgs("site_name").
		WillReturnRows(settingRows("site_name", "Old"))
	mock.ExpectExec("INSERT INTO settings").
		WithArgs("site_name", "New Name", true, true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Put(ctx, KeySiteName, "  <b>New</b>   Name "))
	require.Equal(t, "site_name", firedName)
	require.Equal(t, "New Name", firedValue)

	// The next read must re-query the table, not the stale cache.
	mock.ExpectQuery("FROM settings WHERE autoload").
		WillReturnRows(settingRows("site_name", "New Name"))
	got, err = svc.Get(ctx, KeySiteName)
	require.NoError(t, err)
	require.Equal(t, "New Name", got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBoolAndMaintenanceMode(t *testing.T) {
	svc, mock, _ := newService(t)
	ctx := context.Background()

	mock.ExpectQuery("FROM settings WHERE autoload").
		WillReturnRows(settingRows("maintenance_mode", "true"))

	require.True(t, svc.GetBool(ctx, KeyMaintenanceMode, false))
	require.True(t, svc.MaintenanceMode(ctx))
}

func TestGetBoolFallbackOnMalformedValue(t *testing.T) {
	svc, mock, _ := newService(t)
	ctx := context.Background()

	mock.ExpectQuery("FROM settings WHERE autoload").
		WillReturnRows(settingRows("maintenance_mode", "banana"))

	require.False(t, svc.GetBool(ctx, KeyMaintenanceMode, false))
}

func TestDeleteRemovesRowAndInvalidatesCache(t *testing.T) {
	svc, mock, _ := newService(t)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM settings").
		WithArgs("contact_email").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Delete(ctx, KeyContactEmail))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingSettingIsNotFound(t *testing.T) {
	svc, mock, _ := newService(t)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM settings").
		WithArgs("contact_email").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.Delete(ctx, KeyContactEmail)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}
