// Package settings exposes the site-wide settings store: DB-backed rows with
// an autoload subset cached under a TTL, filterable through the hook
// registry.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/sitekit/sitekit/internal/apperr"
	"github.com/sitekit/sitekit/internal/cache"
	"github.com/sitekit/sitekit/internal/hook"
	"github.com/sitekit/sitekit/internal/sanitize"
	"github.com/sitekit/sitekit/internal/store"
)

// autoloadCacheName keys the cached autoload map in the site cache.
const autoloadCacheName = "settings:autoload"

// HookSettingUpdated fires after a setting write, with args (name, value).
const HookSettingUpdated = "setting.updated"

// Service reads and writes site settings.
type Service struct {
	store *store.Store
	cache cache.Cache
	hooks *hook.Registry
	ttl   time.Duration
}

// NewService wires the settings service.
func NewService(st *store.Store, c cache.Cache, hooks *hook.Registry, cacheTTL time.Duration) *Service {
	if hooks == nil {
		hooks = hook.Default
	}
	return &Service{store: st, cache: c, hooks: hooks, ttl: cacheTTL}
}

// Get returns the setting's value. Autoload settings are served from the
// cached autoload map; everything else hits the settings table. The value
// passes through the "setting.<name>" filter before being returned.
func (s *Service) Get(ctx context.Context, key Key) (string, error) {
	name := key.String()

	autoload, err := s.autoloadMap(ctx)
	if err == nil {
		if value, ok := autoload[name]; ok {
			return s.filtered(ctx, name, value), nil
		}
	}

	row, err := s.store.GetSetting(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.NotFound("setting")
		}
		return "", err
	}
	return s.filtered(ctx, name, row.Value), nil
}

// GetBool parses the setting as a boolean; missing or malformed values
// return the fallback.
func (s *Service) GetBool(ctx context.Context, key Key, fallback bool) bool {
	value, err := s.Get(ctx, key)
	if err != nil {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// GetInt parses the setting as an integer; missing or malformed values
// return the fallback.
func (s *Service) GetInt(ctx context.Context, key Key, fallback int) int {
	value, err := s.Get(ctx, key)
	if err != nil {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// Put sanitizes and stores value under key, invalidates the autoload cache
// and fires the setting.updated action.
func (s *Service) Put(ctx context.Context, key Key, value string) error {
	name := key.String()
	value = sanitize.Text(value)

	row := &store.Setting{Name: name, Value: value}
	if existing, err := s.store.GetSetting(ctx, name); err == nil {
		row.Autoload = existing.Autoload
		row.Public = existing.Public
	} else if def, ok := Defaults[key]; ok {
		row.Autoload = def.Autoload
		row.Public = def.Public
	}

	if err := s.store.PutSetting(ctx, row); err != nil {
		return err
	}
	if err := s.cache.Forget(ctx, autoloadCacheName); err != nil {
		return err
	}

	s.hooks.DoAction(ctx, HookSettingUpdated, name, value)
	return nil
}

// Delete removes the setting row and invalidates the autoload cache.
func (s *Service) Delete(ctx context.Context, key Key) error {
	name := key.String()
	if err := s.store.DeleteSetting(ctx, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("setting")
		}
		return err
	}
	if err := s.cache.Forget(ctx, autoloadCacheName); err != nil {
		return err
	}
	s.hooks.DoAction(ctx, HookSettingUpdated, name, "")
	return nil
}

// All lists settings rows. With publicOnly set, only rows flagged public are
// returned, for the unauthenticated settings endpoint.
func (s *Service) All(ctx context.Context, publicOnly bool) ([]store.Setting, error) {
	return s.store.ListSettings(ctx, publicOnly)
}

// MaintenanceMode reports whether the maintenance flag is enabled. Errors
// fail open: a broken settings store must not take the site down.
func (s *Service) MaintenanceMode(ctx context.Context) bool {
	return s.GetBool(ctx, KeyMaintenanceMode, false)
}

// MaintenanceMessage returns the text shown on the maintenance page.
func (s *Service) MaintenanceMessage(ctx context.Context) string {
	value, err := s.Get(ctx, KeyMaintenanceMessage)
	if err != nil || value == "" {
		return Defaults[KeyMaintenanceMessage].Value
	}
	return value
}

// SetMaintenanceMode toggles the maintenance flag.
func (s *Service) SetMaintenanceMode(ctx context.Context, enabled bool) error {
	return s.Put(ctx, KeyMaintenanceMode, strconv.FormatBool(enabled))
}

func (s *Service) autoloadMap(ctx context.Context) (map[string]string, error) {
	var values map[string]string
	err := cache.Remember(ctx, s.cache, autoloadCacheName, s.ttl, &values, func() (interface{}, error) {
		rows, err := s.store.ListAutoloadSettings(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[string]string, len(rows))
		for _, row := range rows {
			out[row.Name] = row.Value
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (s *Service) filtered(ctx context.Context, name, value string) string {
	out := s.hooks.ApplyFilters(ctx, "setting."+name, value)
	if str, ok := out.(string); ok {
		return str
	}
	return value
}
