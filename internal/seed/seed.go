// Package seed provisions the default settings rows and the initial admin
// account. Idempotent: existing settings keep their values and the admin
// user is upserted by email.
package seed

import (
	"context"
	"fmt"
	"net/mail"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/sitekit/sitekit/internal/authz"
	"github.com/sitekit/sitekit/internal/logging"
	"github.com/sitekit/sitekit/internal/settings"
	"github.com/sitekit/sitekit/internal/store"
)

// Admin describes the initial super admin, usually read from the
// environment via AdminFromEnv.
type Admin struct {
	Name     string
	Email    string
	Password string
}

// AdminFromEnv reads SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD /
// SEED_ADMIN_NAME. Returns nil when no admin is configured.
func AdminFromEnv() *Admin {
	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		return nil
	}
	name := os.Getenv("SEED_ADMIN_NAME")
	if name == "" {
		name = "Administrator"
	}
	return &Admin{
		Name:     name,
		Email:    email,
		Password: os.Getenv("SEED_ADMIN_PASSWORD"),
	}
}

// Run seeds settings and, when admin is non-nil, the super admin account.
func Run(ctx context.Context, st *store.Store, admin *Admin, logger *logging.Logger) error {
	if err := seedSettings(ctx, st, logger); err != nil {
		return err
	}
	if admin != nil {
		if err := seedAdmin(ctx, st, admin, logger); err != nil {
			return err
		}
	}
	return nil
}

func seedSettings(ctx context.Context, st *store.Store, logger *logging.Logger) error {
	for key, def := range settings.Defaults {
		name := key.String()

		// Existing rows win; seeding never clobbers operator changes.
		if _, err := st.GetSetting(ctx, name); err == nil {
			continue
		}

		row := &store.Setting{
			Name:     name,
			Value:    def.Value,
			Autoload: def.Autoload,
			Public:   def.Public,
		}
		if err := st.PutSetting(ctx, row); err != nil {
			return fmt.Errorf("seed setting %s: %w", name, err)
		}
		logger.WithField("setting", name).Info("seeded setting")
	}
	return nil
}

func seedAdmin(ctx context.Context, st *store.Store, admin *Admin, logger *logging.Logger) error {
	if _, err := mail.ParseAddress(admin.Email); err != nil {
		return fmt.Errorf("seed admin: invalid email %q", admin.Email)
	}
	if len(admin.Password) < 8 {
		return fmt.Errorf("seed admin: password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed admin: hash password: %w", err)
	}

	user := &store.User{
		Name:         admin.Name,
		Email:        admin.Email,
		PasswordHash: string(hash),
		Role:         authz.RoleSuperAdmin,
	}
	if err := st.UpsertUserByEmail(ctx, user); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	logger.WithField("email", admin.Email).Info("seeded admin user")
	return nil
}
