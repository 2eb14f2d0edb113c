// Package main seeds the database: migrations, default settings and the
// initial admin account from SEED_ADMIN_* environment variables.
package main

import (
	"context"

	"github.com/sitekit/sitekit/internal/config"
	"github.com/sitekit/sitekit/internal/logging"
	"github.com/sitekit/sitekit/internal/seed"
	"github.com/sitekit/sitekit/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").WithError(err).Fatal("load configuration")
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	st, err := store.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnLifetime)
	if err != nil {
		logger.WithError(err).Fatal("open database")
	}
	defer st.Close()

	if err := st.Migrate(); err != nil {
		logger.WithError(err).Fatal("run migrations")
	}

	if err := seed.Run(context.Background(), st, seed.AdminFromEnv(), logger); err != nil {
		logger.WithError(err).Fatal("seed database")
	}
	logger.Info("seed complete")
}
