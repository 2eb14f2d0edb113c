// Package main runs the sitekit HTTP server: configuration, migrations,
// background purge jobs and graceful shutdown.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/sitekit/sitekit/internal/auth"
	"github.com/sitekit/sitekit/internal/authz"
	"github.com/sitekit/sitekit/internal/cache"
	"github.com/sitekit/sitekit/internal/config"
	"github.com/sitekit/sitekit/internal/hook"
	"github.com/sitekit/sitekit/internal/logging"
	"github.com/sitekit/sitekit/internal/seed"
	"github.com/sitekit/sitekit/internal/server"
	"github.com/sitekit/sitekit/internal/settings"
	"github.com/sitekit/sitekit/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").WithError(err).Fatal("load configuration")
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.WithField("env", cfg.Env).Info("starting sitekit")

	st, err := store.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnLifetime)
	if err != nil {
		logger.WithError(err).Fatal("open database")
	}
	defer st.Close()

	if err := st.Migrate(); err != nil {
		logger.WithError(err).Fatal("run migrations")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := seed.Run(ctx, st, seed.AdminFromEnv(), logger); err != nil {
		logger.WithError(err).Fatal("seed database")
	}

	var siteCache cache.Cache
	switch cfg.Cache.Driver {
	case "redis":
		rc := cache.NewRedis(cfg.Cache.RedisAddr, cfg.Cache.RedisPass, cfg.Cache.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			logger.WithError(err).Fatal("connect redis")
		}
		siteCache = rc
	default:
		siteCache = cache.NewSQL(st)
	}

	hooks := hook.Default

	gates, err := authz.Load(cfg.GatesFile, hooks)
	if err != nil {
		logger.WithError(err).Fatal("load gate definitions")
	}

	settingsSvc := settings.NewService(st, siteCache, hooks, cfg.Cache.DefaultTTL)
	authSvc := auth.NewService(st, hooks, auth.Options{
		Secret:         []byte(cfg.Auth.JWTSecret),
		TokenTTL:       cfg.Auth.TokenTTL,
		Issuer:         cfg.Auth.Issuer,
		DefaultRole:    cfg.Auth.DefaultRole,
		MinPasswordLen: cfg.Auth.MinPasswordLen,
		LastSeenEvery:  cfg.Auth.LastSeenEvery,
	})

	// Periodic purge of expired cache entries and sessions. Expired rows
	// are also dropped on read; the job keeps the tables from growing
	// under names that are never read again.
	jobs := cron.New()
	if _, err := jobs.AddFunc(cfg.Cache.PurgeSpec, func() {
		if n, err := st.PurgeExpiredCache(ctx); err != nil {
			logger.WithError(err).Warn("cache purge failed")
		} else if n > 0 {
			logger.WithField("purged", n).Debug("purged expired cache entries")
		}
		if n, err := st.PurgeExpiredSessions(ctx); err != nil {
			logger.WithError(err).Warn("session purge failed")
		} else if n > 0 {
			logger.WithField("purged", n).Debug("purged expired sessions")
		}
	}); err != nil {
		logger.WithError(err).Fatal("schedule purge job")
	}
	jobs.Start()
	defer jobs.Stop()

	srv := server.New(cfg, server.Deps{
		Store:    st,
		Auth:     authSvc,
		Settings: settingsSvc,
		Gates:    gates,
		Cache:    siteCache,
		Logger:   logger,
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Info("shutdown signal received")
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		logger.WithError(err).Fatal("server error")
	}
	logger.Info("sitekit stopped")
}
