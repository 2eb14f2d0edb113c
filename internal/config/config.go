// Package config loads application configuration from the environment,
// optionally seeded from a .env file during local development.
package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration.
type Config struct {
	Env string `env:"APP_ENV,default=development"`

	Server struct {
		Host            string        `env:"SERVER_HOST,default=0.0.0.0"`
		Port            int           `env:"SERVER_PORT,default=8080"`
		ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT,default=15s"`
		WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT,default=15s"`
		IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT,default=60s"`
		ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	}

	Database struct {
		DSN          string        `env:"DATABASE_URL,default="`
		MaxOpenConns int           `env:"DATABASE_MAX_OPEN_CONNS,default=25"`
		MaxIdleConns int           `env:"DATABASE_MAX_IDLE_CONNS,default=5"`
		ConnLifetime time.Duration `env:"DATABASE_CONN_LIFETIME,default=5m"`
	}

	Auth struct {
		JWTSecret       string        `env:"JWT_SECRET,default="`
		TokenTTL        time.Duration `env:"AUTH_TOKEN_TTL,default=24h"`
		Issuer          string        `env:"AUTH_ISSUER,default=sitekit"`
		LoginRate       int           `env:"AUTH_LOGIN_RATE,default=5"`
		LoginBurst      int           `env:"AUTH_LOGIN_BURST,default=10"`
		LastSeenEvery   time.Duration `env:"AUTH_LAST_SEEN_EVERY,default=60s"`
		DefaultRole     string        `env:"AUTH_DEFAULT_ROLE,default=user"`
		MinPasswordLen  int           `env:"AUTH_MIN_PASSWORD_LEN,default=8"`
		SessionPurgeAge time.Duration `env:"AUTH_SESSION_PURGE_AGE,default=720h"`
	}

	Cache struct {
		Driver     string        `env:"CACHE_DRIVER,default=sql"`
		RedisAddr  string        `env:"REDIS_ADDR,default=localhost:6379"`
		RedisDB    int           `env:"REDIS_DB,default=0"`
		RedisPass  string        `env:"REDIS_PASSWORD,default="`
		DefaultTTL time.Duration `env:"CACHE_DEFAULT_TTL,default=10m"`
		PurgeSpec  string        `env:"CACHE_PURGE_SPEC,default=@every 15m"`
	}

	CORS struct {
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:3000;http://localhost:5173"`
	}

	Logging struct {
		Level  string `env:"LOG_LEVEL,default=info"`
		Format string `env:"LOG_FORMAT,default=text"`
	}

	GatesFile string `env:"GATES_FILE,default="`
}

// Load reads .env if present, then decodes the environment into Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required outside development")
		}
		c.Auth.JWTSecret = "dev-insecure-secret"
	}
	switch c.Cache.Driver {
	case "sql", "redis":
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	return nil
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
