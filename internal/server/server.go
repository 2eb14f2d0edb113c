// Package server assembles the HTTP API: routing, middleware chains and the
// request handlers for auth, settings, users and cache administration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sitekit/sitekit/internal/auth"
	"github.com/sitekit/sitekit/internal/authz"
	"github.com/sitekit/sitekit/internal/cache"
	"github.com/sitekit/sitekit/internal/config"
	"github.com/sitekit/sitekit/internal/logging"
	"github.com/sitekit/sitekit/internal/metrics"
	"github.com/sitekit/sitekit/internal/middleware"
	"github.com/sitekit/sitekit/internal/settings"
	"github.com/sitekit/sitekit/internal/store"
)

// Deps are the services the server routes requests to.
type Deps struct {
	Store    *store.Store
	Auth     *auth.Service
	Settings *settings.Service
	Gates    *authz.Gates
	Cache    cache.Cache
	Logger   *logging.Logger
}

// Server is the HTTP front end.
type Server struct {
	cfg    *config.Config
	deps   Deps
	router *mux.Router
	http   *http.Server
}

// New builds the server and its routing table.
func New(cfg *config.Config, deps Deps) *Server {
	s := &Server{cfg: cfg, deps: deps}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.WithField("addr", s.http.Addr).Info("http server listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	cors := middleware.NewCORS(s.cfg.CORS.AllowedOrigins)
	r.Use(cors.Handler)
	r.Use(middleware.RequestLogger(s.deps.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.Maintenance(s.deps.Settings, s.deps.Gates, s.deps.Auth))

	// Unauthenticated surface.
	r.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc(middleware.MaintenancePagePath, s.handleMaintenancePage()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/settings", s.handlePublicSettings()).Methods(http.MethodGet)

	loginLimiter := middleware.NewRateLimiter(s.cfg.Auth.LoginRate, s.cfg.Auth.LoginBurst, s.deps.Logger)
	authAPI := api.PathPrefix("/auth").Subrouter()
	authAPI.Handle("/register", loginLimiter.Handler(s.handleRegister())).Methods(http.MethodPost)
	authAPI.Handle("/login", loginLimiter.Handler(s.handleLogin())).Methods(http.MethodPost)
	authAPI.HandleFunc("/logout", s.handleLogout()).Methods(http.MethodPost)

	// Authenticated surface.
	private := api.NewRoute().Subrouter()
	private.Use(middleware.Authenticate(s.deps.Auth, s.deps.Logger))
	private.Use(middleware.LastSeen(s.deps.Auth, s.deps.Logger))
	private.HandleFunc("/me", s.handleMe()).Methods(http.MethodGet)
	private.HandleFunc("/me", s.handleUpdateProfile()).Methods(http.MethodPut)

	// Admin surface, behind per-area gates.
	admin := private.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireGate(s.deps.Gates, authz.GateViewAdmin))

	users := admin.PathPrefix("/users").Subrouter()
	users.Use(middleware.RequireGate(s.deps.Gates, authz.GateManageUsers))
	users.HandleFunc("", s.handleListUsers()).Methods(http.MethodGet)
	users.HandleFunc("/{id}/block", s.handleBlockUser(true)).Methods(http.MethodPost)
	users.HandleFunc("/{id}/unblock", s.handleBlockUser(false)).Methods(http.MethodPost)
	users.HandleFunc("/{id}/role", s.handleSetRole()).Methods(http.MethodPut)

	site := admin.PathPrefix("/settings").Subrouter()
	site.Use(middleware.RequireGate(s.deps.Gates, authz.GateManageSettings))
	site.HandleFunc("", s.handleListSettings()).Methods(http.MethodGet)
	site.HandleFunc("/{name}", s.handleGetSetting()).Methods(http.MethodGet)
	site.HandleFunc("/{name}", s.handlePutSetting()).Methods(http.MethodPut)
	site.HandleFunc("/{name}", s.handleDeleteSetting()).Methods(http.MethodDelete)

	admin.Handle("/maintenance", middleware.RequireGate(s.deps.Gates, authz.GateManageSettings)(s.handleSetMaintenance())).Methods(http.MethodPut)
	admin.Handle("/cache/flush", middleware.RequireGate(s.deps.Gates, authz.GateManageSettings)(s.handleFlushCache())).Methods(http.MethodPost)

	return r
}
