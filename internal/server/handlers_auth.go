package server

import (
	"net/http"
	"time"

	"github.com/sitekit/sitekit/internal/apperr"
	"github.com/sitekit/sitekit/internal/httputil"
	"github.com/sitekit/sitekit/internal/metrics"
	"github.com/sitekit/sitekit/internal/middleware"
	"github.com/sitekit/sitekit/internal/settings"
	"github.com/sitekit/sitekit/internal/store"
)

// userView is the JSON shape for user objects; the password hash stays
// server-side.
type userView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
	Blocked    bool    `json:"blocked"`
	CreatedAt  string  `json:"created_at"`
	LastSeenAt *string `json:"last_seen_at,omitempty"`
}

func viewUser(u *store.User) userView {
	v := userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Blocked:   u.Blocked,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if u.LastSeenAt != nil {
		ts := u.LastSeenAt.UTC().Format(time.RFC3339)
		v.LastSeenAt = &ts
	}
	return v
}

func (s *Server) handleRegister() http.HandlerFunc {
	type request struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.deps.Settings.GetBool(r.Context(), settings.KeyRegistrationEnabled, true) {
			httputil.WriteError(w, apperr.Forbidden("registration is disabled"))
			return
		}

		var req request
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}

		user, token, err := s.deps.Auth.Register(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
			"user":  viewUser(user),
			"token": token,
		})
	}
}

func (s *Server) handleLogin() http.HandlerFunc {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}

		user, token, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			metrics.RecordLogin("rejected")
			s.deps.Logger.LogSecurityEvent(r.Context(), "login_failed", map[string]interface{}{
				"ip": httputil.ClientIP(r),
			})
			httputil.WriteError(w, err)
			return
		}

		metrics.RecordLogin("ok")
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"user":  viewUser(user),
			"token": token,
		})
	}
}

// handleLogout revokes the presented session. Missing or unknown tokens are
// not an error: the session is gone either way.
func (s *Server) handleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := middleware.BearerToken(r); token != "" {
			if err := s.deps.Auth.Logout(r.Context(), token); err != nil {
				s.deps.Logger.WithContext(r.Context()).WithError(err).Warn("logout failed")
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
	}
}

func (s *Server) handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			httputil.WriteError(w, apperr.Unauthorized(""))
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": viewUser(user)})
	}
}

func (s *Server) handleUpdateProfile() http.HandlerFunc {
	type request struct {
		Name string `json:"name"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFrom(r.Context())
		if !ok {
			httputil.WriteError(w, apperr.Unauthorized(""))
			return
		}

		var req request
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}

		if err := s.deps.Auth.UpdateProfile(r.Context(), user, req.Name); err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": viewUser(user)})
	}
}
