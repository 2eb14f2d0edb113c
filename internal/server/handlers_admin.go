package server

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sitekit/sitekit/internal/apperr"
	"github.com/sitekit/sitekit/internal/authz"
	"github.com/sitekit/sitekit/internal/httputil"
	"github.com/sitekit/sitekit/internal/middleware"
	"github.com/sitekit/sitekit/internal/settings"
)

func (s *Server) handleListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := s.deps.Store.ListUsers(r.Context())
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		out := make([]userView, 0, len(users))
		for i := range users {
			out = append(out, viewUser(&users[i]))
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": out})
	}
}

// handleBlockUser blocks or unblocks the target account. Admins cannot block
// themselves; that would revoke the session doing the blocking.
func (s *Server) handleBlockUser(block bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID := mux.Vars(r)["id"]
		if actor, ok := middleware.UserFrom(r.Context()); ok && actor.ID == targetID {
			httputil.WriteError(w, apperr.Validation("cannot block your own account"))
			return
		}

		var err error
		if block {
			err = s.deps.Auth.Block(r.Context(), targetID)
		} else {
			err = s.deps.Auth.Unblock(r.Context(), targetID)
		}
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"id": targetID, "blocked": block})
	}
}

func (s *Server) handleSetRole() http.HandlerFunc {
	type request struct {
		Role string `json:"role"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
		switch req.Role {
		case authz.RoleSuperAdmin, authz.RoleAdmin, authz.RoleUser:
		default:
			httputil.WriteError(w, apperr.Validation("unknown role").WithDetails("role", req.Role))
			return
		}

		targetID := mux.Vars(r)["id"]
		if actor, ok := middleware.UserFrom(r.Context()); ok && actor.ID == targetID {
			httputil.WriteError(w, apperr.Validation("cannot change your own role"))
			return
		}

		if err := s.deps.Store.SetUserRole(r.Context(), targetID, req.Role); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = apperr.NotFound("user")
			}
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"id": targetID, "role": req.Role})
	}
}

func (s *Server) handleListSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := s.deps.Settings.All(r.Context(), false)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"settings": rows})
	}
}

func (s *Server) handleGetSetting() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		value, err := s.deps.Settings.Get(r.Context(), settings.Key(name))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"name": name, "value": value})
	}
}

func (s *Server) handlePutSetting() http.HandlerFunc {
	type request struct {
		Value string `json:"value"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}

		name := mux.Vars(r)["name"]
		if err := s.deps.Settings.Put(r.Context(), settings.Key(name), req.Value); err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"name": name, "value": req.Value})
	}
}

func (s *Server) handleDeleteSetting() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		if err := s.deps.Settings.Delete(r.Context(), settings.Key(name)); err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"name": name, "status": "deleted"})
	}
}

func (s *Server) handleSetMaintenance() http.HandlerFunc {
	type request struct {
		Enabled bool `json:"enabled"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
		if err := s.deps.Settings.SetMaintenanceMode(r.Context(), req.Enabled); err != nil {
			httputil.WriteError(w, err)
			return
		}
		s.deps.Logger.WithContext(r.Context()).WithField("enabled", req.Enabled).Info("maintenance mode changed")
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"maintenance": req.Enabled})
	}
}

func (s *Server) handleFlushCache() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.deps.Cache.Flush(r.Context()); err != nil {
			httputil.WriteError(w, err)
			return
		}
		s.deps.Logger.WithContext(r.Context()).Info("site cache flushed")
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
	}
}
