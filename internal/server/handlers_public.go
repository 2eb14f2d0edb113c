package server

import (
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/sitekit/sitekit/internal/httputil"
	"github.com/sitekit/sitekit/internal/settings"
)

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		code := http.StatusOK
		if err := s.deps.Store.DB().PingContext(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, map[string]interface{}{
			"status":    status,
			"service":   "sitekit",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// handleMaintenancePage renders the static page browsers are redirected to
// while maintenance mode is on. It stays up regardless of the flag so the
// redirect target never 503s.
func (s *Server) handleMaintenancePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteName, err := s.deps.Settings.Get(r.Context(), settings.KeySiteName)
		if err != nil {
			siteName = settings.Defaults[settings.KeySiteName].Value
		}
		message := s.deps.Settings.MaintenanceMessage(r.Context())

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Retry-After", "300")
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>%s - Maintenance</title></head>
<body><h1>%s</h1><p>%s</p></body>
</html>
`, html.EscapeString(siteName), html.EscapeString(siteName), html.EscapeString(message))
	}
}

// handlePublicSettings lists the settings flagged public, for anonymous
// clients bootstrapping the UI.
func (s *Server) handlePublicSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := s.deps.Settings.All(r.Context(), true)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		out := make(map[string]string, len(rows))
		for _, row := range rows {
			out[row.Name] = row.Value
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"settings": out})
	}
}
