package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sitekit/sitekit/internal/apperr"
	"github.com/sitekit/sitekit/internal/auth"
	"github.com/sitekit/sitekit/internal/authz"
	"github.com/sitekit/sitekit/internal/httputil"
	"github.com/sitekit/sitekit/internal/metrics"
	"github.com/sitekit/sitekit/internal/settings"
)

// MaintenancePagePath serves the static maintenance page; it must stay
// reachable while the gate is closed.
const MaintenancePagePath = "/maintenance"

// maintenanceExempt paths stay reachable during maintenance so probes and
// scraping keep working.
var maintenanceExempt = map[string]bool{
	"/health":             true,
	"/metrics":            true,
	MaintenancePagePath:   true,
	"/api/v1/auth/login":  true,
	"/api/v1/auth/logout": true,
}

// Maintenance turns non-exempt traffic away while the maintenance_mode
// setting is on. Users passing the bypass gate go through; browsers get a
// redirect to the maintenance page, API clients a JSON 503.
//
// Maintenance runs ahead of Authenticate on the router, so when the gate is
// closed and a bearer token is present it verifies the token itself to
// resolve the bypass gate. Admins must always be able to reach the toggle
// and turn maintenance back off.
func Maintenance(settingsSvc *settings.Service, gates *authz.Gates, authSvc *auth.Service) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maintenanceExempt[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			if !settingsSvc.MaintenanceMode(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			if role, ok := callerRole(r, authSvc); ok {
				if gates.Allows(r.Context(), role, authz.GateBypassMaintenance) {
					next.ServeHTTP(w, r)
					return
				}
			}

			metrics.RecordMaintenanceRejection()
			if httputil.WantsHTML(r) {
				http.Redirect(w, r, MaintenancePagePath, http.StatusFound)
				return
			}
			w.Header().Set("Retry-After", "300")
			httputil.WriteError(w, apperr.Maintenance(settingsSvc.MaintenanceMessage(r.Context())))
		})
	}
}

// callerRole resolves the requester's role: from the context when an earlier
// Authenticate already ran, otherwise by verifying the bearer token.
func callerRole(r *http.Request, authSvc *auth.Service) (string, bool) {
	if user, ok := UserFrom(r.Context()); ok {
		return user.Role, true
	}
	token := BearerToken(r)
	if token == "" || authSvc == nil {
		return "", false
	}
	user, _, err := authSvc.Verify(r.Context(), token)
	if err != nil {
		return "", false
	}
	return user.Role, true
}
