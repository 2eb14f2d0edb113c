package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sitekit/sitekit/internal/apperr"
	"github.com/sitekit/sitekit/internal/authz"
	"github.com/sitekit/sitekit/internal/httputil"
)

// RequireGate rejects requests whose authenticated user does not pass the
// named gate. Must run after Authenticate.
func RequireGate(gates *authz.Gates, gate string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFrom(r.Context())
			if !ok {
				httputil.WriteError(w, apperr.Unauthorized(""))
				return
			}
			if !gates.Allows(r.Context(), user.Role, gate) {
				httputil.WriteError(w, apperr.Forbidden("").WithDetails("gate", gate))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
