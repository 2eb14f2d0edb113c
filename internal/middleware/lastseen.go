package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sitekit/sitekit/internal/auth"
	"github.com/sitekit/sitekit/internal/logging"
)

// LastSeen stamps the authenticated user's last_seen_at after the handler
// runs. The auth service throttles writes, so most requests cost nothing.
// Must run after Authenticate; unauthenticated requests pass through.
func LastSeen(authSvc *auth.Service, logger *logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			user, ok := UserFrom(r.Context())
			if !ok {
				return
			}
			if err := authSvc.TouchLastSeen(r.Context(), user); err != nil {
				logger.WithContext(r.Context()).WithError(err).Warn("last-seen update failed")
			}
		})
	}
}
