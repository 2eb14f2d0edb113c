package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/sitekit/sitekit/internal/apperr"
	"github.com/sitekit/sitekit/internal/auth"
	"github.com/sitekit/sitekit/internal/httputil"
	"github.com/sitekit/sitekit/internal/logging"
)

// Authenticate verifies the bearer token on each request and stores the
// authenticated user on the context. Blocked accounts surface as 403 from
// the auth service, which also revokes their remaining sessions.
func Authenticate(authSvc *auth.Service, logger *logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				httputil.WriteError(w, apperr.Unauthorized("missing authorization"))
				return
			}

			user, _, err := authSvc.Verify(r.Context(), token)
			if err != nil {
				logger.WithContext(r.Context()).WithError(err).Warn("token verification failed")
				httputil.WriteError(w, err)
				return
			}

			ctx := WithUser(r.Context(), user)
			ctx = logging.WithUser(ctx, user.ID, user.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header. Non-Bearer
// schemes yield the empty string.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
