// Package middleware provides the HTTP middleware chain: request logging,
// metrics, CORS, authentication, role gates, maintenance gating, last-seen
// tracking and login rate limiting.
package middleware

import (
	"context"
	"net/http"

	"github.com/sitekit/sitekit/internal/store"
)

type contextKey string

const userKey contextKey = "auth_user"

// WithUser stores the authenticated user on the request context.
func WithUser(ctx context.Context, user *store.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom returns the authenticated user from the context, if any.
func UserFrom(ctx context.Context) (*store.User, bool) {
	user, ok := ctx.Value(userKey).(*store.User)
	return user, ok
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
