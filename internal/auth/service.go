// Package auth implements email/password authentication with JWT bearer
// tokens backed by server-side sessions. Only the SHA-256 of a token is ever
// persisted; revoking the session invalidates the token before its JWT
// expiry.
package auth

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/sitekit/sitekit/internal/apperr"
	"github.com/sitekit/sitekit/internal/hook"
	"github.com/sitekit/sitekit/internal/sanitize"
	"github.com/sitekit/sitekit/internal/store"
)

// Hook names fired by the auth service.
const (
	HookUserRegistered = "user.registered"
	HookUserLoggedIn   = "user.logged_in"
	HookUserBlocked    = "user.blocked"
	HookUserUnblocked  = "user.unblocked"
)

// Claims are the JWT claims carried by sitekit tokens. The user ID rides in
// the registered subject.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Options tune the auth service.
type Options struct {
	Secret         []byte
	TokenTTL       time.Duration
	Issuer         string
	DefaultRole    string
	MinPasswordLen int
	LastSeenEvery  time.Duration
}

// Service performs registration, login and token verification.
type Service struct {
	store *store.Store
	hooks *hook.Registry
	opts  Options
}

// NewService wires the auth service.
func NewService(st *store.Store, hooks *hook.Registry, opts Options) *Service {
	if hooks == nil {
		hooks = hook.Default
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Issuer == "" {
		opts.Issuer = "sitekit"
	}
	if opts.DefaultRole == "" {
		opts.DefaultRole = "user"
	}
	if opts.MinPasswordLen <= 0 {
		opts.MinPasswordLen = 8
	}
	if opts.LastSeenEvery <= 0 {
		opts.LastSeenEvery = time.Minute
	}
	return &Service{store: st, hooks: hooks, opts: opts}
}

// HashToken returns the hex SHA-256 of a bearer token, the only form stored
// server-side.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Register creates a new account and logs it in, returning the user and a
// bearer token.
func (s *Service) Register(ctx context.Context, name, email, password string) (*store.User, string, error) {
	name = sanitize.Text(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, "", apperr.Validation("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", apperr.Validation("a valid email is required")
	}
	if len(password) < s.opts.MinPasswordLen {
		return nil, "", apperr.Validation(fmt.Sprintf("password must be at least %d characters", s.opts.MinPasswordLen))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperr.Internal("hash password", err)
	}

	user := &store.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         s.opts.DefaultRole,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if store.IsUniqueViolation(err) {
			return nil, "", apperr.Conflict("email already registered")
		}
		return nil, "", err
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}

	s.hooks.DoAction(ctx, HookUserRegistered, user.ID)
	return user, token, nil
}

// Login verifies credentials and returns the user and a fresh bearer token.
// Failures are reported uniformly so callers cannot probe which emails exist.
func (s *Service) Login(ctx context.Context, email, password string) (*store.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", apperr.Unauthorized("invalid credentials")
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperr.Unauthorized("invalid credentials")
	}
	if user.Blocked {
		return nil, "", apperr.Forbidden("account is blocked")
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}

	s.hooks.DoAction(ctx, HookUserLoggedIn, user.ID)
	return user, token, nil
}

// Logout revokes the session behind the given token. Unknown tokens are a
// no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.store.DeleteSessionByTokenHash(ctx, HashToken(token))
}

// Verify validates a bearer token: JWT signature and expiry first, then the
// backing session row, then the user's blocked flag. Session activity is
// refreshed on success.
func (s *Service) Verify(ctx context.Context, token string) (*store.User, *store.Session, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, nil, apperr.Unauthorized("invalid token")
	}

	session, err := s.store.GetSessionByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperr.Unauthorized("session expired")
		}
		return nil, nil, err
	}
	if session.UserID != claims.Subject {
		return nil, nil, apperr.Unauthorized("invalid token")
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperr.Unauthorized("invalid token")
		}
		return nil, nil, err
	}
	if user.Blocked {
		_ = s.store.DeleteUserSessions(ctx, user.ID)
		return nil, nil, apperr.Forbidden("account is blocked")
	}

	_ = s.store.TouchSession(ctx, session.ID)
	return user, session, nil
}

// Block marks the user blocked and revokes every live session.
func (s *Service) Block(ctx context.Context, userID string) error {
	if err := s.store.SetUserBlocked(ctx, userID, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("user")
		}
		return err
	}
	if err := s.store.DeleteUserSessions(ctx, userID); err != nil {
		return err
	}
	s.hooks.DoAction(ctx, HookUserBlocked, userID)
	return nil
}

// Unblock clears the blocked flag.
func (s *Service) Unblock(ctx context.Context, userID string) error {
	if err := s.store.SetUserBlocked(ctx, userID, false); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("user")
		}
		return err
	}
	s.hooks.DoAction(ctx, HookUserUnblocked, userID)
	return nil
}

// UpdateProfile renames the user, mutating u on success.
func (s *Service) UpdateProfile(ctx context.Context, u *store.User, name string) error {
	name = sanitize.Text(name)
	if name == "" {
		return apperr.Validation("name is required")
	}
	if err := s.store.UpdateUserProfile(ctx, u.ID, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("user")
		}
		return err
	}
	u.Name = name
	return nil
}

// TouchLastSeen stamps last_seen_at, throttled so a busy user costs one
// write per LastSeenEvery window instead of one per request.
func (s *Service) TouchLastSeen(ctx context.Context, user *store.User) error {
	now := time.Now().UTC()
	if user.LastSeenAt != nil && now.Sub(*user.LastSeenAt) < s.opts.LastSeenEvery {
		return nil
	}
	return s.store.TouchLastSeen(ctx, user.ID, now)
}

func (s *Service) issueToken(ctx context.Context, user *store.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.opts.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.Secret)
	if err != nil {
		return "", apperr.Internal("sign token", err)
	}

	session := &store.Session{
		UserID:    user.ID,
		TokenHash: HashToken(token),
		ExpiresAt: now.Add(s.opts.TokenTTL),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) parseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.opts.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
