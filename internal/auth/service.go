// Package auth signs users in and validates their session tokens.
//
// Sessions live in the document like every other record. Validation results
// are cached in memory for a short time so that request-heavy callers do not
// load the whole document per token; every cached entry still honors the
// session's own expiry.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/fmea/internal/cascade"
	"github.com/roach88/fmea/internal/model"
	"github.com/roach88/fmea/internal/obs"
	"github.com/roach88/fmea/internal/query"
)

const (
	DefaultSessionTTL = 7 * 24 * time.Hour
	DefaultCacheSize  = 1024
	DefaultCacheTTL   = time.Minute
)

// cachedSession is what a token resolves to.
type cachedSession struct {
	user      model.User
	expiresAt time.Time
}

// Service implements register, login, logout and token validation on top of
// the query layer.
type Service struct {
	db         *query.DB
	sessionTTL time.Duration
	cost       int
	cacheSize  int
	cacheTTL   time.Duration
	cache      *expirable.LRU[string, cachedSession]
}

// Option configures a Service.
type Option func(*Service)

// WithSessionTTL sets how long new sessions stay valid.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithBcryptCost overrides bcrypt.DefaultCost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

// WithCache sizes the session validation cache. A size of 0 disables it.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheSize = size
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// NewService returns a Service backed by db.
func NewService(db *query.DB, opts ...Option) *Service {
	s := &Service{
		db:         db,
		sessionTTL: DefaultSessionTTL,
		cost:       bcrypt.DefaultCost,
		cacheSize:  DefaultCacheSize,
		cacheTTL:   DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cacheSize > 0 {
		s.cache = expirable.NewLRU[string, cachedSession](s.cacheSize, nil, s.cacheTTL)
	}
	return s
}

// Register creates a standard user with a hashed password.
func (s *Service) Register(ctx context.Context, email, name, password string) (model.User, error) {
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return model.User{}, fmt.Errorf("register: %w", err)
	}
	u, err := s.db.CreateUser(ctx, model.User{Email: email, Name: name, PasswordHash: hash})
	if err != nil {
		return model.User{}, fmt.Errorf("register: %w", err)
	}
	return u, nil
}

// Login checks the password and starts a new session.
func (s *Service) Login(ctx context.Context, email, password string) (model.Session, error) {
	u, err := s.db.GetUserByEmail(ctx, email)
	if errors.Is(err, query.ErrNotFound) {
		slog.Info("login rejected", "reason", "unknown email")
		return model.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("login: %w", err)
	}
	if err := VerifyPassword(u.PasswordHash, password); err != nil {
		slog.Info("login rejected", "reason", "password mismatch", "user_id", u.ID)
		return model.Session{}, err
	}

	sess, err := s.db.CreateSession(ctx, u.ID, s.sessionTTL)
	if err != nil {
		return model.Session{}, fmt.Errorf("login: %w", err)
	}
	slog.Info("user logged in", "user_id", u.ID, "expires_at", sess.ExpiresAt)
	return sess, nil
}

// Authenticate resolves a session token to its user.
//
// A validated token is cached for up to the cache TTL. Deleting a user or
// their sessions through Service drops their cached tokens at once; deletions
// made directly on the query layer are only seen once the entry expires.
func (s *Service) Authenticate(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, ErrInvalidSession
	}
	now := s.db.Now()

	if s.cache != nil {
		if hit, ok := s.cache.Get(token); ok {
			if hit.expiresAt.After(now) {
				obs.SessionCacheHits.Inc()
				return hit.user, nil
			}
			s.cache.Remove(token)
		}
		obs.SessionCacheMisses.Inc()
	}

	sess, err := s.db.GetSessionByToken(ctx, token)
	if errors.Is(err, query.ErrNotFound) {
		return model.User{}, ErrInvalidSession
	}
	if err != nil {
		return model.User{}, fmt.Errorf("authenticate: %w", err)
	}
	u, err := s.db.GetUserByID(ctx, sess.UserID)
	if errors.Is(err, query.ErrNotFound) {
		return model.User{}, ErrInvalidSession
	}
	if err != nil {
		return model.User{}, fmt.Errorf("authenticate: %w", err)
	}

	if s.cache != nil {
		s.cache.Add(token, cachedSession{user: u, expiresAt: sess.ExpiresAt})
	}
	return u, nil
}

// Logout ends the session. Logging out an unknown token is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if s.cache != nil {
		s.cache.Remove(token)
	}
	err := s.db.DeleteSession(ctx, token)
	if err != nil && !errors.Is(err, query.ErrNotFound) {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// ChangePassword replaces the user's password after checking the current one
// and ends all of the user's sessions.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := VerifyPassword(u.PasswordHash, current); err != nil {
		return err
	}
	hash, err := HashPassword(next, s.cost)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if _, err := s.db.UpdateUser(ctx, userID, func(u *model.User) { u.PasswordHash = hash }); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	n, err := s.db.DeleteSessionsByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	s.forgetUser(userID)
	slog.Info("password changed", "user_id", userID, "sessions_ended", n)
	return nil
}

// DeleteUser deletes the user with their sessions and dependents, and drops
// their cached tokens.
func (s *Service) DeleteUser(ctx context.Context, userID string) (cascade.Report, error) {
	report, err := s.db.DeleteUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	s.forgetUser(userID)
	slog.Info("user deleted", "user_id", userID, "records", report.Total())
	return report, nil
}

// forgetUser removes every cached token that resolves to userID.
func (s *Service) forgetUser(userID string) {
	if s.cache == nil {
		return
	}
	for _, token := range s.cache.Keys() {
		if hit, ok := s.cache.Peek(token); ok && hit.user.ID == userID {
			s.cache.Remove(token)
		}
	}
}

// PurgeExpired deletes expired sessions and returns how many were removed.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	n, err := s.db.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	if n > 0 {
		slog.Info("purged expired sessions", "count", n)
	}
	return n, nil
}
