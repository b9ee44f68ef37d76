package query

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/fmea/internal/model"
)

// CreateSession starts a session for userID that expires after ttl.
func (db *DB) CreateSession(ctx context.Context, userID string, ttl time.Duration) (model.Session, error) {
	if ttl <= 0 {
		return model.Session{}, invalid("session ttl must be positive, got %s", ttl)
	}
	var s model.Session
	err := db.update(ctx, "create session", func(doc *model.Document) error {
		if !exists(doc.Users, userID) {
			return notFound("user", userID)
		}
		now := db.now()
		s = model.Session{
			ID:        db.newID(),
			UserID:    userID,
			Token:     db.newToken(),
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
		}
		doc.Sessions = append(doc.Sessions, s)
		return nil
	})
	if err != nil {
		return model.Session{}, err
	}
	return s, nil
}

// GetSessionByToken returns the live session for token. Expired sessions are
// reported as ErrNotFound and left on disk for DeleteExpiredSessions.
func (db *DB) GetSessionByToken(ctx context.Context, token string) (model.Session, error) {
	var out model.Session
	err := db.view(ctx, "get session", func(doc *model.Document) error {
		now := db.now()
		for _, s := range doc.Sessions {
			if s.Token == token && !s.Expired(now) {
				out = s
				return nil
			}
		}
		return fmt.Errorf("session: %w", ErrNotFound)
	})
	return out, err
}

// DeleteSession removes the session holding token.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	return db.update(ctx, "delete session", func(doc *model.Document) error {
		var n int
		doc.Sessions, n = model.RemoveIf(doc.Sessions, func(s model.Session) bool { return s.Token == token })
		if n == 0 {
			return fmt.Errorf("session: %w", ErrNotFound)
		}
		return nil
	})
}

// DeleteSessionsByUserID removes every session of the user and returns how
// many were removed.
func (db *DB) DeleteSessionsByUserID(ctx context.Context, userID string) (int, error) {
	var removed int
	err := db.update(ctx, "delete sessions", func(doc *model.Document) error {
		doc.Sessions, removed = model.RemoveIf(doc.Sessions, func(s model.Session) bool { return s.UserID == userID })
		return nil
	})
	return removed, err
}

// DeleteExpiredSessions sweeps sessions that are expired at the current time.
func (db *DB) DeleteExpiredSessions(ctx context.Context) (int, error) {
	var removed int
	err := db.update(ctx, "delete expired sessions", func(doc *model.Document) error {
		now := db.now()
		doc.Sessions, removed = model.RemoveIf(doc.Sessions, func(s model.Session) bool { return s.Expired(now) })
		return nil
	})
	return removed, err
}
