package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t, "ada@example.com")

	s, err := e.db.CreateSession(e.ctx, u.ID, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "tok-0001", s.Token)
	assert.Equal(t, s.CreatedAt.Add(time.Hour), s.ExpiresAt)

	got, err := e.db.GetSessionByToken(e.ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestCreateSession_Validation(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t, "ada@example.com")

	_, err := e.db.CreateSession(e.ctx, "ghost", time.Hour)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.db.CreateSession(e.ctx, u.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetSessionByToken_Expired(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t, "ada@example.com")
	s, err := e.db.CreateSession(e.ctx, u.ID, time.Hour)
	require.NoError(t, err)

	e.clock.Advance(time.Hour)

	_, err = e.db.GetSessionByToken(e.ctx, s.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotContains(t, err.Error(), s.Token, "tokens must not leak into errors")

	// Lazily expired: still on disk until swept.
	counts, err := e.db.Counts(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["sessions"])
}

func TestGetSessionByToken_Unknown(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.db.GetSessionByToken(e.ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSession(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t, "ada@example.com")
	s, err := e.db.CreateSession(e.ctx, u.ID, time.Hour)
	require.NoError(t, err)

	require.NoError(t, e.db.DeleteSession(e.ctx, s.Token))

	_, err = e.db.GetSessionByToken(e.ctx, s.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, e.db.DeleteSession(e.ctx, s.Token), ErrNotFound)
}

func TestDeleteSessionsByUserID(t *testing.T) {
	e := newTestEnv(t)
	ada := e.user(t, "ada@example.com")
	bob := e.user(t, "bob@example.com")
	for i := 0; i < 3; i++ {
		_, err := e.db.CreateSession(e.ctx, ada.ID, time.Hour)
		require.NoError(t, err)
	}
	keep, err := e.db.CreateSession(e.ctx, bob.ID, time.Hour)
	require.NoError(t, err)

	n, err := e.db.DeleteSessionsByUserID(e.ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = e.db.GetSessionByToken(e.ctx, keep.Token)
	assert.NoError(t, err)
}

func TestDeleteExpiredSessions(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t, "ada@example.com")
	short, err := e.db.CreateSession(e.ctx, u.ID, time.Minute)
	require.NoError(t, err)
	long, err := e.db.CreateSession(e.ctx, u.ID, 24*time.Hour)
	require.NoError(t, err)

	e.clock.Advance(time.Hour)

	n, err := e.db.DeleteExpiredSessions(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = e.db.GetSessionByToken(e.ctx, long.Token)
	assert.NoError(t, err)
	_, err = e.db.GetSessionByToken(e.ctx, short.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}
