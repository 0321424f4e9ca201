package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiredesk/internal/authflow"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func signToken(t *testing.T, email string, exp time.Time) string {
	t.Helper()
	claims := tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestOpenCreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, filepath.Join(dir, "nested", "session.db"), s.Path())
	assert.FileExists(t, s.Path())
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadSession()
	assert.ErrorIs(t, err, ErrNoSession)

	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	tok := signToken(t, "ada@example.com", exp)
	require.NoError(t, s.SaveSession(Session{Token: tok}))

	got, err := s.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email, "email comes from the token when not given")
	assert.Equal(t, tok, got.Token)
	assert.True(t, got.ExpiresAt.Equal(exp))
	assert.False(t, got.IssuedAt.IsZero())
	assert.False(t, got.Expired(time.Now()))
	assert.True(t, got.Expired(exp))
}

func TestSaveSessionReplaces(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveSession(Session{Email: "a@example.com", Token: "opaque-1"}))
	require.NoError(t, s.SaveSession(Session{Email: "b@example.com", Token: "opaque-2"}))

	got, err := s.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", got.Email)
	assert.True(t, got.ExpiresAt.IsZero(), "opaque tokens carry no expiry")
	assert.False(t, got.Expired(time.Now()))
}

func TestSaveSessionRequiresTokenOrEmail(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.SaveSession(Session{}))
}

func TestSaveSessionWithoutToken(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveSession(Session{Email: "a@example.com"}))

	got, err := s.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)
	assert.Empty(t, got.Token)
	assert.False(t, got.IssuedAt.IsZero())
	assert.True(t, got.ExpiresAt.IsZero())
}

func TestClearSession(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.ClearSession())

	require.NoError(t, s.SaveSession(Session{Email: "a@example.com", Token: "t"}))
	require.NoError(t, s.ClearSession())
	_, err := s.LoadSession()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestPendingRoundTrip(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadPending(authflow.FlowRecovery)
	assert.ErrorIs(t, err, ErrNoPending)

	require.NoError(t, s.SavePending(Pending{
		Flow:     authflow.FlowRecovery,
		Cursor:   authflow.StepReset.Cursor(),
		Identity: "ada@example.com",
	}))

	p, err := s.LoadPending(authflow.FlowRecovery)
	require.NoError(t, err)
	st := p.State()
	assert.Equal(t, authflow.FlowRecovery, st.Flow)
	assert.Equal(t, authflow.StepReset, st.Step)
	assert.Equal(t, "ada@example.com", st.Identity)

	// flows are stored independently
	_, err = s.LoadPending(authflow.FlowLogin)
	assert.ErrorIs(t, err, ErrNoPending)

	require.NoError(t, s.ClearPending(authflow.FlowRecovery))
	_, err = s.LoadPending(authflow.FlowRecovery)
	assert.ErrorIs(t, err, ErrNoPending)
}

func TestSavePendingAtEntryClears(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SavePending(Pending{Flow: authflow.FlowLogin, Cursor: 1, Identity: "a@example.com"}))
	require.NoError(t, s.SavePending(Pending{Flow: authflow.FlowLogin, Cursor: 0, Identity: "a@example.com"}))

	_, err := s.LoadPending(authflow.FlowLogin)
	assert.ErrorIs(t, err, ErrNoPending)
}

func TestPendingUnknownCursorRestoresEntry(t *testing.T) {
	p := Pending{Flow: authflow.FlowLogin, Cursor: 7, Identity: "a@example.com"}
	assert.Equal(t, authflow.StepEntry, p.State().Step)
}

func TestClearAllPending(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SavePending(Pending{Flow: authflow.FlowLogin, Cursor: 1, Identity: "a@example.com"}))
	require.NoError(t, s.SavePending(Pending{Flow: authflow.FlowRecovery, Cursor: 2, Identity: "a@example.com"}))
	require.NoError(t, s.ClearAllPending())

	for _, f := range []authflow.Flow{authflow.FlowLogin, authflow.FlowRecovery} {
		_, err := s.LoadPending(f)
		assert.ErrorIs(t, err, ErrNoPending)
	}
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	c, err := ParseClaims(signToken(t, "ada@example.com", exp))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", c.Subject)
	assert.Equal(t, "ada@example.com", c.Email)
	assert.True(t, c.ExpiresAt.Equal(exp))

	_, err = ParseClaims("not-a-jwt")
	assert.Error(t, err)
}
