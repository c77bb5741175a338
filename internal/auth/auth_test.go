package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatTokenRoundTrip(t *testing.T) {
	s, err := NewSigner(time.Hour)
	require.NoError(t, err)

	gameID := uuid.New()
	token, err := s.CreateSeatToken(gameID, "Alice")
	require.NoError(t, err)

	seat, err := s.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, Seat{GameID: gameID, Player: "Alice"}, seat)
}

func TestSeatTokenRejected(t *testing.T) {
	s, err := NewSigner(time.Minute)
	require.NoError(t, err)
	other, err := NewSigner(time.Minute)
	require.NoError(t, err)

	token, err := other.CreateSeatToken(uuid.New(), "Mallory")
	require.NoError(t, err)
	_, err = s.Authenticate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Authenticate("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, err = s.CreateSeatToken(uuid.New(), "Alice")
	require.NoError(t, err)
	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.Authenticate(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
}

func TestParseTokenTTL(t *testing.T) {
	for in, want := range map[string]time.Duration{"": 0, "never": 0, "0": 0, "72h": 72 * time.Hour} {
		got, err := ParseTokenTTL(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseTokenTTL("soon")
	assert.Error(t, err)
}

func TestPasscode(t *testing.T) {
	hash, err := HashPasscode("web-head")
	require.NoError(t, err)

	ok, err := VerifyPasscode("web-head", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPasscode("venom", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPasscode("x", "plain")
	assert.ErrorIs(t, err, ErrInvalidHash)
}
