package lobby

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tabletop/internal/models"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStarter struct {
	calls   int
	names   []string
	deckIDs []uuid.UUID
}

func (f *fakeStarter) CreateGame(_ context.Context, name string, deckIDs []uuid.UUID, players []string) (models.Game, error) {
	f.calls++
	f.names = players
	f.deckIDs = deckIDs
	return models.Game{ID: uuid.New(), Name: name, ParticipantNames: players}, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes int
	deleted []uuid.UUID
}

func (r *recordingNotifier) LobbyChanged(l models.Lobby, deleted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes++
	if deleted {
		r.deleted = append(r.deleted, l.ID)
	}
}

func newManager() (*LobbyManager, *fakeStarter, *recordingNotifier) {
	logger, _ := logtest.NewNullLogger()
	starter := &fakeStarter{}
	notifier := &recordingNotifier{}
	return NewLobbyManager(NewLobbyStore(), starter, notifier, logger), starter, notifier
}

func TestLobbyStartFlow(t *testing.T) {
	lm, starter, notifier := newManager()
	ctx := context.Background()

	l, err := lm.Create("Friday", "Alice", "")
	require.NoError(t, err)
	_, err = lm.Join(l.ID, "Bob", "")
	require.NoError(t, err)

	aliceDeck, bobDeck := uuid.New(), uuid.New()
	_, err = lm.ChooseDeck(l.ID, "Alice", aliceDeck)
	require.NoError(t, err)
	_, err = lm.ToggleReady(l.ID, "Alice")
	require.NoError(t, err)

	_, err = lm.Start(ctx, l.ID, "Alice")
	assert.ErrorIs(t, err, models.ErrValidation, "Bob has no deck yet")

	_, err = lm.ChooseDeck(l.ID, "Bob", bobDeck)
	require.NoError(t, err)
	_, err = lm.ToggleReady(l.ID, "Bob")
	require.NoError(t, err)

	_, err = lm.Start(ctx, l.ID, "Bob")
	assert.ErrorIs(t, err, models.ErrForbidden)

	g, err := lm.Start(ctx, l.ID, "Alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, starter.names)
	assert.Equal(t, []uuid.UUID{aliceDeck, bobDeck}, starter.deckIDs)

	got, err := lm.Get(l.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.GameID)

	_, err = lm.Start(ctx, l.ID, "Alice")
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = lm.Join(l.ID, "Carol", "")
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, 1, starter.calls)
	assert.Positive(t, notifier.changes)
}

func TestChangingDeckClearsReady(t *testing.T) {
	lm, _, _ := newManager()
	l, err := lm.Create("L", "Alice", "")
	require.NoError(t, err)

	deck := uuid.New()
	_, err = lm.ChooseDeck(l.ID, "Alice", deck)
	require.NoError(t, err)
	l, err = lm.ToggleReady(l.ID, "Alice")
	require.NoError(t, err)
	assert.True(t, l.AllReady())

	l, err = lm.ChooseDeck(l.ID, "Alice", deck)
	require.NoError(t, err)
	assert.True(t, l.AllReady(), "same deck keeps ready")

	l, err = lm.ChooseDeck(l.ID, "Alice", uuid.New())
	require.NoError(t, err)
	assert.False(t, l.AllReady())

	_, err = lm.ChooseDeck(l.ID, "Alice", uuid.Nil)
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = lm.ChooseDeck(l.ID, "Zed", deck)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLeavePassesHostAndDeletesEmptyLobby(t *testing.T) {
	lm, _, notifier := newManager()
	l, err := lm.Create("L", "Alice", "")
	require.NoError(t, err)
	_, err = lm.Join(l.ID, "Bob", "")
	require.NoError(t, err)

	l, err = lm.Leave(l.ID, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Bob", l.Host())

	_, err = lm.Leave(l.ID, "Bob")
	require.NoError(t, err)
	_, err = lm.Get(l.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, []uuid.UUID{l.ID}, notifier.deleted)
	assert.Empty(t, lm.List())
}

func TestPrivateLobbyPasscode(t *testing.T) {
	lm, _, _ := newManager()
	l, err := lm.Create("Secret", "Alice", "sinister-six")
	require.NoError(t, err)
	assert.True(t, l.Private)

	_, err = lm.Join(l.ID, "Bob", "wrong")
	assert.ErrorIs(t, err, models.ErrForbidden)

	l, err = lm.Join(l.ID, "Bob", "sinister-six")
	require.NoError(t, err)
	assert.Len(t, l.Players, 2)

	_, err = lm.Join(l.ID, "Bob", "sinister-six")
	assert.ErrorIs(t, err, models.ErrValidation, "duplicate name")
	_, err = lm.Join(uuid.New(), "Eve", "")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStartedLobbyIsFrozen(t *testing.T) {
	lm, _, _ := newManager()
	l, err := lm.Create("L", "Alice", "")
	require.NoError(t, err)
	deck := uuid.New()
	_, err = lm.ChooseDeck(l.ID, "Alice", deck)
	require.NoError(t, err)
	_, err = lm.ToggleReady(l.ID, "Alice")
	require.NoError(t, err)
	_, err = lm.Start(context.Background(), l.ID, "Alice")
	require.NoError(t, err)

	_, err = lm.ChooseDeck(l.ID, "Alice", uuid.New())
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = lm.ToggleReady(l.ID, "Alice")
	assert.ErrorIs(t, err, models.ErrValidation)

	got, err := lm.Get(l.ID)
	require.NoError(t, err)
	assert.True(t, got.AllReady())
	assert.Equal(t, deck, got.Players[0].DeckID)
}

func TestDeleteLobby(t *testing.T) {
	lm, _, notifier := newManager()
	l, err := lm.Create("L", "Alice", "")
	require.NoError(t, err)
	_, err = lm.Join(l.ID, "Bob", "")
	require.NoError(t, err)

	assert.ErrorIs(t, lm.Delete(l.ID, "Bob"), models.ErrForbidden)
	_, err = lm.Get(l.ID)
	require.NoError(t, err)
	assert.Empty(t, notifier.deleted)

	require.NoError(t, lm.Delete(l.ID, "Alice"))
	_, err = lm.Get(l.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, []uuid.UUID{l.ID}, notifier.deleted)

	assert.ErrorIs(t, lm.Delete(l.ID, "Alice"), models.ErrNotFound)
}
