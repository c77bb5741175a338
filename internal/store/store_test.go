package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tabletop/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardStore(t *testing.T) {
	ctx := context.Background()
	s := NewCardStore()

	for _, c := range []models.Card{
		{Code: "01002", Name: "Web-Shooter"},
		{Code: "01001", Name: "Spider-Man"},
		{Code: "01003", Name: "Web Kick"},
	} {
		require.NoError(t, s.Save(ctx, c))
	}

	c, err := s.FindByCode(ctx, "01001")
	require.NoError(t, err)
	assert.Equal(t, "Spider-Man", c.Name)
	_, err = s.FindByCode(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)

	found, err := s.FindByCodes(ctx, []string{"01003", "nope", "01001"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	existing, err := s.ExistingCodes(ctx, []string{"01002", "zzz"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"01002": true}, existing)

	page, err := s.FindAll(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "01002", page[0].Code)
	assert.Equal(t, "01003", page[1].Code)

	beyond, err := s.FindAll(ctx, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond)

	web, err := s.SearchByName(ctx, "web")
	require.NoError(t, err)
	assert.Len(t, web, 2)

	require.NoError(t, s.Delete(ctx, "01001"))
	assert.ErrorIs(t, s.Delete(ctx, "01001"), models.ErrNotFound)
}

func TestDeckStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewDeckStore()

	d, err := models.NewDeck("Test", []models.DeckEntry{{Code: "a", Quantity: 1}})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, d))

	d.Entries[0].Quantity = 9
	got, err := s.FindByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Entries[0].Quantity)

	got.Entries[0].Code = "mutated"
	again, err := s.FindByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Entries[0].Code)

	_, err = s.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)

	all, err := s.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	require.NoError(t, s.Delete(ctx, d.ID))
	assert.ErrorIs(t, s.Delete(ctx, d.ID), models.ErrNotFound)
}

func TestGameStoreRecent(t *testing.T) {
	ctx := context.Background()
	s := NewGameStore()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := range 3 {
		state := models.NewGameState([]models.PlayerZones{models.NewPlayerZones("A", []string{"x"})})
		g, err := models.NewGame("g", []string{"A"}, nil, state, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, s.Save(ctx, g))
		ids = append(ids, g.ID)
	}

	recent, err := s.FindRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ids[2], recent[0].ID)
	assert.Equal(t, ids[1], recent[1].ID)

	all, err := s.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[0], all[0].ID)

	g, err := s.FindByID(ctx, ids[0])
	require.NoError(t, err)
	g.State.Players[0].Deck[0] = "changed"
	stored, err := s.FindByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "x", stored.State.Players[0].Deck[0])

	require.NoError(t, s.Delete(ctx, ids[0]))
	_, err = s.FindByID(ctx, ids[0])
	assert.ErrorIs(t, err, models.ErrNotFound)
}
