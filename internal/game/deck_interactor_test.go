package game

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tabletop/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDeck(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	deck, err := f.decks.CreateDeck(ctx, "Test", []models.DeckEntry{{Code: "01001a", Quantity: 2}, {Code: "01002b", Quantity: 1}})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, deck.ID)
	assert.Equal(t, 3, deck.TotalCards())
	assert.Zero(t, f.catalog.calls(), "creating a deck does not import cards")

	stored, err := f.decks.GetDeck(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, deck.Entries, stored.Entries)

	_, err = f.decks.CreateDeck(ctx, "", []models.DeckEntry{{Code: "x", Quantity: 1}})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = f.decks.CreateDeck(ctx, "Empty", nil)
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = f.decks.CreateDeck(ctx, "Zero", []models.DeckEntry{{Code: "x", Quantity: 0}})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestImportDeck(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.catalog.decks["42"] = models.DeckListing{
		ID:      "42",
		URL:     "https://marvelcdb.com/decklist/view/42",
		Entries: []models.DeckEntry{{Code: "01001a", Quantity: 1}, {Code: "01003", Quantity: 3}},
	}
	deck, err := f.decks.ImportDeck(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "Imported Deck 42", deck.Name)
	assert.Equal(t, "https://marvelcdb.com/decklist/view/42", deck.SourceURL)
	assert.Equal(t, 4, deck.TotalCards())

	card, err := f.cards.GetCard(ctx, "01003")
	require.NoError(t, err)
	require.NotNil(t, card, "deck import stores its cards")
}

func TestImportDeckFailures(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.decks.ImportDeck(ctx, "")
	assert.ErrorIs(t, err, models.ErrValidation)

	f.catalog.decks["empty"] = models.DeckListing{ID: "empty", Name: "Nothing"}
	_, err = f.decks.ImportDeck(ctx, "empty")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.decks.ImportDeck(ctx, "unknown")
	assert.ErrorIs(t, err, models.ErrNotFound)

	f.catalog.decks["broken"] = models.DeckListing{ID: "broken", Name: "Broken", Entries: []models.DeckEntry{{Code: "gone", Quantity: 1}}}
	_, err = f.decks.ImportDeck(ctx, "broken")
	require.Error(t, err)
	all, err := f.decks.GetAllDecks(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "no deck is stored when a card import fails")
}

func TestUpdateAndDeleteDeck(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	deck, err := f.decks.CreateDeck(ctx, "Test", []models.DeckEntry{{Code: "01001a", Quantity: 1}})
	require.NoError(t, err)

	deck.Name = "Renamed"
	updated, err := f.decks.UpdateDeck(ctx, deck)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, deck.CreatedAt, updated.CreatedAt)

	_, err = f.decks.UpdateDeck(ctx, models.Deck{Name: "no id"})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = f.decks.UpdateDeck(ctx, models.Deck{ID: uuid.New(), Name: "ghost"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, f.decks.DeleteDeck(ctx, deck.ID))
	_, err = f.decks.GetDeck(ctx, deck.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, f.decks.DeleteDeck(ctx, deck.ID), models.ErrNotFound)
}

func TestGetDeckWithCards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	deck, err := f.decks.CreateDeck(ctx, "Test", []models.DeckEntry{{Code: "01002b", Quantity: 2}, {Code: "01001a", Quantity: 1}})
	require.NoError(t, err)

	dwc, err := f.decks.GetDeckWithCards(ctx, deck.ID)
	require.NoError(t, err)
	require.Len(t, dwc.Cards, 2)
	assert.Equal(t, "01002b", dwc.Cards[0].Code)
	assert.Equal(t, "01001a", dwc.Cards[1].Code)
}

func TestListCatalogDecks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	refs, err := f.decks.ListCatalogDecks(ctx, "good")
	require.NoError(t, err)
	assert.Len(t, refs, 1)

	_, err = f.decks.ListCatalogDecks(ctx, "")
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = f.decks.ListCatalogDecks(ctx, "bad")
	assert.ErrorIs(t, err, models.ErrExternalFetch)
}
