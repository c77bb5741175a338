package game

import (
	"context"
	"errors"
	"testing"

	"github.com/jason-s-yu/tabletop/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCardIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.cards.ImportCard(ctx, "01001a")
	require.NoError(t, err)
	assert.Equal(t, "Spider-Man", first.Name)

	second, err := f.cards.ImportCard(ctx, "01001a")
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
	assert.Equal(t, 1, f.catalog.calls(), "second import must not hit the catalog")
}

func TestImportCardErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.cards.ImportCard(ctx, "")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.cards.ImportCard(ctx, "99999")
	assert.ErrorIs(t, err, models.ErrNotFound)

	f.catalog.cards["nameless"] = models.CardInfo{Code: "nameless"}
	_, err = f.cards.ImportCard(ctx, "nameless")
	assert.ErrorIs(t, err, models.ErrExternalFetch)

	card, err := f.cards.GetCard(ctx, "nameless")
	require.NoError(t, err)
	assert.Nil(t, card, "failed imports store nothing")
}

func TestImportCardsBulkFetchesOnlyMissing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.cards.ImportCard(ctx, "01001a")
	require.NoError(t, err)
	before := f.catalog.calls()

	cards, err := f.cards.ImportCardsBulk(ctx, []string{"01001a", "01002b", "01003", "01002b"})
	require.NoError(t, err)
	assert.Len(t, cards, 3)
	assert.Equal(t, 2, f.catalog.calls()-before)

	codes := make([]string, 0, len(cards))
	for _, c := range cards {
		codes = append(codes, c.Code)
	}
	assert.ElementsMatch(t, []string{"01001a", "01002b", "01003"}, codes)

	empty, err := f.cards.ImportCardsBulk(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestImportCardsBulkPropagatesFetchFailure(t *testing.T) {
	f := newFixture()
	_, err := f.cards.ImportCardsBulk(context.Background(), []string{"01001a", "missing"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestImageCachingIsBestEffort(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.catalog.images["01001a"] = []byte("jpeg")
	card, err := f.cards.ImportCard(ctx, "01001a")
	require.NoError(t, err)
	assert.Equal(t, "/img/01001a.jpg", card.ImageRef)
	assert.True(t, f.images.ImageExists("01001a"))

	f.catalog.imageErr = errors.New("connection reset")
	card, err = f.cards.ImportCard(ctx, "01002b")
	require.NoError(t, err, "image failure must not fail the import")
	assert.Empty(t, card.ImageRef)
}

func TestCardImagePath(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.catalog.images["01003"] = []byte("png")
	path, err := f.cards.CardImagePath(ctx, "01003")
	require.NoError(t, err)
	assert.Equal(t, "/img/01003.jpg", path)

	_, err = f.cards.CardImagePath(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListAndSearchCards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.cards.ImportCardsBulk(ctx, []string{"01003", "01001a", "01002b"})
	require.NoError(t, err)

	page, err := f.cards.ListCards(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "01001a", page[0].Code)

	rest, err := f.cards.ListCards(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "01003", rest[0].Code)

	found, err := f.cards.SearchCards(ctx, "WEB")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	got, err := f.cards.GetCards(ctx, []string{"01003", "unknown"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
