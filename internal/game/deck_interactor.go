// internal/game/deck_interactor.go
package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tabletop/internal/models"
	"github.com/sirupsen/logrus"
)

// DeckWithCards is a deck joined with the card records it references.
type DeckWithCards struct {
	Deck  models.Deck   `json:"deck"`
	Cards []models.Card `json:"cards"`
}

// DeckInteractor builds, imports and stores decks.
type DeckInteractor struct {
	decks   DeckRepository
	cards   *CardInteractor
	catalog Catalog
	logger  logrus.FieldLogger
	now     func() time.Time
}

// NewDeckInteractor wires a DeckInteractor.
func NewDeckInteractor(decks DeckRepository, cards *CardInteractor, catalog Catalog, logger logrus.FieldLogger) *DeckInteractor {
	return &DeckInteractor{
		decks:   decks,
		cards:   cards,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateDeck stores a new deck. The referenced cards do not have to be imported yet.
func (di *DeckInteractor) CreateDeck(ctx context.Context, name string, entries []models.DeckEntry) (models.Deck, error) {
	if name == "" {
		return models.Deck{}, fmt.Errorf("%w: deck name cannot be empty", models.ErrValidation)
	}
	if len(entries) == 0 {
		return models.Deck{}, fmt.Errorf("%w: deck needs at least one card", models.ErrValidation)
	}
	deck, err := models.NewDeck(name, entries)
	if err != nil {
		return models.Deck{}, err
	}
	return di.insert(ctx, deck)
}

// ImportDeck copies a published deck from the catalog, importing its cards first so the
// stored deck never references a card that could not be fetched.
func (di *DeckInteractor) ImportDeck(ctx context.Context, externalID string) (models.Deck, error) {
	if externalID == "" {
		return models.Deck{}, fmt.Errorf("%w: external deck id cannot be empty", models.ErrValidation)
	}
	listing, err := di.catalog.GetDeckCards(ctx, externalID)
	if err != nil {
		return models.Deck{}, asFetchError(err, "fetch deck "+externalID)
	}
	if len(listing.Entries) == 0 {
		return models.Deck{}, fmt.Errorf("%w: no cards found for deck %s", models.ErrValidation, externalID)
	}

	name := listing.Name
	if name == "" {
		name = "Imported Deck " + externalID
	}
	deck, err := models.NewDeck(name, listing.Entries)
	if err != nil {
		return models.Deck{}, err
	}
	deck.SourceURL = listing.URL

	if _, err := di.cards.ImportCardsBulk(ctx, deck.CardCodes()); err != nil {
		return models.Deck{}, fmt.Errorf("import cards of deck %s: %w", externalID, err)
	}
	return di.insert(ctx, deck)
}

// ListCatalogDecks lists the decks owned by the catalog account behind accessToken.
func (di *DeckInteractor) ListCatalogDecks(ctx context.Context, accessToken string) ([]models.DeckRef, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: catalog access token required", models.ErrValidation)
	}
	refs, err := di.catalog.GetUserDecks(ctx, accessToken)
	if err != nil {
		return nil, asFetchError(err, "list catalog decks")
	}
	return refs, nil
}

// GetDeck loads a deck by id.
func (di *DeckInteractor) GetDeck(ctx context.Context, id uuid.UUID) (models.Deck, error) {
	deck, err := di.decks.FindByID(ctx, id)
	if err != nil {
		return models.Deck{}, fmt.Errorf("get deck %s: %w", id, err)
	}
	return deck, nil
}

// GetAllDecks lists every stored deck.
func (di *DeckInteractor) GetAllDecks(ctx context.Context) ([]models.Deck, error) {
	return di.decks.FindAll(ctx)
}

// UpdateDeck replaces a stored deck with deck. There is no partial update.
func (di *DeckInteractor) UpdateDeck(ctx context.Context, deck models.Deck) (models.Deck, error) {
	if deck.ID == uuid.Nil {
		return models.Deck{}, fmt.Errorf("%w: deck id required", models.ErrValidation)
	}
	if err := deck.Validate(); err != nil {
		return models.Deck{}, err
	}
	current, err := di.GetDeck(ctx, deck.ID)
	if err != nil {
		return models.Deck{}, err
	}
	next := deck.Clone()
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = di.now()
	if err := di.decks.Save(ctx, next); err != nil {
		return models.Deck{}, fmt.Errorf("save deck %s: %w", deck.ID, err)
	}
	return next, nil
}

// DeleteDeck removes a deck.
func (di *DeckInteractor) DeleteDeck(ctx context.Context, id uuid.UUID) error {
	if err := di.decks.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete deck %s: %w", id, err)
	}
	return nil
}

// GetDeckWithCards loads a deck and its cards, importing any card not stored yet.
// Cards are returned in deck entry order.
func (di *DeckInteractor) GetDeckWithCards(ctx context.Context, id uuid.UUID) (DeckWithCards, error) {
	deck, err := di.GetDeck(ctx, id)
	if err != nil {
		return DeckWithCards{}, err
	}
	codes := deck.CardCodes()
	cards, err := di.cards.ImportCardsBulk(ctx, codes)
	if err != nil {
		return DeckWithCards{}, err
	}
	byCode := make(map[string]models.Card, len(cards))
	for _, c := range cards {
		byCode[c.Code] = c
	}
	ordered := make([]models.Card, 0, len(codes))
	for _, code := range codes {
		if c, ok := byCode[code]; ok {
			ordered = append(ordered, c)
		}
	}
	return DeckWithCards{Deck: deck, Cards: ordered}, nil
}

func (di *DeckInteractor) insert(ctx context.Context, deck models.Deck) (models.Deck, error) {
	now := di.now()
	deck.CreatedAt = now
	deck.UpdatedAt = now
	if err := di.decks.Save(ctx, deck); err != nil {
		return models.Deck{}, fmt.Errorf("save deck %q: %w", deck.Name, err)
	}
	di.logger.WithFields(logrus.Fields{
		"deck_id": deck.ID,
		"name":    deck.Name,
		"cards":   deck.TotalCards(),
	}).Info("deck stored")
	return deck, nil
}
