// internal/game/ports.go
package game

import (
	"context"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tabletop/internal/models"
)

// CardRepository persists Card values. Lookups of a missing code return models.ErrNotFound.
type CardRepository interface {
	FindByCode(ctx context.Context, code string) (models.Card, error)
	// FindByCodes returns the cards that exist, silently skipping unknown codes.
	FindByCodes(ctx context.Context, codes []string) ([]models.Card, error)
	// ExistingCodes reports which of codes are already stored without loading the cards.
	ExistingCodes(ctx context.Context, codes []string) (map[string]bool, error)
	FindAll(ctx context.Context, limit, offset int) ([]models.Card, error)
	// SearchByName matches a case-insensitive substring of the card name.
	SearchByName(ctx context.Context, name string) ([]models.Card, error)
	Save(ctx context.Context, card models.Card) error
	Delete(ctx context.Context, code string) error
}

// DeckRepository persists Deck values.
type DeckRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (models.Deck, error)
	FindAll(ctx context.Context) ([]models.Deck, error)
	Save(ctx context.Context, deck models.Deck) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// GameRepository persists whole Game values. Save is an upsert; there is no version check.
type GameRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (models.Game, error)
	FindAll(ctx context.Context) ([]models.Game, error)
	// FindRecent returns at most limit games ordered by UpdatedAt, newest first.
	FindRecent(ctx context.Context, limit int) ([]models.Game, error)
	Save(ctx context.Context, g models.Game) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Catalog is the external card database.
type Catalog interface {
	GetCardInfo(ctx context.Context, code string) (models.CardInfo, error)
	GetDeckCards(ctx context.Context, deckID string) (models.DeckListing, error)
	GetUserDecks(ctx context.Context, accessToken string) ([]models.DeckRef, error)
	// DownloadImage fetches the image at a CardInfo.ImageURL.
	DownloadImage(ctx context.Context, imageURL string) ([]byte, error)
	GetEncounterModule(ctx context.Context, setCode string) (models.EncounterModule, error)
}

// ImageStorage caches card images locally.
type ImageStorage interface {
	ImageExists(code string) bool
	ImagePath(code string) (string, bool)
	StoreImage(code string, data []byte) (string, error)
}

// Event is published after a game change has been persisted.
type Event struct {
	Action models.GameAction
	Game   models.Game
}

// EventSink receives game events. Delivery is best-effort.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}

// MultiSink fans an event out to several sinks, returning the first error.
type MultiSink []EventSink

// Publish implements EventSink.
func (m MultiSink) Publish(ctx context.Context, ev Event) error {
	var firstErr error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
