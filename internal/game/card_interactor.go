// internal/game/card_interactor.go
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/tabletop/internal/models"
	"github.com/sirupsen/logrus"
)

// CardInteractor imports cards from the catalog and serves them from persistence.
// The repository is the only cache: a code already stored is never fetched again.
type CardInteractor struct {
	cards   CardRepository
	catalog Catalog
	images  ImageStorage
	logger  logrus.FieldLogger
	now     func() time.Time
}

// NewCardInteractor wires a CardInteractor. images may be nil, which disables image caching.
func NewCardInteractor(cards CardRepository, catalog Catalog, images ImageStorage, logger logrus.FieldLogger) *CardInteractor {
	return &CardInteractor{
		cards:   cards,
		catalog: catalog,
		images:  images,
		logger:  logger,
		now:     time.Now,
	}
}

// ImportCard returns the stored card for code, fetching it from the catalog only when
// it is not stored yet.
func (ci *CardInteractor) ImportCard(ctx context.Context, code string) (models.Card, error) {
	if code == "" {
		return models.Card{}, fmt.Errorf("%w: card code cannot be empty", models.ErrValidation)
	}
	existing, err := ci.cards.FindByCode(ctx, code)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return models.Card{}, fmt.Errorf("lookup card %s: %w", code, err)
	}
	return ci.fetchAndStore(ctx, code)
}

// ImportCardsBulk makes sure every code is stored, fetching only the ones that are missing.
// Known and newly imported cards are returned together, in no particular order.
func (ci *CardInteractor) ImportCardsBulk(ctx context.Context, codes []string) ([]models.Card, error) {
	unique := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		if c == "" {
			return nil, fmt.Errorf("%w: card code cannot be empty", models.ErrValidation)
		}
		if !seen[c] {
			seen[c] = true
			unique = append(unique, c)
		}
	}
	if len(unique) == 0 {
		return []models.Card{}, nil
	}

	existing, err := ci.cards.ExistingCodes(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("check existing cards: %w", err)
	}
	var known, missing []string
	for _, c := range unique {
		if existing[c] {
			known = append(known, c)
		} else {
			missing = append(missing, c)
		}
	}

	result := make([]models.Card, 0, len(unique))
	if len(known) > 0 {
		stored, err := ci.cards.FindByCodes(ctx, known)
		if err != nil {
			return nil, fmt.Errorf("load known cards: %w", err)
		}
		result = append(result, stored...)
	}
	for _, code := range missing {
		card, err := ci.fetchAndStore(ctx, code)
		if err != nil {
			return nil, err
		}
		result = append(result, card)
	}

	ci.logger.WithFields(logrus.Fields{
		"requested": len(unique),
		"known":     len(known),
		"imported":  len(missing),
	}).Debug("bulk card import")
	return result, nil
}

// GetCard returns the stored card or nil when the code is unknown.
func (ci *CardInteractor) GetCard(ctx context.Context, code string) (*models.Card, error) {
	card, err := ci.cards.FindByCode(ctx, code)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get card %s: %w", code, err)
	}
	return &card, nil
}

// GetCards returns the stored cards among codes; unknown codes are left out.
func (ci *CardInteractor) GetCards(ctx context.Context, codes []string) ([]models.Card, error) {
	cards, err := ci.cards.FindByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("get cards: %w", err)
	}
	return cards, nil
}

// ListCards pages through every stored card.
func (ci *CardInteractor) ListCards(ctx context.Context, limit, offset int) ([]models.Card, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return ci.cards.FindAll(ctx, limit, offset)
}

// SearchCards finds stored cards whose name contains name, ignoring case.
func (ci *CardInteractor) SearchCards(ctx context.Context, name string) ([]models.Card, error) {
	cards, err := ci.cards.SearchByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("search cards %q: %w", name, err)
	}
	return cards, nil
}

// CardImagePath returns the local path of a card image, downloading it on first use.
func (ci *CardInteractor) CardImagePath(ctx context.Context, code string) (string, error) {
	if ci.images == nil {
		return "", fmt.Errorf("%w: image storage disabled", models.ErrNotFound)
	}
	if path, ok := ci.images.ImagePath(code); ok {
		return path, nil
	}
	info, err := ci.catalog.GetCardInfo(ctx, code)
	if err != nil {
		return "", asFetchError(err, "fetch card "+code)
	}
	if info.ImageURL == "" {
		return "", fmt.Errorf("card %s has no image: %w", code, models.ErrNotFound)
	}
	data, err := ci.catalog.DownloadImage(ctx, info.ImageURL)
	if err != nil {
		return "", asFetchError(err, "download image "+code)
	}
	path, err := ci.images.StoreImage(code, data)
	if err != nil {
		return "", fmt.Errorf("store image %s: %w", code, err)
	}
	return path, nil
}

func (ci *CardInteractor) fetchAndStore(ctx context.Context, code string) (models.Card, error) {
	info, err := ci.catalog.GetCardInfo(ctx, code)
	if err != nil {
		return models.Card{}, asFetchError(err, "fetch card "+code)
	}
	if info.Name == "" {
		return models.Card{}, fmt.Errorf("%w: catalog returned card %s without a name", models.ErrExternalFetch, code)
	}
	card, err := models.NewCard(code, info.Name, info.Text)
	if err != nil {
		return models.Card{}, err
	}
	now := ci.now()
	card.CreatedAt = now
	card.UpdatedAt = now
	card = ci.cacheImage(ctx, card, info.ImageURL)

	if err := ci.cards.Save(ctx, card); err != nil {
		return models.Card{}, fmt.Errorf("save card %s: %w", code, err)
	}
	ci.logger.WithField("code", code).Info("imported card")
	return card, nil
}

// cacheImage stores the card image found at imageURL if possible. Failures are logged and ignored.
func (ci *CardInteractor) cacheImage(ctx context.Context, card models.Card, imageURL string) models.Card {
	if ci.images == nil {
		return card
	}
	if path, ok := ci.images.ImagePath(card.Code); ok {
		return card.WithImageRef(path)
	}
	if imageURL == "" {
		return card
	}
	data, err := ci.catalog.DownloadImage(ctx, imageURL)
	if err != nil {
		ci.logger.WithError(err).WithField("code", card.Code).Warn("card image download failed")
		return card
	}
	path, err := ci.images.StoreImage(card.Code, data)
	if err != nil {
		ci.logger.WithError(err).WithField("code", card.Code).Warn("card image store failed")
		return card
	}
	return card.WithImageRef(path)
}

// asFetchError keeps not-found errors as they are and classifies everything else as a
// catalog failure.
func asFetchError(err error, op string) error {
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrExternalFetch) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", models.ErrExternalFetch, op, err)
}
