// internal/game/encounter_interactor.go
package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tabletop/internal/models"
	"github.com/sirupsen/logrus"
)

// EncounterInteractor builds encounter decks from catalog modules and keeps named
// combinations in the deck repository.
type EncounterInteractor struct {
	decks   DeckRepository
	catalog Catalog
	logger  logrus.FieldLogger
	now     func() time.Time
}

func NewEncounterInteractor(decks DeckRepository, catalog Catalog, logger logrus.FieldLogger) *EncounterInteractor {
	return &EncounterInteractor{
		decks:   decks,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

// GetModule fetches one encounter module from the catalog.
func (ei *EncounterInteractor) GetModule(ctx context.Context, code string) (models.EncounterModule, error) {
	if code == "" {
		return models.EncounterModule{}, fmt.Errorf("%w: module code cannot be empty", models.ErrValidation)
	}
	m, err := ei.catalog.GetEncounterModule(ctx, code)
	if err != nil {
		return models.EncounterModule{}, asFetchError(err, "fetch encounter module "+code)
	}
	return m, nil
}

// BuildDeck joins the named modules, in order, into one encounter deck. Any module the
// catalog does not know fails the whole build.
func (ei *EncounterInteractor) BuildDeck(ctx context.Context, codes []string) (models.EncounterDeck, error) {
	if len(codes) == 0 {
		return models.EncounterDeck{}, fmt.Errorf("%w: at least one module is required", models.ErrValidation)
	}
	modules := make([]models.EncounterModule, 0, len(codes))
	for _, code := range codes {
		m, err := ei.GetModule(ctx, strings.TrimSpace(code))
		if err != nil {
			return models.EncounterDeck{}, err
		}
		modules = append(modules, m)
	}
	return models.NewEncounterDeck(modules...)
}

// SaveDeck builds the modules and stores the encounter pile under name. Saving the same
// module combination again renames the stored deck instead of adding a second one.
func (ei *EncounterInteractor) SaveDeck(ctx context.Context, name string, codes []string) (models.Deck, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Deck{}, fmt.Errorf("%w: encounter deck name cannot be empty", models.ErrValidation)
	}
	built, err := ei.BuildDeck(ctx, codes)
	if err != nil {
		return models.Deck{}, err
	}
	deck, err := built.ToDeck(name)
	if err != nil {
		return models.Deck{}, err
	}

	now := ei.now()
	deck.CreatedAt = now
	existing, err := ei.decks.FindByID(ctx, deck.ID)
	switch {
	case err == nil:
		deck.CreatedAt = existing.CreatedAt
	case !errors.Is(err, models.ErrNotFound):
		return models.Deck{}, fmt.Errorf("lookup encounter deck %s: %w", deck.ID, err)
	}
	deck.UpdatedAt = now

	if err := ei.decks.Save(ctx, deck); err != nil {
		return models.Deck{}, fmt.Errorf("save encounter deck %s: %w", deck.ID, err)
	}
	ei.logger.WithFields(logrus.Fields{
		"deck_id": deck.ID,
		"name":    name,
		"modules": built.Modules,
	}).Info("encounter deck saved")
	return deck, nil
}

// ListSaved returns every saved encounter deck, most recently updated first.
func (ei *EncounterInteractor) ListSaved(ctx context.Context) ([]models.Deck, error) {
	all, err := ei.decks.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	out := make([]models.Deck, 0, len(all))
	for _, d := range all {
		if _, ok := models.EncounterModules(d); ok {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// ModulesByName returns the module codes saved under name.
func (ei *EncounterInteractor) ModulesByName(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: encounter deck name cannot be empty", models.ErrValidation)
	}
	saved, err := ei.ListSaved(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range saved {
		if d.Name == name {
			modules, _ := models.EncounterModules(d)
			return modules, nil
		}
	}
	return nil, fmt.Errorf("encounter deck %q: %w", name, models.ErrNotFound)
}

// GetSaved rebuilds a saved encounter deck from the catalog, so villains and main schemes
// come back alongside the stored pile.
func (ei *EncounterInteractor) GetSaved(ctx context.Context, id uuid.UUID) (models.EncounterDeck, error) {
	deck, err := ei.decks.FindByID(ctx, id)
	if err != nil {
		return models.EncounterDeck{}, fmt.Errorf("get encounter deck %s: %w", id, err)
	}
	modules, ok := models.EncounterModules(deck)
	if !ok {
		return models.EncounterDeck{}, fmt.Errorf("deck %s is not an encounter deck: %w", id, models.ErrNotFound)
	}
	built, err := ei.BuildDeck(ctx, modules)
	if err != nil {
		return models.EncounterDeck{}, err
	}
	built.Name = deck.Name
	return built, nil
}
