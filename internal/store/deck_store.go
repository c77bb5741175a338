package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tabletop/internal/models"
)

// DeckStore is an in-memory DeckRepository.
type DeckStore struct {
	mu    sync.RWMutex
	decks map[uuid.UUID]models.Deck
}

func NewDeckStore() *DeckStore {
	return &DeckStore{
		decks: make(map[uuid.UUID]models.Deck),
	}
}

func (s *DeckStore) FindByID(_ context.Context, id uuid.UUID) (models.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.decks[id]
	if !ok {
		return models.Deck{}, fmt.Errorf("deck %s: %w", id, models.ErrNotFound)
	}
	return d.Clone(), nil
}

// FindAll returns decks oldest first.
func (s *DeckStore) FindAll(_ context.Context) ([]models.Deck, error) {
	s.mu.RLock()
	out := make([]models.Deck, 0, len(s.decks))
	for _, d := range s.decks {
		out = append(out, d.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *DeckStore) Save(_ context.Context, deck models.Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decks[deck.ID] = deck.Clone()
	return nil
}

func (s *DeckStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.decks[id]; !ok {
		return fmt.Errorf("deck %s: %w", id, models.ErrNotFound)
	}
	delete(s.decks, id)
	return nil
}
