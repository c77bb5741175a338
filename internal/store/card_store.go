package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jason-s-yu/tabletop/internal/models"
)

// CardStore is an in-memory CardRepository keyed by card code.
type CardStore struct {
	mu    sync.RWMutex
	cards map[string]models.Card
}

func NewCardStore() *CardStore {
	return &CardStore{
		cards: make(map[string]models.Card),
	}
}

func (s *CardStore) FindByCode(_ context.Context, code string) (models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cards[code]
	if !ok {
		return models.Card{}, fmt.Errorf("card %s: %w", code, models.ErrNotFound)
	}
	return c, nil
}

func (s *CardStore) FindByCodes(_ context.Context, codes []string) ([]models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Card, 0, len(codes))
	for _, code := range codes {
		if c, ok := s.cards[code]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *CardStore) ExistingCodes(_ context.Context, codes []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make(map[string]bool, len(codes))
	for _, code := range codes {
		if _, ok := s.cards[code]; ok {
			found[code] = true
		}
	}
	return found, nil
}

// FindAll pages through cards ordered by code. A non-positive limit returns everything after offset.
func (s *CardStore) FindAll(_ context.Context, limit, offset int) ([]models.Card, error) {
	s.mu.RLock()
	all := make([]models.Card, 0, len(s.cards))
	for _, c := range s.cards {
		all = append(all, c)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []models.Card{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *CardStore) SearchByName(_ context.Context, name string) ([]models.Card, error) {
	needle := strings.ToLower(name)
	s.mu.RLock()
	out := []models.Card{}
	for _, c := range s.cards {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			out = append(out, c)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *CardStore) Save(_ context.Context, card models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[card.Code] = card
	return nil
}

func (s *CardStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[code]; !ok {
		return fmt.Errorf("card %s: %w", code, models.ErrNotFound)
	}
	delete(s.cards, code)
	return nil
}
