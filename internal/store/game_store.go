package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tabletop/internal/models"
)

// GameStore is an in-memory GameRepository. Save overwrites whatever is stored.
type GameStore struct {
	mu    sync.RWMutex
	games map[uuid.UUID]models.Game
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[uuid.UUID]models.Game),
	}
}

func (s *GameStore) FindByID(_ context.Context, id uuid.UUID) (models.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return models.Game{}, fmt.Errorf("game %s: %w", id, models.ErrNotFound)
	}
	return g.Clone(), nil
}

func (s *GameStore) FindAll(_ context.Context) ([]models.Game, error) {
	out := s.snapshot()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *GameStore) FindRecent(_ context.Context, limit int) ([]models.Game, error) {
	out := s.snapshot()
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *GameStore) Save(_ context.Context, g models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g.Clone()
	return nil
}

func (s *GameStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return fmt.Errorf("game %s: %w", id, models.ErrNotFound)
	}
	delete(s.games, id)
	return nil
}

func (s *GameStore) snapshot() []models.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Game, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g.Clone())
	}
	return out
}
