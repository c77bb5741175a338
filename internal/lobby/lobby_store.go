// internal/lobby/lobby_store.go
package lobby

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tabletop/internal/models"
)

// LobbyStore keeps ephemeral lobbies in memory.
// It hands out copies; the only way to change a stored lobby is Update.
type LobbyStore struct {
	mu      sync.Mutex
	lobbies map[uuid.UUID]models.Lobby
}

// NewLobbyStore initializes and returns an empty LobbyStore.
func NewLobbyStore() *LobbyStore {
	return &LobbyStore{
		lobbies: make(map[uuid.UUID]models.Lobby),
	}
}

// AddLobby stores a new lobby. An existing lobby with the same ID is not overwritten.
func (s *LobbyStore) AddLobby(l models.Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.lobbies[l.ID]; exists {
		return fmt.Errorf("%w: lobby %s already exists", models.ErrValidation, l.ID)
	}
	s.lobbies[l.ID] = l.Clone()
	return nil
}

// DeleteLobby removes a lobby by ID once check accepts it, and returns the removed lobby.
func (s *LobbyStore) DeleteLobby(id uuid.UUID, check func(models.Lobby) error) (models.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[id]
	if !ok {
		return models.Lobby{}, fmt.Errorf("lobby %s: %w", id, models.ErrNotFound)
	}
	if check != nil {
		if err := check(l.Clone()); err != nil {
			return models.Lobby{}, err
		}
	}
	delete(s.lobbies, id)
	return l, nil
}

// GetLobby retrieves a lobby by its ID.
func (s *LobbyStore) GetLobby(id uuid.UUID) (models.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[id]
	if !ok {
		return models.Lobby{}, fmt.Errorf("lobby %s: %w", id, models.ErrNotFound)
	}
	return l.Clone(), nil
}

// GetLobbies lists every lobby, oldest first.
func (s *LobbyStore) GetLobbies() []models.Lobby {
	s.mu.Lock()
	out := make([]models.Lobby, 0, len(s.lobbies))
	for _, l := range s.lobbies {
		out = append(out, l.Clone())
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Update replaces the lobby with fn's result while holding the store lock.
// A lobby left without players is deleted; remaining reports whether it still exists.
func (s *LobbyStore) Update(id uuid.UUID, fn func(models.Lobby) (models.Lobby, error)) (next models.Lobby, remaining bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.lobbies[id]
	if !ok {
		return models.Lobby{}, false, fmt.Errorf("lobby %s: %w", id, models.ErrNotFound)
	}
	next, err = fn(current.Clone())
	if err != nil {
		return models.Lobby{}, true, err
	}
	if len(next.Players) == 0 {
		delete(s.lobbies, id)
		return next, false, nil
	}
	s.lobbies[id] = next.Clone()
	return next, true, nil
}
