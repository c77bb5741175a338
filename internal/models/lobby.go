// internal/models/lobby.go
package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// LobbyPlayer is a seat in a lobby before the game starts.
type LobbyPlayer struct {
	Name   string    `json:"name"`
	DeckID uuid.UUID `json:"deck_id"`
	Ready  bool      `json:"ready"`
	Host   bool      `json:"host"`
}

// ReadyToStart reports whether the player picked a deck and marked ready.
func (p LobbyPlayer) ReadyToStart() bool {
	return p.DeckID != uuid.Nil && p.Ready
}

// Lobby gathers players and their deck choices ahead of a game.
// Like every other value in this package it is replaced, not edited.
type Lobby struct {
	ID      uuid.UUID     `json:"id"`
	Name    string        `json:"name"`
	Players []LobbyPlayer `json:"players"`

	// PasscodeHash is the encoded hash of the join passcode, empty for open lobbies.
	PasscodeHash string `json:"-"`
	Private      bool   `json:"private"`

	// GameID is set once the lobby has started a game.
	GameID    uuid.UUID `json:"game_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewLobby opens a lobby with host in the first seat.
func NewLobby(name, host string, now time.Time) (Lobby, error) {
	if name == "" {
		return Lobby{}, fmt.Errorf("%w: lobby name cannot be empty", ErrValidation)
	}
	if host == "" {
		return Lobby{}, fmt.Errorf("%w: host name cannot be empty", ErrValidation)
	}
	return Lobby{
		ID:        uuid.New(),
		Name:      name,
		Players:   []LobbyPlayer{{Name: host, Host: true}},
		CreatedAt: now,
	}, nil
}

// Host returns the name of the hosting player, empty for an empty lobby.
func (l Lobby) Host() string {
	for _, p := range l.Players {
		if p.Host {
			return p.Name
		}
	}
	return ""
}

// Player returns the named seat.
func (l Lobby) Player(name string) (LobbyPlayer, error) {
	for _, p := range l.Players {
		if p.Name == name {
			return p, nil
		}
	}
	return LobbyPlayer{}, fmt.Errorf("%w: player %q not in lobby", ErrNotFound, name)
}

// WithPlayer seats a new player. Names are unique within a lobby.
func (l Lobby) WithPlayer(name string) (Lobby, error) {
	if name == "" {
		return Lobby{}, fmt.Errorf("%w: player name cannot be empty", ErrValidation)
	}
	if _, err := l.Player(name); err == nil {
		return Lobby{}, fmt.Errorf("%w: player %q already in lobby", ErrValidation, name)
	}
	next := l.Clone()
	next.Players = append(next.Players, LobbyPlayer{Name: name, Host: len(next.Players) == 0})
	return next, nil
}

// WithoutPlayer removes a seat. If the host leaves, the next seat becomes host.
func (l Lobby) WithoutPlayer(name string) (Lobby, error) {
	idx := slices.IndexFunc(l.Players, func(p LobbyPlayer) bool { return p.Name == name })
	if idx < 0 {
		return Lobby{}, fmt.Errorf("%w: player %q not in lobby", ErrNotFound, name)
	}
	next := l.Clone()
	wasHost := next.Players[idx].Host
	next.Players = slices.Delete(next.Players, idx, idx+1)
	if wasHost && len(next.Players) > 0 {
		next.Players[0].Host = true
	}
	return next, nil
}

// UpdatePlayer applies fn to the named seat.
func (l Lobby) UpdatePlayer(name string, fn func(LobbyPlayer) LobbyPlayer) (Lobby, error) {
	idx := slices.IndexFunc(l.Players, func(p LobbyPlayer) bool { return p.Name == name })
	if idx < 0 {
		return Lobby{}, fmt.Errorf("%w: player %q not in lobby", ErrNotFound, name)
	}
	next := l.Clone()
	next.Players[idx] = fn(next.Players[idx])
	return next, nil
}

// AllReady reports whether the lobby has players and every one of them is ready with a deck.
func (l Lobby) AllReady() bool {
	if len(l.Players) == 0 {
		return false
	}
	for _, p := range l.Players {
		if !p.ReadyToStart() {
			return false
		}
	}
	return true
}

// Started reports whether a game was launched from this lobby.
func (l Lobby) Started() bool {
	return l.GameID != uuid.Nil
}

// Clone returns a copy sharing no slices with l.
func (l Lobby) Clone() Lobby {
	l.Players = slices.Clone(l.Players)
	return l
}
