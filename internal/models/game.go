// internal/models/game.go
package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// GameState is a snapshot of one session: each player's zones, in turn order,
// plus the shared play area. It knows nothing about rules.
type GameState struct {
	Players  []PlayerZones `json:"players"`
	PlayArea []CardInPlay  `json:"play_area"`
}

// NewGameState builds a state with the given players and an empty table.
func NewGameState(players []PlayerZones) GameState {
	s := GameState{PlayArea: []CardInPlay{}}
	for _, p := range players {
		s.Players = append(s.Players, p.Clone())
	}
	return s
}

// Player returns the zones of the named player.
func (s GameState) Player(name string) (PlayerZones, error) {
	for _, p := range s.Players {
		if p.PlayerName == name {
			return p, nil
		}
	}
	return PlayerZones{}, fmt.Errorf("%w: player %q", ErrNotFound, name)
}

// UpdatePlayer returns a copy of s with the named player's zones replaced in place.
func (s GameState) UpdatePlayer(name string, zones PlayerZones) (GameState, error) {
	idx := slices.IndexFunc(s.Players, func(p PlayerZones) bool { return p.PlayerName == name })
	if idx < 0 {
		return GameState{}, fmt.Errorf("%w: player %q", ErrNotFound, name)
	}
	next := s.Clone()
	next.Players[idx] = zones.Clone()
	return next, nil
}

// FindCard locates a card on the table by instance ID or, failing that, by card code.
// When several copies share a code the first one in play order wins.
func (s GameState) FindCard(ref string) (int, bool) {
	if id, err := uuid.Parse(ref); err == nil {
		for i, c := range s.PlayArea {
			if c.ID == id {
				return i, true
			}
		}
	}
	for i, c := range s.PlayArea {
		if c.Code == ref {
			return i, true
		}
	}
	return -1, false
}

// PlaceCard returns a copy of s with card appended to the play area.
func (s GameState) PlaceCard(card CardInPlay) GameState {
	next := s.Clone()
	next.PlayArea = append(next.PlayArea, card.Clone())
	return next
}

// ReplaceCard applies fn to the card matched by ref. ok is false when nothing matched.
func (s GameState) ReplaceCard(ref string, fn func(CardInPlay) CardInPlay) (next GameState, ok bool) {
	idx, found := s.FindCard(ref)
	if !found {
		return s, false
	}
	next = s.Clone()
	next.PlayArea[idx] = fn(next.PlayArea[idx])
	return next, true
}

// TakeCard removes the card matched by ref from the table and returns it.
func (s GameState) TakeCard(ref string) (next GameState, card CardInPlay, ok bool) {
	idx, found := s.FindCard(ref)
	if !found {
		return s, CardInPlay{}, false
	}
	next = s.Clone()
	card = next.PlayArea[idx]
	next.PlayArea = slices.Delete(next.PlayArea, idx, idx+1)
	return next, card, true
}

// CountInPlay is how many cards on the table belong to player.
func (s GameState) CountInPlay(player string) int {
	n := 0
	for _, c := range s.PlayArea {
		if c.Owner == player {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of s.
func (s GameState) Clone() GameState {
	next := GameState{
		Players:  make([]PlayerZones, len(s.Players)),
		PlayArea: make([]CardInPlay, len(s.PlayArea)),
	}
	for i, p := range s.Players {
		next.Players[i] = p.Clone()
	}
	for i, c := range s.PlayArea {
		next.PlayArea[i] = c.Clone()
	}
	return next
}

// Game is one play session. Games are never edited in place: every zone transition
// produces a replacement Game that is written back whole.
type Game struct {
	ID               uuid.UUID   `json:"id"`
	Name             string      `json:"name"`
	ParticipantNames []string    `json:"participant_names"`
	DeckIDs          []uuid.UUID `json:"deck_ids,omitempty"`
	State            GameState   `json:"state"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewGame builds a validated Game with a fresh ID, stamped at now.
func NewGame(name string, participants []string, deckIDs []uuid.UUID, state GameState, now time.Time) (Game, error) {
	g := Game{
		ID:               uuid.New(),
		Name:             name,
		ParticipantNames: slices.Clone(participants),
		DeckIDs:          slices.Clone(deckIDs),
		State:            state.Clone(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := g.Validate(); err != nil {
		return Game{}, err
	}
	return g, nil
}

// Validate checks the construction invariants: a name, a non-empty roster of unique names,
// and exactly one zone set per participant.
func (g Game) Validate() error {
	if g.Name == "" {
		return fmt.Errorf("%w: game name cannot be empty", ErrValidation)
	}
	if len(g.ParticipantNames) == 0 {
		return fmt.Errorf("%w: game needs at least one participant", ErrValidation)
	}
	seen := make(map[string]bool, len(g.ParticipantNames))
	for _, n := range g.ParticipantNames {
		if n == "" {
			return fmt.Errorf("%w: participant name cannot be empty", ErrValidation)
		}
		if seen[n] {
			return fmt.Errorf("%w: duplicate participant %q", ErrValidation, n)
		}
		seen[n] = true
	}
	if len(g.State.Players) != len(g.ParticipantNames) {
		return fmt.Errorf("%w: %d participants but %d player zones", ErrValidation, len(g.ParticipantNames), len(g.State.Players))
	}
	return nil
}

// WithState returns a replacement Game carrying state, stamped at now.
func (g Game) WithState(state GameState, now time.Time) Game {
	next := g.Clone()
	next.State = state.Clone()
	next.UpdatedAt = now
	return next
}

// Clone returns a deep copy of g.
func (g Game) Clone() Game {
	g.ParticipantNames = slices.Clone(g.ParticipantNames)
	g.DeckIDs = slices.Clone(g.DeckIDs)
	g.State = g.State.Clone()
	return g
}
