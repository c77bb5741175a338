// Package store keeps cards, decks and games in process memory.
// Values are copied on the way in and out so callers can never alias stored state.
package store

// Memory bundles one in-memory repository per persisted type.
type Memory struct {
	Cards *CardStore
	Decks *DeckStore
	Games *GameStore
}

// NewMemory returns empty repositories.
func NewMemory() Memory {
	return Memory{
		Cards: NewCardStore(),
		Decks: NewDeckStore(),
		Games: NewGameStore(),
	}
}
