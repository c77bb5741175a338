// internal/models/deck.go
package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// DeckEntry is one line of a deck list: a card code and how many copies of it.
type DeckEntry struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
}

// NewDeckEntry validates code and quantity.
func NewDeckEntry(code string, quantity int) (DeckEntry, error) {
	if code == "" {
		return DeckEntry{}, fmt.Errorf("%w: deck entry code cannot be empty", ErrValidation)
	}
	if quantity < 1 {
		return DeckEntry{}, fmt.Errorf("%w: card %s quantity must be at least 1, got %d", ErrValidation, code, quantity)
	}
	return DeckEntry{Code: code, Quantity: quantity}, nil
}

// Deck is a named card composition. Entries may reference cards that were never imported;
// building a deck and importing its cards are separate steps.
type Deck struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Entries   []DeckEntry `json:"entries"`
	SourceURL string      `json:"source_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDeck builds a Deck with a fresh ID. Each entry is re-validated.
func NewDeck(name string, entries []DeckEntry) (Deck, error) {
	d := Deck{ID: uuid.New(), Name: name, Entries: slices.Clone(entries)}
	if err := d.Validate(); err != nil {
		return Deck{}, err
	}
	return d, nil
}

// Validate checks the structural invariants of a deck value.
func (d Deck) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: deck name cannot be empty", ErrValidation)
	}
	for _, e := range d.Entries {
		if _, err := NewDeckEntry(e.Code, e.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// TotalCards is the sum of all entry quantities.
func (d Deck) TotalCards() int {
	total := 0
	for _, e := range d.Entries {
		total += e.Quantity
	}
	return total
}

// ExpandedCodes flattens the entries into one code per physical copy, in entry order.
// This is the order a player's deck zone is seeded from before shuffling.
func (d Deck) ExpandedCodes() []string {
	codes := make([]string, 0, d.TotalCards())
	for _, e := range d.Entries {
		for range e.Quantity {
			codes = append(codes, e.Code)
		}
	}
	return codes
}

// CardCodes returns each distinct code once, in entry order.
func (d Deck) CardCodes() []string {
	seen := make(map[string]bool, len(d.Entries))
	codes := make([]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		if seen[e.Code] {
			continue
		}
		seen[e.Code] = true
		codes = append(codes, e.Code)
	}
	return codes
}

// Clone returns a copy that shares no slices with d.
func (d Deck) Clone() Deck {
	d.Entries = slices.Clone(d.Entries)
	return d
}
