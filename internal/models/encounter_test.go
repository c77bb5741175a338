package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rhinoModules() (EncounterModule, EncounterModule) {
	rhino := EncounterModule{
		Code:        "rhino",
		Name:        "Rhino",
		Villains:    []DeckEntry{{Code: "01094", Quantity: 1}},
		MainSchemes: []DeckEntry{{Code: "01097", Quantity: 1}},
		Cards:       []DeckEntry{{Code: "01100", Quantity: 2}, {Code: "01104", Quantity: 1}},
	}
	bombScare := EncounterModule{
		Code:  "bomb_scare",
		Name:  "Bomb Scare",
		Cards: []DeckEntry{{Code: "01104", Quantity: 1}, {Code: "01108", Quantity: 3}},
	}
	return rhino, bombScare
}

func TestNewEncounterDeckJoinsModules(t *testing.T) {
	rhino, bombScare := rhinoModules()

	d, err := NewEncounterDeck(rhino, bombScare, rhino)
	require.NoError(t, err)
	assert.Equal(t, "Rhino + Bomb Scare", d.Name)
	assert.Equal(t, []string{"rhino", "bomb_scare"}, d.Modules)
	assert.Equal(t, []DeckEntry{{Code: "01094", Quantity: 1}}, d.Villains)
	assert.Equal(t, []DeckEntry{{Code: "01097", Quantity: 1}}, d.MainSchemes)
	assert.Equal(t, []DeckEntry{{Code: "01100", Quantity: 2}, {Code: "01104", Quantity: 2}, {Code: "01108", Quantity: 3}}, d.Cards)
	assert.Equal(t, 7, d.PileSize())

	assert.Equal(t, 1, rhino.Cards[1].Quantity, "modules are not modified")

	_, err = NewEncounterDeck()
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEncounterDeckToDeck(t *testing.T) {
	rhino, bombScare := rhinoModules()
	d, err := NewEncounterDeck(rhino, bombScare)
	require.NoError(t, err)

	deck, err := d.ToDeck("Standard Rhino")
	require.NoError(t, err)
	assert.Equal(t, "Standard Rhino", deck.Name)
	assert.Equal(t, d.Cards, deck.Entries)
	assert.Equal(t, "modules:rhino,bomb_scare", deck.SourceURL)

	modules, ok := EncounterModules(deck)
	require.True(t, ok)
	assert.Equal(t, []string{"rhino", "bomb_scare"}, modules)

	swapped, err := NewEncounterDeck(bombScare, rhino)
	require.NoError(t, err)
	other, err := swapped.ToDeck("Again")
	require.NoError(t, err)
	assert.Equal(t, deck.ID, other.ID, "module order does not change the id")
	assert.NotEqual(t, deck.ID, EncounterDeckID([]string{"rhino"}))

	_, err = d.ToDeck("")
	assert.ErrorIs(t, err, ErrValidation)

	_, ok = EncounterModules(Deck{SourceURL: "https://marvelcdb.com/decklist/view/1"})
	assert.False(t, ok)
}
