// internal/models/encounter.go
package models

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// EncounterSourcePrefix marks the SourceURL of a deck saved from encounter modules.
// The module codes follow, comma separated.
const EncounterSourcePrefix = "modules:"

var encounterNamespace = uuid.MustParse("6f1c2a4e-7d0b-5b8e-9a57-3c1de0f2a9b4")

// EncounterModule is one encounter set as the catalog publishes it, split by card role.
type EncounterModule struct {
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Villains    []DeckEntry `json:"villains"`
	MainSchemes []DeckEntry `json:"main_schemes"`
	Cards       []DeckEntry `json:"cards"`
}

// EncounterDeck is several modules played together. Villains and main schemes are set
// aside at setup; Cards form the encounter pile.
type EncounterDeck struct {
	Name        string      `json:"name"`
	Modules     []string    `json:"modules"`
	Villains    []DeckEntry `json:"villains"`
	MainSchemes []DeckEntry `json:"main_schemes"`
	Cards       []DeckEntry `json:"cards"`
}

// NewEncounterDeck joins modules in order. At least one module is required.
func NewEncounterDeck(modules ...EncounterModule) (EncounterDeck, error) {
	if len(modules) == 0 {
		return EncounterDeck{}, fmt.Errorf("%w: encounter deck needs at least one module", ErrValidation)
	}
	var d EncounterDeck
	for _, m := range modules {
		d = d.Join(m)
	}
	return d, nil
}

// Join adds every card of m. A module already in the deck is not added twice.
func (d EncounterDeck) Join(m EncounterModule) EncounterDeck {
	if slices.Contains(d.Modules, m.Code) {
		return d
	}
	name := m.Name
	if name == "" {
		name = m.Code
	}
	if d.Name != "" {
		name = d.Name + " + " + name
	}
	return EncounterDeck{
		Name:        name,
		Modules:     append(slices.Clone(d.Modules), m.Code),
		Villains:    mergeEntries(d.Villains, m.Villains),
		MainSchemes: mergeEntries(d.MainSchemes, m.MainSchemes),
		Cards:       mergeEntries(d.Cards, m.Cards),
	}
}

// PileSize is the number of cards in the encounter pile.
func (d EncounterDeck) PileSize() int {
	return Deck{Entries: d.Cards}.TotalCards()
}

// ToDeck turns the encounter pile into a storable deck named name. The module list is
// kept in SourceURL so the deck can be rebuilt, and the ID depends only on the set of
// modules, so saving the same combination twice updates one deck.
func (d EncounterDeck) ToDeck(name string) (Deck, error) {
	deck := Deck{
		ID:        EncounterDeckID(d.Modules),
		Name:      name,
		Entries:   slices.Clone(d.Cards),
		SourceURL: EncounterSourcePrefix + strings.Join(d.Modules, ","),
	}
	if err := deck.Validate(); err != nil {
		return Deck{}, err
	}
	return deck, nil
}

// EncounterDeckID derives a stable deck ID from a module combination, ignoring order.
func EncounterDeckID(modules []string) uuid.UUID {
	sorted := slices.Clone(modules)
	slices.Sort(sorted)
	return uuid.NewSHA1(encounterNamespace, []byte(strings.Join(sorted, ",")))
}

// EncounterModules returns the module codes of a deck saved with ToDeck.
func EncounterModules(d Deck) ([]string, bool) {
	rest, ok := strings.CutPrefix(d.SourceURL, EncounterSourcePrefix)
	if !ok || rest == "" {
		return nil, false
	}
	return strings.Split(rest, ","), true
}

// mergeEntries appends add to base, summing quantities of codes already present.
func mergeEntries(base, add []DeckEntry) []DeckEntry {
	out := make([]DeckEntry, 0, len(base)+len(add))
	out = append(out, base...)
	for _, e := range add {
		i := slices.IndexFunc(out, func(o DeckEntry) bool { return o.Code == e.Code })
		if i >= 0 {
			out[i].Quantity += e.Quantity
			continue
		}
		out = append(out, e)
	}
	return out
}
