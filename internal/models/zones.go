// internal/models/zones.go
package models

import "slices"

// Shuffler produces a permutation by calling swap, as math/rand/v2's Rand.Shuffle does.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// PlayerZones holds one player's ordered card zones. The front of Deck is drawn next.
// A code may appear any number of times in any zone.
type PlayerZones struct {
	PlayerName string   `json:"player_name"`
	Deck       []string `json:"deck"`
	Hand       []string `json:"hand"`
	Discard    []string `json:"discard"`
	Removed    []string `json:"removed"`
}

// NewPlayerZones seeds a player with deck and empty hand, discard and removed zones.
func NewPlayerZones(name string, deck []string) PlayerZones {
	return PlayerZones{
		PlayerName: name,
		Deck:       slices.Clone(deck),
		Hand:       []string{},
		Discard:    []string{},
		Removed:    []string{},
	}
}

// DrawCard moves the front of the deck to the back of the hand.
// On an empty deck it returns z unchanged and ok=false.
func (z PlayerZones) DrawCard() (next PlayerZones, drawn string, ok bool) {
	if len(z.Deck) == 0 {
		return z, "", false
	}
	next = z.Clone()
	drawn = next.Deck[0]
	next.Deck = next.Deck[1:]
	next.Hand = append(next.Hand, drawn)
	return next, drawn, true
}

// ShuffleDiscardIntoDeck randomly reorders the discard pile and places it under the deck.
// The discard pile ends up empty. An empty discard pile is a no-op.
func (z PlayerZones) ShuffleDiscardIntoDeck(rng Shuffler) PlayerZones {
	if len(z.Discard) == 0 {
		return z
	}
	next := z.Clone()
	pile := next.Discard
	rng.Shuffle(len(pile), func(i, j int) { pile[i], pile[j] = pile[j], pile[i] })
	next.Deck = append(next.Deck, pile...)
	next.Discard = []string{}
	return next
}

// TakeFromHand removes the first copy of code from the hand.
// ok is false, and z returned unchanged, when the hand holds no such code.
func (z PlayerZones) TakeFromHand(code string) (next PlayerZones, ok bool) {
	i := slices.Index(z.Hand, code)
	if i < 0 {
		return z, false
	}
	next = z.Clone()
	next.Hand = slices.Delete(next.Hand, i, i+1)
	return next, true
}

// DiscardFromHand moves the first copy of code from hand to the top of the discard pile.
func (z PlayerZones) DiscardFromHand(code string) (PlayerZones, bool) {
	next, ok := z.TakeFromHand(code)
	if !ok {
		return z, false
	}
	return next.AddToDiscard(code), true
}

// RemoveFromHand moves the first copy of code from hand to the removed-from-game zone.
func (z PlayerZones) RemoveFromHand(code string) (PlayerZones, bool) {
	next, ok := z.TakeFromHand(code)
	if !ok {
		return z, false
	}
	next.Removed = append(next.Removed, code)
	return next, true
}

// AddToDiscard returns a copy with code appended to the discard pile.
func (z PlayerZones) AddToDiscard(code string) PlayerZones {
	next := z.Clone()
	next.Discard = append(next.Discard, code)
	return next
}

// CardCount is the number of cards across all four zones.
func (z PlayerZones) CardCount() int {
	return len(z.Deck) + len(z.Hand) + len(z.Discard) + len(z.Removed)
}

// Clone returns a copy sharing no backing arrays with z.
func (z PlayerZones) Clone() PlayerZones {
	return PlayerZones{
		PlayerName: z.PlayerName,
		Deck:       cloneCodes(z.Deck),
		Hand:       cloneCodes(z.Hand),
		Discard:    cloneCodes(z.Discard),
		Removed:    cloneCodes(z.Removed),
	}
}

// cloneCodes copies s, mapping nil to an empty zone.
func cloneCodes(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
