// internal/models/table.go
package models

import (
	"maps"

	"github.com/google/uuid"
)

// Position is a free-form placement on the table, used only for display.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CounterPolicy decides how a counter total is computed when an amount is added.
type CounterPolicy int

const (
	// CountersUnbounded allows totals to go negative.
	CountersUnbounded CounterPolicy = iota
	// CountersFloorZero clamps totals at zero.
	CountersFloorZero
)

// Apply returns the new total for a counter currently at current.
func (p CounterPolicy) Apply(current, amount int) int {
	total := current + amount
	if p == CountersFloorZero && total < 0 {
		return 0
	}
	return total
}

// CardInPlay is one physical copy of a card placed on the shared table.
// Copies of the same code are independent instances told apart by ID.
//
// Every "setter" returns a new value; the receiver and its Counters map are never modified.
type CardInPlay struct {
	ID       uuid.UUID      `json:"id"`
	Code     string         `json:"code"`
	Owner    string         `json:"owner,omitempty"`
	Position Position       `json:"position"`
	Rotated  bool           `json:"rotated"`
	FaceDown bool           `json:"face_down"`
	Counters map[string]int `json:"counters,omitempty"`
}

// NewCardInPlay places a fresh instance of code at pos, owned by owner.
func NewCardInPlay(code, owner string, pos Position) CardInPlay {
	return CardInPlay{
		ID:       uuid.New(),
		Code:     code,
		Owner:    owner,
		Position: pos,
	}
}

// WithPosition returns a copy moved to pos.
func (c CardInPlay) WithPosition(pos Position) CardInPlay {
	c.Counters = maps.Clone(c.Counters)
	c.Position = pos
	return c
}

// WithRotated returns a copy with the rotated flag set to rotated.
func (c CardInPlay) WithRotated(rotated bool) CardInPlay {
	c.Counters = maps.Clone(c.Counters)
	c.Rotated = rotated
	return c
}

// WithFlipped returns a copy with the face-down flag set to faceDown.
func (c CardInPlay) WithFlipped(faceDown bool) CardInPlay {
	c.Counters = maps.Clone(c.Counters)
	c.FaceDown = faceDown
	return c
}

// AddCounter adds amount to the named counter, creating it at zero first.
// Negative amounts decrement and totals may go below zero.
func (c CardInPlay) AddCounter(kind string, amount int) CardInPlay {
	return c.AddCounterWith(kind, amount, CountersUnbounded)
}

// AddCounterWith is AddCounter with an explicit total policy.
func (c CardInPlay) AddCounterWith(kind string, amount int, policy CounterPolicy) CardInPlay {
	counters := make(map[string]int, len(c.Counters)+1)
	maps.Copy(counters, c.Counters)
	counters[kind] = policy.Apply(counters[kind], amount)
	c.Counters = counters
	return c
}

// Counter returns the current value of a counter, zero when absent.
func (c CardInPlay) Counter(kind string) int {
	return c.Counters[kind]
}

// Equal reports value equality, treating a nil and an empty counter map alike.
func (c CardInPlay) Equal(o CardInPlay) bool {
	return c.ID == o.ID &&
		c.Code == o.Code &&
		c.Owner == o.Owner &&
		c.Position == o.Position &&
		c.Rotated == o.Rotated &&
		c.FaceDown == o.FaceDown &&
		maps.Equal(c.Counters, o.Counters)
}

// Clone returns a copy sharing no map with c.
func (c CardInPlay) Clone() CardInPlay {
	c.Counters = maps.Clone(c.Counters)
	return c
}
