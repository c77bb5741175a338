// internal/models/card.go
package models

import (
	"fmt"
	"time"
)

// Card is a printed card definition imported from the catalog.
// It carries no rules, only what the table needs to identify and display it.
// Cards are created once per code and never mutated afterwards.
type Card struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Text     string `json:"text,omitempty"`
	ImageRef string `json:"image_ref,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCard builds a Card, rejecting an empty code.
func NewCard(code, name, text string) (Card, error) {
	if code == "" {
		return Card{}, fmt.Errorf("%w: card code cannot be empty", ErrValidation)
	}
	return Card{Code: code, Name: name, Text: text}, nil
}

// Equal reports whether both cards describe the same printed card.
func (c Card) Equal(other Card) bool {
	return c.Code == other.Code
}

// WithImageRef returns a copy of c pointing at a stored image.
func (c Card) WithImageRef(ref string) Card {
	c.ImageRef = ref
	return c
}
