// internal/models/catalog.go
package models

// CardInfo is what the external catalog knows about a printed card.
type CardInfo struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Text     string `json:"text"`
	ImageURL string `json:"imagesrc"`
}

// DeckListing is a deck as published on the external catalog.
type DeckListing struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	URL     string      `json:"url"`
	Entries []DeckEntry `json:"entries"`
}

// DeckRef is a summary of one of a catalog user's decks.
type DeckRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
