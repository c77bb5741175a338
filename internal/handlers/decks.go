package handlers

import (
	"fmt"
	"net/http"

	"github.com/jason-s-yu/tabletop/internal/models"
)

type createDeckRequest struct {
	Name    string             `json:"name"`
	Entries []models.DeckEntry `json:"entries"`
}

type importDeckRequest struct {
	ExternalID string `json:"external_id"`
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := s.decks.GetAllDecks(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decks)
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	var req createDeckRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	deck, err := s.decks.CreateDeck(r.Context(), req.Name, req.Entries)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, deck)
}

func (s *Server) handleImportDeck(w http.ResponseWriter, r *http.Request) {
	var req importDeckRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	deck, err := s.decks.ImportDeck(r.Context(), req.ExternalID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, deck)
}

func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	deck, err := s.decks.GetDeck(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deck)
}

func (s *Server) handleGetDeckWithCards(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dwc, err := s.decks.GetDeckWithCards(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dwc)
}

func (s *Server) handleUpdateDeck(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var deck models.Deck
	if err := decodeJSON(r, &deck); err != nil {
		s.writeError(w, r, err)
		return
	}
	if deck.ID != id {
		s.writeError(w, r, fmt.Errorf("%w: body id %s does not match path", models.ErrValidation, deck.ID))
		return
	}
	updated, err := s.decks.UpdateDeck(r.Context(), deck)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.decks.DeleteDeck(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCatalogDecks lists the caller's catalog decks using their catalog bearer token.
func (s *Server) handleCatalogDecks(w http.ResponseWriter, r *http.Request) {
	refs, err := s.decks.ListCatalogDecks(r.Context(), bearerOrCookie(r, "catalog_token"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refs)
}
