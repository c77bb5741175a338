package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/tabletop/internal/models"
)

type importCardsRequest struct {
	Codes []string `json:"codes"`
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.cards.ListCards(r.Context(), intQuery(r, "limit", 100), intQuery(r, "offset", 0))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleSearchCards(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		s.writeError(w, r, fmt.Errorf("%w: name query parameter required", models.ErrValidation))
		return
	}
	cards, err := s.cards.SearchCards(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	card, err := s.cards.GetCard(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if card == nil {
		s.writeError(w, r, fmt.Errorf("card %s: %w", code, models.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleImportCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.cards.ImportCard(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleImportCards(w http.ResponseWriter, r *http.Request) {
	var req importCardsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	cards, err := s.cards.ImportCardsBulk(r.Context(), req.Codes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleCardImage(w http.ResponseWriter, r *http.Request) {
	path, err := s.cards.CardImagePath(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}
