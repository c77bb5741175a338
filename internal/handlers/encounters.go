package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type encounterRequest struct {
	Name    string   `json:"name,omitempty"`
	Modules []string `json:"modules"`
}

type encounterModulesResponse struct {
	Name    string   `json:"name"`
	Modules []string `json:"modules"`
}

func (s *Server) handleGetEncounterModule(w http.ResponseWriter, r *http.Request) {
	m, err := s.encounters.GetModule(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleListEncounters(w http.ResponseWriter, r *http.Request) {
	decks, err := s.encounters.ListSaved(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decks)
}

// handleBuildEncounter joins modules without storing anything.
func (s *Server) handleBuildEncounter(w http.ResponseWriter, r *http.Request) {
	var req encounterRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.encounters.BuildDeck(r.Context(), req.Modules)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleSaveEncounter(w http.ResponseWriter, r *http.Request) {
	var req encounterRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	deck, err := s.encounters.SaveDeck(r.Context(), req.Name, req.Modules)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, deck)
}

func (s *Server) handleGetEncounter(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.encounters.GetSaved(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleEncounterModulesByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	modules, err := s.encounters.ModulesByName(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, encounterModulesResponse{Name: name, Modules: modules})
}
