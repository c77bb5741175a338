package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tabletop/internal/models"
)

type createLobbyRequest struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Passcode string `json:"passcode,omitempty"`
}

type lobbyPlayerRequest struct {
	Player   string    `json:"player"`
	Passcode string    `json:"passcode,omitempty"`
	DeckID   uuid.UUID `json:"deck_id,omitempty"`
}

type startLobbyResponse struct {
	Game  models.Game    `json:"game"`
	Seats []seatResponse `json:"seats"`
}

func (s *Server) handleListLobbies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.lobbies.List())
}

func (s *Server) handleCreateLobby(w http.ResponseWriter, r *http.Request) {
	var req createLobbyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	l, err := s.lobbies.Create(req.Name, req.Host, req.Passcode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) handleGetLobby(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l, err := s.lobbies.Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// handleDeleteLobby closes a lobby on behalf of ?player=, who must be its host.
func (s *Server) handleDeleteLobby(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.lobbies.Delete(id, r.URL.Query().Get("player")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lobbyAction decodes the common {id, player} request shape and writes the updated lobby.
func (s *Server) lobbyAction(w http.ResponseWriter, r *http.Request, fn func(id uuid.UUID, req lobbyPlayerRequest) (models.Lobby, error)) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req lobbyPlayerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	l, err := fn(id, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleJoinLobby(w http.ResponseWriter, r *http.Request) {
	s.lobbyAction(w, r, func(id uuid.UUID, req lobbyPlayerRequest) (models.Lobby, error) {
		return s.lobbies.Join(id, req.Player, req.Passcode)
	})
}

func (s *Server) handleLeaveLobby(w http.ResponseWriter, r *http.Request) {
	s.lobbyAction(w, r, func(id uuid.UUID, req lobbyPlayerRequest) (models.Lobby, error) {
		return s.lobbies.Leave(id, req.Player)
	})
}

func (s *Server) handleChooseDeck(w http.ResponseWriter, r *http.Request) {
	s.lobbyAction(w, r, func(id uuid.UUID, req lobbyPlayerRequest) (models.Lobby, error) {
		return s.lobbies.ChooseDeck(id, req.Player, req.DeckID)
	})
}

func (s *Server) handleToggleReady(w http.ResponseWriter, r *http.Request) {
	s.lobbyAction(w, r, func(id uuid.UUID, req lobbyPlayerRequest) (models.Lobby, error) {
		return s.lobbies.ToggleReady(id, req.Player)
	})
}

// handleStartLobby creates the game and hands back a seat token for every player.
func (s *Server) handleStartLobby(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req lobbyPlayerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.lobbies.Start(r.Context(), id, req.Player)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := startLobbyResponse{Game: g, Seats: make([]seatResponse, 0, len(g.ParticipantNames))}
	for _, p := range g.ParticipantNames {
		seat, err := s.seatFor(g.ID, p)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.Seats = append(resp.Seats, seat)
	}
	writeJSON(w, http.StatusCreated, resp)
}
