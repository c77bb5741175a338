package handlers

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tabletop/internal/models"
	"github.com/sirupsen/logrus"
)

type createGameRequest struct {
	Name    string      `json:"name"`
	DeckIDs []uuid.UUID `json:"deck_ids"`
	Players []string    `json:"players"`
}

type seatRequest struct {
	Player string `json:"player"`
}

type seatResponse struct {
	GameID uuid.UUID `json:"game_id"`
	Player string    `json:"player"`
	Token  string    `json:"token"`
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.games.GetAllGames(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (s *Server) handleRecentGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.games.GetRecentGames(r.Context(), intQuery(r, "limit", 0))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.games.CreateGame(r.Context(), req.Name, req.DeckIDs, req.Players)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.games.GetGame(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleSaveGame(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var g models.Game
	if err := decodeJSON(r, &g); err != nil {
		s.writeError(w, r, err)
		return
	}
	if g.ID != id {
		s.writeError(w, r, fmt.Errorf("%w: body id %s does not match path", models.ErrValidation, g.ID))
		return
	}
	saved, err := s.games.SaveGame(r.Context(), g)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.games.DeleteGame(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGameAction applies one zone transition and returns the resulting game.
func (s *Server) handleGameAction(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var msg ActionMessage
	if err := decodeJSON(r, &msg); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.applyAction(r.Context(), id, msg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// handleCreateSeat issues a seat token for one participant of the game. There are no user
// accounts: a seat token names which participant a socket speaks for, it does not prove
// who the caller is. Any client that knows a game ID and a participant name gets a seat,
// and asking again reissues it. Put the server behind an authenticating proxy if that
// matters.
func (s *Server) handleCreateSeat(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req seatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.games.GetGame(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !slices.Contains(g.ParticipantNames, req.Player) {
		s.writeError(w, r, fmt.Errorf("%w: %q is not a participant", models.ErrForbidden, req.Player))
		return
	}
	seat, err := s.seatFor(g.ID, req.Player)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, seat)
}

func (s *Server) seatFor(gameID uuid.UUID, player string) (seatResponse, error) {
	token, err := s.signer.CreateSeatToken(gameID, player)
	if err != nil {
		return seatResponse{}, fmt.Errorf("create seat token: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"game_id": gameID, "player": player}).Debug("seat token issued")
	return seatResponse{GameID: gameID, Player: player, Token: token}, nil
}
