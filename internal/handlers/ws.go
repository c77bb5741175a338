package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jason-s-yu/tabletop/internal/auth"
	"github.com/jason-s-yu/tabletop/internal/middleware"
	"github.com/jason-s-yu/tabletop/internal/models"
	"github.com/sirupsen/logrus"
)

const writeTimeout = 5 * time.Second

// GameDeletedError is the close code sent after the watched game or lobby goes away.
const GameDeletedError websocket.StatusCode = 3004

// handleTableWS authenticates a seat token, sends the current game, then streams every
// update and accepts zone transitions from the seat's player.
func (s *Server) handleTableWS(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	seat, err := s.signer.Authenticate(bearerOrCookie(r, "seat_token"))
	if err != nil {
		s.logger.WithError(err).WithField("game_id", id).Debug("table websocket rejected")
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: auth.ErrInvalidToken.Error()})
		return
	}
	if seat.GameID != id {
		s.writeError(w, r, fmt.Errorf("%w: seat belongs to game %s", models.ErrForbidden, seat.GameID))
		return
	}
	g, err := s.games.GetGame(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns(),
	})
	if err != nil {
		s.logger.WithError(err).WithField("game_id", id).Warn("websocket accept failed")
		return
	}
	defer c.CloseNow()
	middleware.LogWebSocketConnect(s.logger, r.RemoteAddr, r.URL.Path)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates, unsubscribe := s.hub.Subscribe(id)
	defer unsubscribe()

	if err := s.send(ctx, c, TableEvent{Type: "game_state", Game: &g}); err != nil {
		middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, r.URL.Path, err)
		return
	}
	go s.forward(ctx, cancel, c, updates)

	err = s.readTable(ctx, c, id, seat)
	middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, r.URL.Path, err)
}

// readTable applies every action sent by the seat until the socket closes.
// Hand actions always act on the seat's own player.
func (s *Server) readTable(ctx context.Context, c *websocket.Conn, gameID uuid.UUID, seat auth.Seat) error {
	log := s.logger.WithFields(logrus.Fields{"game_id": gameID, "player": seat.Player})
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			return closeErr(err)
		}
		if typ != websocket.MessageText {
			log.Warn("ignoring non-text frame")
			continue
		}

		var msg ActionMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = s.send(ctx, c, TableEvent{Type: "error", Error: "invalid JSON"})
			continue
		}
		if msg.Type == "ping" {
			_ = s.send(ctx, c, TableEvent{Type: "pong"})
			continue
		}
		msg.Player = seat.Player

		log.WithField("action", msg.Type).Debug("table action received")
		if _, err := s.applyAction(ctx, gameID, msg); err != nil {
			text := err.Error()
			if statusFor(err) == http.StatusInternalServerError {
				log.WithError(err).Error("table action failed")
				text = "internal server error"
			}
			_ = s.send(ctx, c, TableEvent{Type: "error", Error: text})
		}
	}
}

// handleLobbyWS streams lobby changes. The socket is read only to notice the close.
func (s *Server) handleLobbyWS(w http.ResponseWriter, r *http.Request) {
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

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns(),
	})
	if err != nil {
		s.logger.WithError(err).WithField("lobby_id", id).Warn("websocket accept failed")
		return
	}
	defer c.CloseNow()
	middleware.LogWebSocketConnect(s.logger, r.RemoteAddr, r.URL.Path)

	updates, unsubscribe := s.hub.Subscribe(id)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(c.CloseRead(r.Context()))
	defer cancel()

	if err := s.send(ctx, c, TableEvent{Type: "lobby_updated", Lobby: &l}); err != nil {
		middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, r.URL.Path, err)
		return
	}
	s.forward(ctx, cancel, c, updates)
	middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, r.URL.Path, nil)
}

// forward copies hub messages to the socket until ctx ends or a write fails.
// A deletion message is the last one sent; the socket is then closed.
func (s *Server) forward(ctx context.Context, cancel context.CancelFunc, c *websocket.Conn, updates <-chan []byte) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-updates:
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(wctx, websocket.MessageText, data)
			wcancel()
			if err != nil {
				return
			}
			if isDeletion(data) {
				_ = c.Close(GameDeletedError, "deleted")
				return
			}
		}
	}
}

func (s *Server) send(ctx context.Context, c *websocket.Conn, ev TableEvent) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, c, ev)
}

func (s *Server) originPatterns() []string {
	if s.origin == "" {
		return nil
	}
	return []string{s.origin}
}

func isDeletion(data []byte) bool {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return false
	}
	return head.Type == "game_deleted" || head.Type == "lobby_deleted"
}

// closeErr drops the error for an orderly close so it is not logged as a failure.
func closeErr(err error) error {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
