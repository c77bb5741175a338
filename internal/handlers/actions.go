package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tabletop/internal/models"
)

// ActionMessage is one zone transition requested over HTTP or the table websocket.
// Card is an instance ID or a card code; Code is always a card code.
type ActionMessage struct {
	Type    string  `json:"type"`
	Player  string  `json:"player,omitempty"`
	Code    string  `json:"code,omitempty"`
	Card    string  `json:"card,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Counter string  `json:"counter,omitempty"`
	Amount  int     `json:"amount,omitempty"`
}

// applyAction routes msg to the matching GameInteractor transition.
func (s *Server) applyAction(ctx context.Context, gameID uuid.UUID, msg ActionMessage) (models.Game, error) {
	gi := s.games
	pos := models.Position{X: msg.X, Y: msg.Y}
	switch msg.Type {
	case models.ActionDrawCard:
		return gi.DrawCard(ctx, gameID, msg.Player)
	case models.ActionShuffleDiscard:
		return gi.ShuffleDiscardIntoDeck(ctx, gameID, msg.Player)
	case models.ActionPlayCard:
		return gi.PlayCardToTable(ctx, gameID, msg.Player, msg.Code, pos)
	case models.ActionMoveCard:
		return gi.MoveCardOnTable(ctx, gameID, msg.Card, pos)
	case models.ActionToggleRotation:
		return gi.ToggleCardRotation(ctx, gameID, msg.Card)
	case models.ActionFlipCard:
		return gi.FlipCard(ctx, gameID, msg.Card)
	case models.ActionAddCounter:
		if msg.Counter == "" {
			return models.Game{}, fmt.Errorf("%w: counter name required", models.ErrValidation)
		}
		return gi.AddCounterToCard(ctx, gameID, msg.Card, msg.Counter, msg.Amount)
	case models.ActionDiscardFromHand:
		return gi.DiscardFromHand(ctx, gameID, msg.Player, msg.Code)
	case models.ActionRemoveFromGame:
		return gi.RemoveFromGame(ctx, gameID, msg.Player, msg.Code)
	case models.ActionDiscardFromTable:
		return gi.DiscardFromTable(ctx, gameID, msg.Card)
	default:
		return models.Game{}, fmt.Errorf("%w: unknown action type %q", models.ErrValidation, msg.Type)
	}
}
