package models

import (
	"time"

	"github.com/google/uuid"
)

// Action types recorded for every persisted zone transition.
const (
	ActionCreateGame       = "create_game"
	ActionDrawCard         = "draw_card"
	ActionShuffleDiscard   = "shuffle_discard_into_deck"
	ActionPlayCard         = "play_card_to_table"
	ActionMoveCard         = "move_card_on_table"
	ActionToggleRotation   = "toggle_card_rotation"
	ActionFlipCard         = "flip_card"
	ActionAddCounter       = "add_counter_to_card"
	ActionDiscardFromHand  = "discard_from_hand"
	ActionDiscardFromTable = "discard_from_table"
	ActionRemoveFromGame   = "remove_from_game"
	ActionSaveGame         = "save_game"
	ActionDeleteGame       = "delete_game"
)

// GameAction records one change to a game, for the action log.
type GameAction struct {
	GameID      uuid.UUID      `json:"game_id"`
	ActionIndex int64          `json:"action_index"`
	Player      string         `json:"player,omitempty"`
	ActionType  string         `json:"action_type"`
	Payload     map[string]any `json:"payload,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}
