// internal/game/game_interactor.go
package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tabletop/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultRecentGames is used by GetRecentGames when no positive limit is given.
const DefaultRecentGames = 10

// GameInteractor creates sessions and performs zone transitions on them.
//
// Every transition loads the game, computes a replacement from that snapshot and writes
// it back whole. Two concurrent transitions on the same game race; the later write wins.
// No rule of the card game is checked anywhere here.
type GameInteractor struct {
	games    GameRepository
	decks    DeckRepository
	events   EventSink
	rng      models.Shuffler
	counters models.CounterPolicy
	logger   logrus.FieldLogger
	now      func() time.Time
}

// GameOption customises a GameInteractor.
type GameOption func(*GameInteractor)

// WithEventSink publishes an Event after every persisted change.
func WithEventSink(sink EventSink) GameOption {
	return func(gi *GameInteractor) { gi.events = sink }
}

// WithShuffler replaces the random source used for deck shuffles.
func WithShuffler(rng models.Shuffler) GameOption {
	return func(gi *GameInteractor) { gi.rng = rng }
}

// WithCounterPolicy selects how counter totals are computed.
func WithCounterPolicy(p models.CounterPolicy) GameOption {
	return func(gi *GameInteractor) { gi.counters = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) GameOption {
	return func(gi *GameInteractor) { gi.now = now }
}

// globalShuffler uses the goroutine-safe top-level source of math/rand/v2.
type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// NewGameInteractor wires a GameInteractor.
func NewGameInteractor(games GameRepository, decks DeckRepository, logger logrus.FieldLogger, opts ...GameOption) *GameInteractor {
	gi := &GameInteractor{
		games:    games,
		decks:    decks,
		rng:      globalShuffler{},
		counters: models.CountersUnbounded,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(gi)
	}
	return gi
}

// CreateGame starts a session with one deck per player, paired by position.
// Each deck is expanded and shuffled into that player's deck zone.
func (gi *GameInteractor) CreateGame(ctx context.Context, name string, deckIDs []uuid.UUID, playerNames []string) (models.Game, error) {
	if len(deckIDs) != len(playerNames) {
		return models.Game{}, fmt.Errorf("%w: %d decks for %d players", models.ErrValidation, len(deckIDs), len(playerNames))
	}

	zones := make([]models.PlayerZones, 0, len(playerNames))
	for i, player := range playerNames {
		deck, err := gi.decks.FindByID(ctx, deckIDs[i])
		if err != nil {
			return models.Game{}, fmt.Errorf("load deck %s for %s: %w", deckIDs[i], player, err)
		}
		codes := deck.ExpandedCodes()
		gi.rng.Shuffle(len(codes), func(a, b int) { codes[a], codes[b] = codes[b], codes[a] })
		zones = append(zones, models.NewPlayerZones(player, codes))
	}

	g, err := models.NewGame(name, playerNames, deckIDs, models.NewGameState(zones), gi.now())
	if err != nil {
		return models.Game{}, err
	}
	if err := gi.games.Save(ctx, g); err != nil {
		return models.Game{}, fmt.Errorf("save game %s: %w", g.ID, err)
	}

	gi.logger.WithFields(logrus.Fields{
		"game_id": g.ID,
		"name":    g.Name,
		"players": len(playerNames),
	}).Info("game created")
	gi.publish(ctx, models.GameAction{
		GameID:     g.ID,
		ActionType: models.ActionCreateGame,
		Payload:    map[string]any{"players": playerNames},
		Timestamp:  g.CreatedAt,
	}, g)
	return g, nil
}

// GetGame loads a game, failing with models.ErrNotFound when it does not exist.
func (gi *GameInteractor) GetGame(ctx context.Context, id uuid.UUID) (models.Game, error) {
	g, err := gi.games.FindByID(ctx, id)
	if err != nil {
		return models.Game{}, fmt.Errorf("get game %s: %w", id, err)
	}
	return g, nil
}

// GetAllGames lists every stored game.
func (gi *GameInteractor) GetAllGames(ctx context.Context) ([]models.Game, error) {
	return gi.games.FindAll(ctx)
}

// GetRecentGames lists at most limit games, most recently updated first.
func (gi *GameInteractor) GetRecentGames(ctx context.Context, limit int) ([]models.Game, error) {
	if limit <= 0 {
		limit = DefaultRecentGames
	}
	return gi.games.FindRecent(ctx, limit)
}

// SaveGame persists a whole game value supplied by the caller.
func (gi *GameInteractor) SaveGame(ctx context.Context, g models.Game) (models.Game, error) {
	if g.ID == uuid.Nil {
		return models.Game{}, fmt.Errorf("%w: game id required", models.ErrValidation)
	}
	if err := g.Validate(); err != nil {
		return models.Game{}, err
	}
	next := g.Clone()
	next.UpdatedAt = gi.now()
	if next.CreatedAt.IsZero() {
		next.CreatedAt = next.UpdatedAt
	}
	if err := gi.games.Save(ctx, next); err != nil {
		return models.Game{}, fmt.Errorf("save game %s: %w", g.ID, err)
	}
	gi.publish(ctx, models.GameAction{GameID: next.ID, ActionType: models.ActionSaveGame, Timestamp: next.UpdatedAt}, next)
	return next, nil
}

// DeleteGame removes a game.
func (gi *GameInteractor) DeleteGame(ctx context.Context, id uuid.UUID) error {
	if err := gi.games.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	gi.logger.WithField("game_id", id).Info("game deleted")
	gi.publish(ctx, models.GameAction{GameID: id, ActionType: models.ActionDeleteGame, Timestamp: gi.now()}, models.Game{ID: id})
	return nil
}

// DrawCard moves the top card of the player's deck to their hand.
// An empty deck is a no-op, not an error.
func (gi *GameInteractor) DrawCard(ctx context.Context, id uuid.UUID, player string) (models.Game, error) {
	action := models.GameAction{Player: player, ActionType: models.ActionDrawCard}
	return gi.transition(ctx, id, action, func(s models.GameState) (models.GameState, bool, error) {
		zones, err := s.Player(player)
		if err != nil {
			return s, false, err
		}
		next, _, ok := zones.DrawCard()
		if !ok {
			return s, false, nil
		}
		ns, err := s.UpdatePlayer(player, next)
		return ns, true, err
	})
}

// ShuffleDiscardIntoDeck shuffles the player's discard pile under their deck.
// An empty discard pile is a no-op.
func (gi *GameInteractor) ShuffleDiscardIntoDeck(ctx context.Context, id uuid.UUID, player string) (models.Game, error) {
	action := models.GameAction{Player: player, ActionType: models.ActionShuffleDiscard}
	return gi.transition(ctx, id, action, func(s models.GameState) (models.GameState, bool, error) {
		zones, err := s.Player(player)
		if err != nil {
			return s, false, err
		}
		if len(zones.Discard) == 0 {
			return s, false, nil
		}
		ns, err := s.UpdatePlayer(player, zones.ShuffleDiscardIntoDeck(gi.rng))
		return ns, true, err
	})
}

// PlayCardToTable puts a new instance of code on the table at pos, owned by player.
// One copy is taken from the player's hand when there is one; the card is placed either way.
func (gi *GameInteractor) PlayCardToTable(ctx context.Context, id uuid.UUID, player, code string, pos models.Position) (models.Game, error) {
	if code == "" {
		return models.Game{}, fmt.Errorf("%w: card code cannot be empty", models.ErrValidation)
	}
	payload := map[string]any{"code": code, "x": pos.X, "y": pos.Y}
	action := models.GameAction{Player: player, ActionType: models.ActionPlayCard, Payload: payload}
	return gi.transition(ctx, id, action, func(s models.GameState) (models.GameState, bool, error) {
		zones, err := s.Player(player)
		if err != nil {
			return s, false, err
		}
		next, fromHand := zones.TakeFromHand(code)
		ns, err := s.UpdatePlayer(player, next)
		if err != nil {
			return s, false, err
		}
		card := models.NewCardInPlay(code, player, pos)
		payload["instance_id"] = card.ID.String()
		payload["from_hand"] = fromHand
		return ns.PlaceCard(card), true, nil
	})
}

// MoveCardOnTable repositions the card matched by ref. No match is a no-op.
func (gi *GameInteractor) MoveCardOnTable(ctx context.Context, id uuid.UUID, ref string, pos models.Position) (models.Game, error) {
	action := models.GameAction{
		ActionType: models.ActionMoveCard,
		Payload:    map[string]any{"card": ref, "x": pos.X, "y": pos.Y},
	}
	return gi.updateCard(ctx, id, action, ref, func(c models.CardInPlay) models.CardInPlay {
		return c.WithPosition(pos)
	})
}

// ToggleCardRotation flips the rotated flag of the card matched by ref.
func (gi *GameInteractor) ToggleCardRotation(ctx context.Context, id uuid.UUID, ref string) (models.Game, error) {
	action := models.GameAction{ActionType: models.ActionToggleRotation, Payload: map[string]any{"card": ref}}
	return gi.updateCard(ctx, id, action, ref, func(c models.CardInPlay) models.CardInPlay {
		return c.WithRotated(!c.Rotated)
	})
}

// FlipCard turns the card matched by ref face up or face down.
func (gi *GameInteractor) FlipCard(ctx context.Context, id uuid.UUID, ref string) (models.Game, error) {
	action := models.GameAction{ActionType: models.ActionFlipCard, Payload: map[string]any{"card": ref}}
	return gi.updateCard(ctx, id, action, ref, func(c models.CardInPlay) models.CardInPlay {
		return c.WithFlipped(!c.FaceDown)
	})
}

// AddCounterToCard adds amount to an arbitrary named counter on the card matched by ref.
func (gi *GameInteractor) AddCounterToCard(ctx context.Context, id uuid.UUID, ref, kind string, amount int) (models.Game, error) {
	action := models.GameAction{
		ActionType: models.ActionAddCounter,
		Payload:    map[string]any{"card": ref, "counter": kind, "amount": amount},
	}
	return gi.updateCard(ctx, id, action, ref, func(c models.CardInPlay) models.CardInPlay {
		return c.AddCounterWith(kind, amount, gi.counters)
	})
}

// DiscardFromHand moves one copy of code from the player's hand to their discard pile.
// A code not in hand is a no-op.
func (gi *GameInteractor) DiscardFromHand(ctx context.Context, id uuid.UUID, player, code string) (models.Game, error) {
	action := models.GameAction{Player: player, ActionType: models.ActionDiscardFromHand, Payload: map[string]any{"code": code}}
	return gi.transition(ctx, id, action, func(s models.GameState) (models.GameState, bool, error) {
		zones, err := s.Player(player)
		if err != nil {
			return s, false, err
		}
		next, ok := zones.DiscardFromHand(code)
		if !ok {
			return s, false, nil
		}
		ns, err := s.UpdatePlayer(player, next)
		return ns, true, err
	})
}

// RemoveFromGame moves one copy of code from the player's hand out of the game.
// A code not in hand is a no-op.
func (gi *GameInteractor) RemoveFromGame(ctx context.Context, id uuid.UUID, player, code string) (models.Game, error) {
	action := models.GameAction{Player: player, ActionType: models.ActionRemoveFromGame, Payload: map[string]any{"code": code}}
	return gi.transition(ctx, id, action, func(s models.GameState) (models.GameState, bool, error) {
		zones, err := s.Player(player)
		if err != nil {
			return s, false, err
		}
		next, ok := zones.RemoveFromHand(code)
		if !ok {
			return s, false, nil
		}
		ns, err := s.UpdatePlayer(player, next)
		return ns, true, err
	})
}

// DiscardFromTable takes the card matched by ref off the table and puts its code on
// the owner's discard pile. No match is a no-op.
func (gi *GameInteractor) DiscardFromTable(ctx context.Context, id uuid.UUID, ref string) (models.Game, error) {
	payload := map[string]any{"card": ref}
	action := models.GameAction{ActionType: models.ActionDiscardFromTable, Payload: payload}
	return gi.transition(ctx, id, action, func(s models.GameState) (models.GameState, bool, error) {
		ns, card, ok := s.TakeCard(ref)
		if !ok {
			return s, false, nil
		}
		owner, err := ns.Player(card.Owner)
		if err != nil {
			return s, false, fmt.Errorf("owner of card %s: %w", card.ID, err)
		}
		payload["instance_id"] = card.ID.String()
		payload["owner"] = card.Owner
		ns, err = ns.UpdatePlayer(card.Owner, owner.AddToDiscard(card.Code))
		return ns, true, err
	})
}

func (gi *GameInteractor) updateCard(ctx context.Context, id uuid.UUID, action models.GameAction, ref string, fn func(models.CardInPlay) models.CardInPlay) (models.Game, error) {
	return gi.transition(ctx, id, action, func(s models.GameState) (models.GameState, bool, error) {
		ns, ok := s.ReplaceCard(ref, fn)
		return ns, ok, nil
	})
}

// transition runs one load → transform → store cycle. When fn reports no change the
// loaded game is returned and nothing is written.
func (gi *GameInteractor) transition(ctx context.Context, id uuid.UUID, action models.GameAction, fn func(models.GameState) (models.GameState, bool, error)) (models.Game, error) {
	g, err := gi.GetGame(ctx, id)
	if err != nil {
		return models.Game{}, err
	}
	next, changed, err := fn(g.State)
	if err != nil {
		return models.Game{}, err
	}
	log := gi.logger.WithFields(logrus.Fields{
		"game_id": id,
		"action":  action.ActionType,
		"player":  action.Player,
	})
	if !changed {
		log.Debug("no-op transition")
		return g, nil
	}

	updated := g.WithState(next, gi.now())
	if err := gi.games.Save(ctx, updated); err != nil {
		return models.Game{}, fmt.Errorf("save game %s: %w", id, err)
	}
	log.Debug("game updated")

	action.GameID = id
	action.Timestamp = updated.UpdatedAt
	gi.publish(ctx, action, updated)
	return updated, nil
}

func (gi *GameInteractor) publish(ctx context.Context, action models.GameAction, g models.Game) {
	if gi.events == nil {
		return
	}
	if err := gi.events.Publish(ctx, Event{Action: action, Game: g}); err != nil {
		gi.logger.WithError(err).WithFields(logrus.Fields{
			"game_id": action.GameID,
			"action":  action.ActionType,
		}).Warn("publish game event")
	}
}
