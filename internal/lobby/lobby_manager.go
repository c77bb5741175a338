// internal/lobby/lobby_manager.go
package lobby

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tabletop/internal/auth"
	"github.com/jason-s-yu/tabletop/internal/models"
	"github.com/sirupsen/logrus"
)

// GameStarter creates the game once a lobby is ready.
type GameStarter interface {
	CreateGame(ctx context.Context, name string, deckIDs []uuid.UUID, playerNames []string) (models.Game, error)
}

// Notifier is told about every lobby change. deleted is true when the last player left
// or the host closed the lobby.
type Notifier interface {
	LobbyChanged(l models.Lobby, deleted bool)
}

// LobbyManager runs the pre-game flow: seats, deck picks, ready flags and the start.
type LobbyManager struct {
	store  *LobbyStore
	games  GameStarter
	notify Notifier
	logger logrus.FieldLogger
	now    func() time.Time

	// startMu keeps two Start calls from creating two games for one lobby.
	startMu sync.Mutex
}

// NewLobbyManager wires a LobbyManager. notify may be nil.
func NewLobbyManager(store *LobbyStore, games GameStarter, notify Notifier, logger logrus.FieldLogger) *LobbyManager {
	return &LobbyManager{
		store:  store,
		games:  games,
		notify: notify,
		logger: logger,
		now:    time.Now,
	}
}

// Create opens a lobby hosted by host. A non-empty passcode makes it private.
func (lm *LobbyManager) Create(name, host, passcode string) (models.Lobby, error) {
	l, err := models.NewLobby(name, host, lm.now())
	if err != nil {
		return models.Lobby{}, err
	}
	if passcode != "" {
		hash, err := auth.HashPasscode(passcode)
		if err != nil {
			return models.Lobby{}, fmt.Errorf("hash lobby passcode: %w", err)
		}
		l.PasscodeHash = hash
		l.Private = true
	}
	if err := lm.store.AddLobby(l); err != nil {
		return models.Lobby{}, err
	}
	lm.logger.WithFields(logrus.Fields{"lobby_id": l.ID, "host": host, "private": l.Private}).Info("lobby created")
	lm.changed(l, false)
	return l, nil
}

// Get returns a lobby by id.
func (lm *LobbyManager) Get(id uuid.UUID) (models.Lobby, error) {
	return lm.store.GetLobby(id)
}

// List returns every open lobby.
func (lm *LobbyManager) List() []models.Lobby {
	return lm.store.GetLobbies()
}

// Join seats player, checking the passcode of private lobbies.
func (lm *LobbyManager) Join(id uuid.UUID, player, passcode string) (models.Lobby, error) {
	current, err := lm.store.GetLobby(id)
	if err != nil {
		return models.Lobby{}, err
	}
	if current.PasscodeHash != "" {
		ok, err := auth.VerifyPasscode(passcode, current.PasscodeHash)
		if err != nil {
			return models.Lobby{}, fmt.Errorf("verify passcode of lobby %s: %w", id, err)
		}
		if !ok {
			return models.Lobby{}, fmt.Errorf("%w: wrong passcode for lobby %s", models.ErrForbidden, id)
		}
	}
	return lm.update(id, "joined", player, func(l models.Lobby) (models.Lobby, error) {
		if err := notStarted(l); err != nil {
			return models.Lobby{}, err
		}
		return l.WithPlayer(player)
	})
}

// Leave removes player. The lobby disappears with its last player.
func (lm *LobbyManager) Leave(id uuid.UUID, player string) (models.Lobby, error) {
	return lm.update(id, "left", player, func(l models.Lobby) (models.Lobby, error) {
		return l.WithoutPlayer(player)
	})
}

// ChooseDeck records the deck player will bring. Changing deck clears the ready flag.
func (lm *LobbyManager) ChooseDeck(id uuid.UUID, player string, deckID uuid.UUID) (models.Lobby, error) {
	if deckID == uuid.Nil {
		return models.Lobby{}, fmt.Errorf("%w: deck id required", models.ErrValidation)
	}
	return lm.update(id, "chose deck", player, func(l models.Lobby) (models.Lobby, error) {
		if err := notStarted(l); err != nil {
			return models.Lobby{}, err
		}
		return l.UpdatePlayer(player, func(p models.LobbyPlayer) models.LobbyPlayer {
			if p.DeckID != deckID {
				p.Ready = false
			}
			p.DeckID = deckID
			return p
		})
	})
}

// ToggleReady flips the ready flag of player.
func (lm *LobbyManager) ToggleReady(id uuid.UUID, player string) (models.Lobby, error) {
	return lm.update(id, "toggled ready", player, func(l models.Lobby) (models.Lobby, error) {
		if err := notStarted(l); err != nil {
			return models.Lobby{}, err
		}
		return l.UpdatePlayer(player, func(p models.LobbyPlayer) models.LobbyPlayer {
			p.Ready = !p.Ready
			return p
		})
	})
}

// Start creates the game. Only the host may start, and only once everyone is ready
// with a deck. Seat order becomes the player order of the game.
func (lm *LobbyManager) Start(ctx context.Context, id uuid.UUID, requester string) (models.Game, error) {
	lm.startMu.Lock()
	defer lm.startMu.Unlock()

	l, err := lm.store.GetLobby(id)
	if err != nil {
		return models.Game{}, err
	}
	switch {
	case l.Started():
		return models.Game{}, fmt.Errorf("%w: lobby %s already started game %s", models.ErrValidation, id, l.GameID)
	case l.Host() != requester:
		return models.Game{}, fmt.Errorf("%w: only the host can start lobby %s", models.ErrForbidden, id)
	case !l.AllReady():
		return models.Game{}, fmt.Errorf("%w: not every player is ready with a deck", models.ErrValidation)
	}

	names := make([]string, len(l.Players))
	deckIDs := make([]uuid.UUID, len(l.Players))
	for i, p := range l.Players {
		names[i] = p.Name
		deckIDs[i] = p.DeckID
	}
	g, err := lm.games.CreateGame(ctx, l.Name, deckIDs, names)
	if err != nil {
		return models.Game{}, fmt.Errorf("start lobby %s: %w", id, err)
	}

	if _, err := lm.update(id, "started", requester, func(l models.Lobby) (models.Lobby, error) {
		l.GameID = g.ID
		return l, nil
	}); err != nil {
		lm.logger.WithError(err).WithField("lobby_id", id).Warn("lobby vanished while starting")
	}
	return g, nil
}

// Delete closes the lobby. Only the host may do so; a started game is unaffected.
func (lm *LobbyManager) Delete(id uuid.UUID, requester string) error {
	lm.startMu.Lock()
	defer lm.startMu.Unlock()

	l, err := lm.store.DeleteLobby(id, func(l models.Lobby) error {
		if l.Host() != requester {
			return fmt.Errorf("%w: only the host can delete lobby %s", models.ErrForbidden, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	lm.logger.WithFields(logrus.Fields{"lobby_id": id, "host": requester}).Info("lobby deleted")
	lm.changed(l, true)
	return nil
}

func notStarted(l models.Lobby) error {
	if l.Started() {
		return fmt.Errorf("%w: lobby %s already started", models.ErrValidation, l.ID)
	}
	return nil
}

func (lm *LobbyManager) update(id uuid.UUID, what, player string, fn func(models.Lobby) (models.Lobby, error)) (models.Lobby, error) {
	next, remaining, err := lm.store.Update(id, fn)
	if err != nil {
		return models.Lobby{}, err
	}
	lm.logger.WithFields(logrus.Fields{"lobby_id": id, "player": player}).Debug("lobby player " + what)
	lm.changed(next, !remaining)
	return next, nil
}

func (lm *LobbyManager) changed(l models.Lobby, deleted bool) {
	if lm.notify != nil {
		lm.notify.LobbyChanged(l, deleted)
	}
}
