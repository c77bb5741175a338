package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tabletop/internal/game"
	"github.com/jason-s-yu/tabletop/internal/models"
	"github.com/sirupsen/logrus"
)

const subscriberBuffer = 32

// TableEvent is the message pushed to table watchers after every game change.
type TableEvent struct {
	Type   string             `json:"type"`
	Action *models.GameAction `json:"action,omitempty"`
	Game   *models.Game       `json:"game,omitempty"`
	Lobby  *models.Lobby      `json:"lobby,omitempty"`
	Error  string             `json:"error,omitempty"`
}

type subscriber struct {
	ch chan []byte
}

// Hub fans game and lobby updates out to websocket subscribers, keyed by game or lobby ID.
// It implements game.EventSink and lobby.Notifier. A subscriber that falls behind loses messages.
type Hub struct {
	mu     sync.Mutex
	topics map[uuid.UUID]map[*subscriber]struct{}
	logger logrus.FieldLogger
}

func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		topics: make(map[uuid.UUID]map[*subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe registers interest in topic. Call the returned func to unsubscribe.
func (h *Hub) Subscribe(topic uuid.UUID) (<-chan []byte, func()) {
	sub := &subscriber{ch: make(chan []byte, subscriberBuffer)}
	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*subscriber]struct{})
	}
	h.topics[topic][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.topics[topic], sub)
			if len(h.topics[topic]) == 0 {
				delete(h.topics, topic)
			}
		})
	}
}

// Subscribers is the number of live subscriptions to topic.
func (h *Hub) Subscribers(topic uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}

func (h *Hub) broadcast(topic uuid.UUID, ev TableEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.WithError(err).WithField("topic", topic).Error("marshal table event")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.topics[topic] {
		select {
		case sub.ch <- data:
		default:
			h.logger.WithField("topic", topic).Warn("dropping message for slow subscriber")
		}
	}
}

// Publish implements game.EventSink.
func (h *Hub) Publish(_ context.Context, ev game.Event) error {
	action := ev.Action
	out := TableEvent{Type: "game_updated", Action: &action}
	if action.ActionType == models.ActionDeleteGame {
		out.Type = "game_deleted"
	} else {
		g := ev.Game
		out.Game = &g
	}
	h.broadcast(action.GameID, out)
	return nil
}

// LobbyChanged implements lobby.Notifier.
func (h *Hub) LobbyChanged(l models.Lobby, deleted bool) {
	out := TableEvent{Type: "lobby_updated", Lobby: &l}
	if deleted {
		out.Type = "lobby_deleted"
	}
	h.broadcast(l.ID, out)
}
