// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/tabletop/internal/game"
	"github.com/jason-s-yu/tabletop/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list the historian drains.
const DefaultQueueName = "tabletop_actions"

// ConnectRedis creates a client for addr/db and pings it.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// ActionPublisher numbers game actions per game and pushes them onto the historian queue.
// It implements game.EventSink.
type ActionPublisher struct {
	rdb    *redis.Client
	queue  string
	logger logrus.FieldLogger
}

// NewActionPublisher returns a publisher writing to queue, or DefaultQueueName when empty.
func NewActionPublisher(rdb *redis.Client, queue string, logger logrus.FieldLogger) *ActionPublisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &ActionPublisher{rdb: rdb, queue: queue, logger: logger}
}

func indexKey(gameID uuid.UUID) string {
	return "tabletop:game:" + gameID.String() + ":action_index"
}

// Publish assigns the next action index of the game and RPushes the record.
func (p *ActionPublisher) Publish(ctx context.Context, ev game.Event) error {
	action := ev.Action
	idx, err := p.rdb.Incr(ctx, indexKey(action.GameID)).Result()
	if err != nil {
		return fmt.Errorf("failed to INCR action index for game %s: %w", action.GameID, err)
	}
	action.ActionIndex = idx

	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal GameAction: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}

	if action.ActionType == models.ActionDeleteGame {
		if err := p.rdb.Del(ctx, indexKey(action.GameID)).Err(); err != nil {
			p.logger.WithError(err).WithField("game_id", action.GameID).Warn("failed to drop action index")
		}
	}
	return nil
}
