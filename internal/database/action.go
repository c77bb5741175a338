package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/tabletop/internal/models"
)

// InsertGameActions appends a batch of action log records in one transaction.
// Records already stored under the same (game, index) are skipped, so a batch can be retried.
func InsertGameActions(ctx context.Context, pool *pgxpool.Pool, actions []models.GameAction) error {
	if len(actions) == 0 {
		return nil
	}
	q := `
		INSERT INTO game_actions (game_id, action_index, player, action_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	return pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, a := range actions {
			payload, err := json.Marshal(a.Payload)
			if err != nil {
				return fmt.Errorf("encode payload of %s action %d: %w", a.GameID, a.ActionIndex, err)
			}
			batch.Queue(q, a.GameID, a.ActionIndex, a.Player, a.ActionType, payload, a.Timestamp)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// GameActions returns the stored action log of a game in index order.
func GameActions(ctx context.Context, pool *pgxpool.Pool, gameID uuid.UUID) ([]models.GameAction, error) {
	q := `
		SELECT game_id, action_index, player, action_type, payload, created_at
		FROM game_actions
		WHERE game_id = $1
		ORDER BY action_index
	`
	rows, err := pool.Query(ctx, q, gameID)
	if err != nil {
		return nil, fmt.Errorf("select actions of game %s: %w", gameID, err)
	}
	defer rows.Close()

	out := []models.GameAction{}
	for rows.Next() {
		var (
			a       models.GameAction
			payload []byte
		)
		if err := rows.Scan(&a.GameID, &a.ActionIndex, &a.Player, &a.ActionType, &payload, &a.Timestamp); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &a.Payload); err != nil {
			return nil, fmt.Errorf("decode payload of %s action %d: %w", gameID, a.ActionIndex, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ActionLog writes historian batches into game_actions.
type ActionLog struct {
	pool *pgxpool.Pool
}

func NewActionLog(pool *pgxpool.Pool) *ActionLog {
	return &ActionLog{pool: pool}
}

func (l *ActionLog) WriteActions(ctx context.Context, actions []models.GameAction) error {
	return InsertGameActions(ctx, l.pool, actions)
}
