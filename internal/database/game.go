package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/tabletop/internal/models"
)

const gameColumns = `id, name, participants, deck_ids, state, created_at, updated_at`

// GameRepo stores whole games, with the zone state as JSONB. Save is a blind upsert.
type GameRepo struct {
	pool *pgxpool.Pool
}

func NewGameRepo(pool *pgxpool.Pool) *GameRepo {
	return &GameRepo{pool: pool}
}

func scanGame(row pgx.Row) (models.Game, error) {
	var (
		g     models.Game
		state []byte
	)
	if err := row.Scan(&g.ID, &g.Name, &g.ParticipantNames, &g.DeckIDs, &state, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return models.Game{}, err
	}
	if err := json.Unmarshal(state, &g.State); err != nil {
		return models.Game{}, fmt.Errorf("decode state of game %s: %w", g.ID, err)
	}
	return g, nil
}

func (r *GameRepo) queryGames(ctx context.Context, q string, args ...any) ([]models.Game, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}
	defer rows.Close()

	out := []models.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GameRepo) FindByID(ctx context.Context, id uuid.UUID) (models.Game, error) {
	g, err := scanGame(r.pool.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Game{}, fmt.Errorf("game %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Game{}, fmt.Errorf("select game %s: %w", id, err)
	}
	return g, nil
}

func (r *GameRepo) FindAll(ctx context.Context) ([]models.Game, error) {
	return r.queryGames(ctx, `SELECT `+gameColumns+` FROM games ORDER BY created_at`)
}

func (r *GameRepo) FindRecent(ctx context.Context, limit int) ([]models.Game, error) {
	return r.queryGames(ctx, `SELECT `+gameColumns+` FROM games ORDER BY updated_at DESC LIMIT $1`, limit)
}

func (r *GameRepo) Save(ctx context.Context, g models.Game) error {
	state, err := json.Marshal(g.State)
	if err != nil {
		return fmt.Errorf("encode state of game %s: %w", g.ID, err)
	}
	deckIDs := g.DeckIDs
	if deckIDs == nil {
		deckIDs = []uuid.UUID{}
	}
	q := `
		INSERT INTO games (id, name, participants, deck_ids, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, participants = EXCLUDED.participants, deck_ids = EXCLUDED.deck_ids,
		    state = EXCLUDED.state, updated_at = EXCLUDED.updated_at
	`
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, g.ID, g.Name, g.ParticipantNames, deckIDs, state, g.CreatedAt, g.UpdatedAt)
		return err
	})
}

func (r *GameRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("game %s: %w", id, models.ErrNotFound)
	}
	return nil
}
