package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS cards (
	code       TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	text       TEXT NOT NULL DEFAULT '',
	image_ref  TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS cards_name_idx ON cards (lower(name));

CREATE TABLE IF NOT EXISTS decks (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	entries    JSONB NOT NULL,
	source_url TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS games (
	id           UUID PRIMARY KEY,
	name         TEXT NOT NULL,
	participants TEXT[] NOT NULL,
	deck_ids     UUID[] NOT NULL DEFAULT '{}',
	state        JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS games_updated_at_idx ON games (updated_at DESC);

CREATE TABLE IF NOT EXISTS game_actions (
	id           BIGSERIAL PRIMARY KEY,
	game_id      UUID NOT NULL,
	action_index BIGINT NOT NULL,
	player       TEXT NOT NULL DEFAULT '',
	action_type  TEXT NOT NULL,
	payload      JSONB NOT NULL DEFAULT '{}',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (game_id, action_index)
);
`

// EnsureSchema creates the tables used by the repositories when they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	err := pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, schema)
		return err
	})
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
