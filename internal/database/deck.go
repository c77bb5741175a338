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

const deckColumns = `id, name, entries, source_url, created_at, updated_at`

// DeckRepo stores decks with their entries as a JSONB column.
type DeckRepo struct {
	pool *pgxpool.Pool
}

func NewDeckRepo(pool *pgxpool.Pool) *DeckRepo {
	return &DeckRepo{pool: pool}
}

func scanDeck(row pgx.Row) (models.Deck, error) {
	var (
		d       models.Deck
		entries []byte
	)
	if err := row.Scan(&d.ID, &d.Name, &entries, &d.SourceURL, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return models.Deck{}, err
	}
	if err := json.Unmarshal(entries, &d.Entries); err != nil {
		return models.Deck{}, fmt.Errorf("decode entries of deck %s: %w", d.ID, err)
	}
	return d, nil
}

func (r *DeckRepo) FindByID(ctx context.Context, id uuid.UUID) (models.Deck, error) {
	q := `SELECT ` + deckColumns + ` FROM decks WHERE id = $1`
	d, err := scanDeck(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Deck{}, fmt.Errorf("deck %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Deck{}, fmt.Errorf("select deck %s: %w", id, err)
	}
	return d, nil
}

func (r *DeckRepo) FindAll(ctx context.Context) ([]models.Deck, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+deckColumns+` FROM decks ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("select decks: %w", err)
	}
	defer rows.Close()

	out := []models.Deck{}
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DeckRepo) Save(ctx context.Context, d models.Deck) error {
	entries, err := json.Marshal(d.Entries)
	if err != nil {
		return fmt.Errorf("encode entries of deck %s: %w", d.ID, err)
	}
	q := `
		INSERT INTO decks (id, name, entries, source_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, entries = EXCLUDED.entries, source_url = EXCLUDED.source_url,
		    updated_at = EXCLUDED.updated_at
	`
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, d.ID, d.Name, entries, d.SourceURL, d.CreatedAt, d.UpdatedAt)
		return err
	})
}

func (r *DeckRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM decks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete deck %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deck %s: %w", id, models.ErrNotFound)
	}
	return nil
}
