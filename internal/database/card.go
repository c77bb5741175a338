package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/tabletop/internal/models"
)

const cardColumns = `code, name, text, image_ref, created_at, updated_at`

// CardRepo stores cards in the cards table.
type CardRepo struct {
	pool *pgxpool.Pool
}

func NewCardRepo(pool *pgxpool.Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

func scanCard(row pgx.Row) (models.Card, error) {
	var c models.Card
	err := row.Scan(&c.Code, &c.Name, &c.Text, &c.ImageRef, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func collectCards(rows pgx.Rows) ([]models.Card, error) {
	defer rows.Close()
	out := []models.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CardRepo) FindByCode(ctx context.Context, code string) (models.Card, error) {
	q := `SELECT ` + cardColumns + ` FROM cards WHERE code = $1`
	c, err := scanCard(r.pool.QueryRow(ctx, q, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Card{}, fmt.Errorf("card %s: %w", code, models.ErrNotFound)
	}
	if err != nil {
		return models.Card{}, fmt.Errorf("select card %s: %w", code, err)
	}
	return c, nil
}

func (r *CardRepo) FindByCodes(ctx context.Context, codes []string) ([]models.Card, error) {
	q := `SELECT ` + cardColumns + ` FROM cards WHERE code = ANY($1) ORDER BY code`
	rows, err := r.pool.Query(ctx, q, codes)
	if err != nil {
		return nil, fmt.Errorf("select cards: %w", err)
	}
	return collectCards(rows)
}

func (r *CardRepo) ExistingCodes(ctx context.Context, codes []string) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx, `SELECT code FROM cards WHERE code = ANY($1)`, codes)
	if err != nil {
		return nil, fmt.Errorf("select existing codes: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect existing codes: %w", err)
	}
	out := make(map[string]bool, len(found))
	for _, c := range found {
		out[c] = true
	}
	return out, nil
}

func (r *CardRepo) FindAll(ctx context.Context, limit, offset int) ([]models.Card, error) {
	q := `SELECT ` + cardColumns + ` FROM cards ORDER BY code LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("select cards: %w", err)
	}
	return collectCards(rows)
}

// SearchByName matches name as a literal, case-insensitive substring. strpos keeps
// %, _ and \ in the query from acting as LIKE wildcards.
func (r *CardRepo) SearchByName(ctx context.Context, name string) ([]models.Card, error) {
	q := `SELECT ` + cardColumns + ` FROM cards WHERE strpos(lower(name), lower($1)) > 0 ORDER BY code`
	rows, err := r.pool.Query(ctx, q, name)
	if err != nil {
		return nil, fmt.Errorf("search cards: %w", err)
	}
	return collectCards(rows)
}

func (r *CardRepo) Save(ctx context.Context, c models.Card) error {
	q := `
		INSERT INTO cards (code, name, text, image_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name, text = EXCLUDED.text, image_ref = EXCLUDED.image_ref,
		    updated_at = EXCLUDED.updated_at
	`
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, c.Code, c.Name, c.Text, c.ImageRef, c.CreatedAt, c.UpdatedAt)
		return err
	})
}

func (r *CardRepo) Delete(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cards WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete card %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card %s: %w", code, models.ErrNotFound)
	}
	return nil
}
