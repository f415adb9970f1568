package categorysvc

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the categories table DDL. Roots carry parent_id zero.
const Schema = `
CREATE TABLE IF NOT EXISTS categories (
	id        BIGINT PRIMARY KEY,
	parent_id BIGINT NOT NULL DEFAULT 0,
	name      TEXT NOT NULL
)`

// PGStore is the PostgreSQL-backed Store.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// EnsureSchema creates the categories table when it does not exist.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

func (s *PGStore) FindByID(ctx context.Context, id int64) (*Category, error) {
	row := s.pool.QueryRow(ctx, `SELECT id, parent_id, name FROM categories WHERE id = $1`, id)

	var c Category
	err := row.Scan(&c.ID, &c.ParentID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PGStore) Upsert(ctx context.Context, category *Category) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO categories (id, parent_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET parent_id = EXCLUDED.parent_id, name = EXCLUDED.name`,
		category.ID, category.ParentID, category.Name,
	)
	return err
}
