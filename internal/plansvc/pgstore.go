package plansvc

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema holds the plan tables. plan_rollbacks is the dedup ledger for
// compensation: one row per (post, plan) pair whose quota has been returned.
const Schema = `
CREATE TABLE IF NOT EXISTS user_plans (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	start_date       TIMESTAMPTZ NOT NULL,
	end_date         TIMESTAMPTZ NOT NULL,
	remaining_posts  INT NOT NULL,
	remaining_pushes INT NOT NULL,
	is_active        BOOLEAN NOT NULL
);
CREATE TABLE IF NOT EXISTS plan_rollbacks (
	post_id      TEXT NOT NULL,
	user_plan_id TEXT NOT NULL,
	rolled_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (post_id, user_plan_id)
)`

// PGStore is the PostgreSQL-backed Store. The counter operations run as
// single guarded UPDATE statements so concurrent consumers cannot drive the
// quota negative or lose increments.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// EnsureSchema creates the plan tables when they do not exist.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

func (s *PGStore) FindByID(ctx context.Context, id string) (*UserPlan, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, start_date, end_date, remaining_posts, remaining_pushes, is_active
		FROM user_plans WHERE id = $1`, id)

	var p UserPlan
	err := row.Scan(&p.ID, &p.UserID, &p.StartDate, &p.EndDate, &p.RemainingPosts, &p.RemainingPushes, &p.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PGStore) Upsert(ctx context.Context, plan *UserPlan) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_plans (id, user_id, start_date, end_date, remaining_posts, remaining_pushes, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			remaining_posts = EXCLUDED.remaining_posts,
			remaining_pushes = EXCLUDED.remaining_pushes,
			is_active = EXCLUDED.is_active`,
		plan.ID, plan.UserID, plan.StartDate, plan.EndDate, plan.RemainingPosts, plan.RemainingPushes, plan.IsActive,
	)
	return err
}

func (s *PGStore) ConsumePost(ctx context.Context, id string) (int, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE user_plans
		SET remaining_posts = remaining_posts - 1
		WHERE id = $1 AND remaining_posts > 0
		RETURNING remaining_posts`, id)

	var remaining int
	err := row.Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the plan is missing or the quota is spent; look once more
		// to tell the two apart.
		if _, findErr := s.FindByID(ctx, id); findErr != nil {
			return 0, findErr
		}
		return 0, ErrQuotaExhausted
	}
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (s *PGStore) RestorePost(ctx context.Context, id string) (int, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE user_plans
		SET remaining_posts = remaining_posts + 1
		WHERE id = $1
		RETURNING remaining_posts`, id)

	var remaining int
	err := row.Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (s *PGStore) MarkRollback(ctx context.Context, postID, planID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO plan_rollbacks (post_id, user_plan_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, user_plan_id) DO NOTHING`, postID, planID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
