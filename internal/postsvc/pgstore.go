package postsvc

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the posts table DDL. Validation flags live in their own columns
// so the field-scoped updates below touch nothing else.
const Schema = `
CREATE TABLE IF NOT EXISTS posts (
	id                          TEXT PRIMARY KEY,
	user_id                     TEXT NOT NULL,
	user_plan_id                TEXT NOT NULL,
	title                       TEXT NOT NULL,
	description                 TEXT NOT NULL DEFAULT '',
	category_path               BIGINT[] NOT NULL,
	province_code               BIGINT NOT NULL,
	district_code               BIGINT NOT NULL,
	ward_code                   BIGINT NOT NULL,
	province_text               TEXT NOT NULL DEFAULT '',
	district_text               TEXT NOT NULL DEFAULT '',
	ward_text                   TEXT NOT NULL DEFAULT '',
	is_category_valid           BOOLEAN NOT NULL DEFAULT FALSE,
	is_location_valid           BOOLEAN NOT NULL DEFAULT FALSE,
	is_user_plan_valid          BOOLEAN NOT NULL DEFAULT FALSE,
	category_validation_message TEXT NOT NULL DEFAULT '',
	location_validation_message TEXT NOT NULL DEFAULT '',
	user_plan_validation_message TEXT NOT NULL DEFAULT '',
	status                      TEXT NOT NULL,
	created_at                  TIMESTAMPTZ NOT NULL,
	updated_at                  TIMESTAMPTZ NOT NULL
)`

// PGStore is the PostgreSQL-backed Store.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// EnsureSchema creates the posts table when it does not exist.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

func (s *PGStore) FindByID(ctx context.Context, id string) (*Post, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, user_plan_id, title, description, category_path,
		       province_code, district_code, ward_code,
		       province_text, district_text, ward_text,
		       is_category_valid, is_location_valid, is_user_plan_valid,
		       category_validation_message, location_validation_message, user_plan_validation_message,
		       status, created_at, updated_at
		FROM posts WHERE id = $1`, id)

	var p Post
	err := row.Scan(
		&p.ID, &p.UserID, &p.UserPlanID, &p.Title, &p.Description, &p.CategoryPath,
		&p.ProvinceCode, &p.DistrictCode, &p.WardCode,
		&p.ProvinceText, &p.DistrictText, &p.WardText,
		&p.IsCategoryValid, &p.IsLocationValid, &p.IsUserPlanValid,
		&p.CategoryValidationMessage, &p.LocationValidationMessage, &p.UserPlanValidationMessage,
		&p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PGStore) Insert(ctx context.Context, post *Post) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO posts (
			id, user_id, user_plan_id, title, description, category_path,
			province_code, district_code, ward_code, status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		post.ID, post.UserID, post.UserPlanID, post.Title, post.Description, post.CategoryPath,
		post.ProvinceCode, post.DistrictCode, post.WardCode, post.Status, post.CreatedAt, post.UpdatedAt,
	)
	return err
}

func (s *PGStore) SetCategoryResult(ctx context.Context, id string, valid bool, message string) error {
	return s.scopedUpdate(ctx, `
		UPDATE posts
		SET is_category_valid = $2, category_validation_message = $3, updated_at = $4
		WHERE id = $1`, id, valid, message, time.Now().UTC())
}

func (s *PGStore) SetLocationResult(ctx context.Context, id string, valid bool, message, provinceText, districtText, wardText string) error {
	return s.scopedUpdate(ctx, `
		UPDATE posts
		SET is_location_valid = $2, location_validation_message = $3,
		    province_text = $4, district_text = $5, ward_text = $6, updated_at = $7
		WHERE id = $1`, id, valid, message, provinceText, districtText, wardText, time.Now().UTC())
}

func (s *PGStore) SetPlanResult(ctx context.Context, id string, valid bool, message string) error {
	return s.scopedUpdate(ctx, `
		UPDATE posts
		SET is_user_plan_valid = $2, user_plan_validation_message = $3, updated_at = $4
		WHERE id = $1`, id, valid, message, time.Now().UTC())
}

func (s *PGStore) SetStatus(ctx context.Context, id string, status Status) error {
	return s.scopedUpdate(ctx, `
		UPDATE posts SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC())
}

func (s *PGStore) scopedUpdate(ctx context.Context, sql string, args ...any) error {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
