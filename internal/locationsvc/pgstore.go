package locationsvc

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema holds the DDL for the three-level administrative tree.
const Schema = `
CREATE TABLE IF NOT EXISTS provinces (
	code BIGINT PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS districts (
	code          BIGINT PRIMARY KEY,
	province_code BIGINT NOT NULL,
	name          TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS wards (
	code          BIGINT PRIMARY KEY,
	district_code BIGINT NOT NULL,
	name          TEXT NOT NULL
)`

// PGStore is the PostgreSQL-backed Store.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// EnsureSchema creates the location tables when they do not exist.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

func (s *PGStore) FindProvince(ctx context.Context, code int64) (*Province, error) {
	row := s.pool.QueryRow(ctx, `SELECT code, name FROM provinces WHERE code = $1`, code)

	var p Province
	err := row.Scan(&p.Code, &p.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PGStore) FindDistrict(ctx context.Context, code int64) (*District, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT code, province_code, name FROM districts WHERE code = $1`, code)

	var d District
	err := row.Scan(&d.Code, &d.ProvinceCode, &d.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *PGStore) FindWard(ctx context.Context, code int64) (*Ward, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT code, district_code, name FROM wards WHERE code = $1`, code)

	var w Ward
	err := row.Scan(&w.Code, &w.DistrictCode, &w.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *PGStore) UpsertProvince(ctx context.Context, province *Province) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO provinces (code, name) VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name`,
		province.Code, province.Name,
	)
	return err
}

func (s *PGStore) UpsertDistrict(ctx context.Context, district *District) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO districts (code, province_code, name) VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET province_code = EXCLUDED.province_code, name = EXCLUDED.name`,
		district.Code, district.ProvinceCode, district.Name,
	)
	return err
}

func (s *PGStore) UpsertWard(ctx context.Context, ward *Ward) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO wards (code, district_code, name) VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET district_code = EXCLUDED.district_code, name = EXCLUDED.name`,
		ward.Code, ward.DistrictCode, ward.Name,
	)
	return err
}
