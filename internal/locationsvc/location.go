// Package locationsvc owns the administrative location tree and validates
// that a post's province/district/ward codes form a containment chain.
package locationsvc

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when a location code resolves to nothing.
var ErrNotFound = errors.New("locationsvc: location not found")

type Province struct {
	Code int64
	Name string
}

type District struct {
	Code         int64
	ProvinceCode int64
	Name         string
}

type Ward struct {
	Code         int64
	DistrictCode int64
	Name         string
}

// Store is the durable home of the location tree.
type Store interface {
	FindProvince(ctx context.Context, code int64) (*Province, error)
	FindDistrict(ctx context.Context, code int64) (*District, error)
	FindWard(ctx context.Context, code int64) (*Ward, error)
	UpsertProvince(ctx context.Context, province *Province) error
	UpsertDistrict(ctx context.Context, district *District) error
	UpsertWard(ctx context.Context, ward *Ward) error
}

// MemoryStore is a mutex-guarded in-memory Store used by tests and the
// single-process example.
type MemoryStore struct {
	mu        sync.RWMutex
	provinces map[int64]*Province
	districts map[int64]*District
	wards     map[int64]*Ward
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		provinces: make(map[int64]*Province),
		districts: make(map[int64]*District),
		wards:     make(map[int64]*Ward),
	}
}

func (s *MemoryStore) FindProvince(_ context.Context, code int64) (*Province, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	province, ok := s.provinces[code]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *province
	return &clone, nil
}

func (s *MemoryStore) FindDistrict(_ context.Context, code int64) (*District, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	district, ok := s.districts[code]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *district
	return &clone, nil
}

func (s *MemoryStore) FindWard(_ context.Context, code int64) (*Ward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ward, ok := s.wards[code]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *ward
	return &clone, nil
}

func (s *MemoryStore) UpsertProvince(_ context.Context, province *Province) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *province
	s.provinces[province.Code] = &clone
	return nil
}

func (s *MemoryStore) UpsertDistrict(_ context.Context, district *District) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *district
	s.districts[district.Code] = &clone
	return nil
}

func (s *MemoryStore) UpsertWard(_ context.Context, ward *Ward) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *ward
	s.wards[ward.Code] = &clone
	return nil
}
