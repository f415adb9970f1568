// Package categorysvc owns the category tree and validates that a post's
// category path is a real root-to-leaf chain in it.
package categorysvc

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when a category id resolves to nothing.
var ErrNotFound = errors.New("categorysvc: category not found")

// Category is one node of the tree. Roots have ParentID zero.
type Category struct {
	ID       int64
	ParentID int64
	Name     string
}

// Store is the durable home of the category tree.
type Store interface {
	FindByID(ctx context.Context, id int64) (*Category, error)
	Upsert(ctx context.Context, category *Category) error
}

// MemoryStore is a mutex-guarded in-memory Store used by tests and the
// single-process example.
type MemoryStore struct {
	mu         sync.RWMutex
	categories map[int64]*Category
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{categories: make(map[int64]*Category)}
}

func (s *MemoryStore) FindByID(_ context.Context, id int64) (*Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *category
	return &clone, nil
}

func (s *MemoryStore) Upsert(_ context.Context, category *Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *category
	s.categories[category.ID] = &clone
	return nil
}
