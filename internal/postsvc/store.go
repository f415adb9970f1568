package postsvc

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a Post id resolves to nothing. Saga handlers
// treat it as a benign miss, not a failure.
var ErrNotFound = errors.New("postsvc: post not found")

// Store is the durable home of the Post aggregate. The Set* methods are
// field-scoped so concurrent handlers touching different validation concerns
// cannot lose each other's writes.
type Store interface {
	FindByID(ctx context.Context, id string) (*Post, error)
	Insert(ctx context.Context, post *Post) error
	SetCategoryResult(ctx context.Context, id string, valid bool, message string) error
	SetLocationResult(ctx context.Context, id string, valid bool, message, provinceText, districtText, wardText string) error
	SetPlanResult(ctx context.Context, id string, valid bool, message string) error
	SetStatus(ctx context.Context, id string, status Status) error
}

// MemoryStore is a mutex-guarded in-memory Store used by tests and the
// single-process example.
type MemoryStore struct {
	mu    sync.RWMutex
	posts map[string]*Post
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{posts: make(map[string]*Post)}
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *post
	clone.CategoryPath = append([]int64(nil), post.CategoryPath...)
	return &clone, nil
}

func (s *MemoryStore) Insert(_ context.Context, post *Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *post
	clone.CategoryPath = append([]int64(nil), post.CategoryPath...)
	s.posts[post.ID] = &clone
	return nil
}

func (s *MemoryStore) SetCategoryResult(_ context.Context, id string, valid bool, message string) error {
	return s.update(id, func(p *Post) {
		p.IsCategoryValid = valid
		p.CategoryValidationMessage = message
	})
}

func (s *MemoryStore) SetLocationResult(_ context.Context, id string, valid bool, message, provinceText, districtText, wardText string) error {
	return s.update(id, func(p *Post) {
		p.IsLocationValid = valid
		p.LocationValidationMessage = message
		p.ProvinceText = provinceText
		p.DistrictText = districtText
		p.WardText = wardText
	})
}

func (s *MemoryStore) SetPlanResult(_ context.Context, id string, valid bool, message string) error {
	return s.update(id, func(p *Post) {
		p.IsUserPlanValid = valid
		p.UserPlanValidationMessage = message
	})
}

func (s *MemoryStore) SetStatus(_ context.Context, id string, status Status) error {
	return s.update(id, func(p *Post) {
		p.Status = status
	})
}

func (s *MemoryStore) update(id string, mutate func(*Post)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return ErrNotFound
	}
	mutate(post)
	post.UpdatedAt = time.Now().UTC()
	return nil
}
