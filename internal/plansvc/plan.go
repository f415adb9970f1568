// Package plansvc owns the UserPlan aggregate: subscription window, post and
// push quota counters, and the compensation path that returns consumed quota
// when a post is rejected after the fact.
package plansvc

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when a plan id resolves to nothing.
	ErrNotFound = errors.New("plansvc: user plan not found")

	// ErrQuotaExhausted is returned by ConsumePost when no post quota
	// remains. The decrement never goes below zero.
	ErrQuotaExhausted = errors.New("plansvc: post quota exhausted")
)

// UserPlan is the aggregate owned by the plan service.
type UserPlan struct {
	ID     string
	UserID string

	StartDate time.Time
	EndDate   time.Time

	RemainingPosts  int
	RemainingPushes int

	IsActive bool
}

// Covers reports whether the plan is usable at the given instant.
func (p *UserPlan) Covers(now time.Time) bool {
	return p.IsActive && !now.Before(p.StartDate) && !now.After(p.EndDate)
}

// Store is the durable home of UserPlans. ConsumePost and RestorePost are
// atomic counter operations; MarkRollback claims the per-(post, plan) dedup
// marker that keeps compensation from applying twice.
type Store interface {
	FindByID(ctx context.Context, id string) (*UserPlan, error)
	Upsert(ctx context.Context, plan *UserPlan) error

	// ConsumePost decrements the remaining-post counter and returns the new
	// value. Fails with ErrQuotaExhausted when the counter is zero.
	ConsumePost(ctx context.Context, id string) (remaining int, err error)

	// RestorePost increments the remaining-post counter and returns the new
	// value.
	RestorePost(ctx context.Context, id string) (remaining int, err error)

	// MarkRollback records that quota for the (post, plan) pair has been
	// returned. It reports false when the marker already existed.
	MarkRollback(ctx context.Context, postID, planID string) (claimed bool, err error)
}

// MemoryStore is a mutex-guarded in-memory Store used by tests and the
// single-process example.
type MemoryStore struct {
	mu        sync.Mutex
	plans     map[string]*UserPlan
	rollbacks map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans:     make(map[string]*UserPlan),
		rollbacks: make(map[string]struct{}),
	}
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*UserPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok := s.plans[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *plan
	return &clone, nil
}

func (s *MemoryStore) Upsert(_ context.Context, plan *UserPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *plan
	s.plans[plan.ID] = &clone
	return nil
}

func (s *MemoryStore) ConsumePost(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok := s.plans[id]
	if !ok {
		return 0, ErrNotFound
	}
	if plan.RemainingPosts <= 0 {
		return 0, ErrQuotaExhausted
	}
	plan.RemainingPosts--
	return plan.RemainingPosts, nil
}

func (s *MemoryStore) RestorePost(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok := s.plans[id]
	if !ok {
		return 0, ErrNotFound
	}
	plan.RemainingPosts++
	return plan.RemainingPosts, nil
}

func (s *MemoryStore) MarkRollback(_ context.Context, postID, planID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := postID + "/" + planID
	if _, ok := s.rollbacks[key]; ok {
		return false, nil
	}
	s.rollbacks[key] = struct{}{}
	return true, nil
}
