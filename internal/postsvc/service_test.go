package postsvc

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adverto/adverto/internal/bus"
	"github.com/adverto/adverto/internal/events"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []bus.IntegrationEvent
	fail   error
}

func (p *recordingPublisher) Publish(_ context.Context, event bus.IntegrationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) rollbacks() []*events.RollbackPostUsage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*events.RollbackPostUsage
	for _, evt := range p.events {
		if rb, ok := evt.(*events.RollbackPostUsage); ok {
			out = append(out, rb)
		}
	}
	return out
}

func newTestService(t *testing.T) (*Service, *MemoryStore, *recordingPublisher) {
	t.Helper()
	store := NewMemoryStore()
	pub := &recordingPublisher{}
	return NewService(store, pub, nil), store, pub
}

func createPost(t *testing.T, svc *Service) *Post {
	t.Helper()
	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID:       "user-1",
		UserPlanID:   "plan-1",
		Title:        "iPhone 13 Pro",
		CategoryPath: []int64{1, 5, 42},
		ProvinceCode: 1,
		DistrictCode: 11,
		WardCode:     111,
	})
	require.NoError(t, err)
	return post
}

func TestCreatePost(t *testing.T) {
	svc, store, pub := newTestService(t)

	post := createPost(t, svc)
	require.Equal(t, StatusPendingValidation, post.Status)
	require.NotEmpty(t, post.ID)

	stored, err := store.FindByID(context.Background(), post.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPendingValidation, stored.Status)

	require.Len(t, pub.events, 1)
	created, ok := pub.events[0].(*events.PostCreated)
	require.True(t, ok, "expected PostCreated, got %T", pub.events[0])
	require.Equal(t, post.ID, created.PostID)
	require.Equal(t, []int64{1, 5, 42}, created.CategoryPath)
}

func TestCreatePostValidation(t *testing.T) {
	svc, _, pub := newTestService(t)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: "user-1"})
	require.Error(t, err)
	require.Empty(t, pub.events, "nothing is published for a rejected create")
}

func TestCreatePostSurvivesPublishFailure(t *testing.T) {
	svc, store, pub := newTestService(t)
	pub.fail = errors.New("broker down")

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID:       "user-1",
		UserPlanID:   "plan-1",
		Title:        "ad",
		CategoryPath: []int64{1},
	})
	require.NoError(t, err, "the durable write decides the outcome")

	stored, err := store.FindByID(context.Background(), post.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPendingValidation, stored.Status)
}

func TestAggregationAllValidInAnyOrder(t *testing.T) {
	orders := [][]func(*Service, context.Context, string) error{
		{applyCategoryValid, applyLocationValid, applyPlanValid},
		{applyPlanValid, applyCategoryValid, applyLocationValid},
		{applyLocationValid, applyPlanValid, applyCategoryValid},
	}

	for _, order := range orders {
		svc, store, _ := newTestService(t)
		post := createPost(t, svc)
		ctx := context.Background()

		for _, apply := range order {
			require.NoError(t, apply(svc, ctx, post.ID))
		}

		final, err := store.FindByID(ctx, post.ID)
		require.NoError(t, err)
		require.Equal(t, StatusValidated, final.Status)
		require.True(t, final.IsFullyValidated())
		require.Equal(t, "Hanoi", final.ProvinceText)
	}
}

func applyCategoryValid(svc *Service, ctx context.Context, postID string) error {
	return svc.HandleCategoryPathValid(ctx, events.NewCategoryPathValid(postID))
}

func applyLocationValid(svc *Service, ctx context.Context, postID string) error {
	return svc.HandleLocationValid(ctx, events.NewLocationValid(postID, "Hanoi", "Ba Dinh", "Truc Bach"))
}

func applyPlanValid(svc *Service, ctx context.Context, postID string) error {
	return svc.HandleUserPlanValid(ctx, events.NewUserPlanValid(postID, "plan-1", 2))
}

func TestAggregationIsIdempotent(t *testing.T) {
	svc, store, _ := newTestService(t)
	post := createPost(t, svc)
	ctx := context.Background()

	// At-least-once delivery: every result may arrive more than once.
	for i := 0; i < 2; i++ {
		require.NoError(t, applyCategoryValid(svc, ctx, post.ID))
		require.NoError(t, applyLocationValid(svc, ctx, post.ID))
		require.NoError(t, applyPlanValid(svc, ctx, post.ID))
	}

	final, err := store.FindByID(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, StatusValidated, final.Status)
}

func TestFirstNegativeResultRejects(t *testing.T) {
	svc, store, pub := newTestService(t)
	post := createPost(t, svc)
	ctx := context.Background()

	invalid := events.NewCategoryPathInvalid(post.ID, "category 5 is not a root category")
	require.NoError(t, svc.HandleCategoryPathInvalid(ctx, invalid))

	final, err := store.FindByID(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, final.Status)
	require.Equal(t, "category 5 is not a root category", final.CategoryValidationMessage)

	// No quota was consumed yet, so nothing to compensate.
	require.Empty(t, pub.rollbacks())

	// Later positive results do not resurrect a rejected post.
	require.NoError(t, applyLocationValid(svc, ctx, post.ID))
	final, err = store.FindByID(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, final.Status)
}

func TestRejectionAfterQuotaConsumedPublishesRollback(t *testing.T) {
	svc, store, pub := newTestService(t)
	post := createPost(t, svc)
	ctx := context.Background()

	// Plan validated first: quota is consumed on the plan side.
	require.NoError(t, applyPlanValid(svc, ctx, post.ID))

	// Then the location check fails.
	require.NoError(t, svc.HandleLocationInvalid(ctx, events.NewLocationInvalid(post.ID, "ward 999 does not exist")))

	final, err := store.FindByID(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, final.Status)

	rollbacks := pub.rollbacks()
	require.Len(t, rollbacks, 1)
	require.Equal(t, post.ID, rollbacks[0].PostID)
	require.Equal(t, "plan-1", rollbacks[0].UserPlanID)
}

func TestPlanValidAfterRejectionPublishesRollback(t *testing.T) {
	svc, store, pub := newTestService(t)
	post := createPost(t, svc)
	ctx := context.Background()

	// The category failure lands first and rejects the post.
	require.NoError(t, svc.HandleCategoryPathInvalid(ctx, events.NewCategoryPathInvalid(post.ID, "category 77 does not exist")))

	// The plan result arrives late; its consumed quota must be returned.
	require.NoError(t, applyPlanValid(svc, ctx, post.ID))

	rollbacks := pub.rollbacks()
	require.Len(t, rollbacks, 1)
	require.Equal(t, post.ID, rollbacks[0].PostID)

	final, err := store.FindByID(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, final.Status)
}

func TestRollbackPublishFailureKeepsPostPending(t *testing.T) {
	svc, store, pub := newTestService(t)
	post := createPost(t, svc)
	ctx := context.Background()

	require.NoError(t, applyPlanValid(svc, ctx, post.ID))

	// The rollback publish fails; the handler must fail too so the message
	// is redelivered or dead-lettered instead of silently leaking quota.
	pub.fail = errors.New("broker down")
	err := svc.HandleLocationInvalid(ctx, events.NewLocationInvalid(post.ID, "ward 999 does not exist"))
	require.Error(t, err)

	final, findErr := store.FindByID(ctx, post.ID)
	require.NoError(t, findErr)
	require.NotEqual(t, StatusRejected, final.Status, "rejection is recorded only after the rollback is on the wire")
}

func TestResultForUnknownPostIsAcknowledged(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.HandleCategoryPathValid(context.Background(), events.NewCategoryPathValid("no-such-post"))
	require.NoError(t, err, "results for missing posts are logged, not retried")
}

func TestNegativeResultIsTerminalOnce(t *testing.T) {
	svc, store, pub := newTestService(t)
	post := createPost(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.HandleLocationInvalid(ctx, events.NewLocationInvalid(post.ID, "ward 999 does not exist")))
	// A second, different failure changes nothing and compensates nothing.
	require.NoError(t, svc.HandleCategoryPathInvalid(ctx, events.NewCategoryPathInvalid(post.ID, "category 77 does not exist")))

	final, err := store.FindByID(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, final.Status)
	require.Empty(t, pub.rollbacks())
}

// statusGateStore runs a hook right before a status write commits, exposing
// the window between a handler's aggregate read and its status transition.
type statusGateStore struct {
	*MemoryStore
	beforeSetStatus func(status Status)
}

func (s *statusGateStore) SetStatus(ctx context.Context, id string, status Status) error {
	if hook := s.beforeSetStatus; hook != nil {
		s.beforeSetStatus = nil
		hook(status)
	}
	return s.MemoryStore.SetStatus(ctx, id, status)
}

func TestPlanValidDuringRejectionStillCompensates(t *testing.T) {
	store := &statusGateStore{MemoryStore: NewMemoryStore()}
	pub := &recordingPublisher{}
	svc := NewService(store, pub, nil)
	post := createPost(t, svc)
	ctx := context.Background()

	// The plan result lands after the rejecting handler has read the post
	// (quota looked unconsumed, so it skipped the rollback) but before
	// Rejected is committed. The plan handler must compensate off the
	// recorded category failure; the still-pending status proves nothing.
	store.beforeSetStatus = func(status Status) {
		require.Equal(t, StatusRejected, status)
		require.NoError(t, applyPlanValid(svc, ctx, post.ID))
	}

	require.NoError(t, svc.HandleCategoryPathInvalid(ctx, events.NewCategoryPathInvalid(post.ID, "category 42 is not a child of 5")))

	final, err := store.FindByID(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, final.Status)
	require.True(t, final.IsUserPlanValid)

	rollbacks := pub.rollbacks()
	require.Len(t, rollbacks, 1, "consumed quota must be compensated")
	require.Equal(t, post.ID, rollbacks[0].PostID)
	require.Equal(t, "plan-1", rollbacks[0].UserPlanID)
}
