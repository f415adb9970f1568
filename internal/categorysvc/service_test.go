package categorysvc

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adverto/adverto/internal/bus"
	"github.com/adverto/adverto/internal/events"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []bus.IntegrationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event bus.IntegrationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	ctx := context.Background()
	for _, c := range []*Category{
		{ID: 1, ParentID: 0, Name: "Electronics"},
		{ID: 5, ParentID: 1, Name: "Phones"},
		{ID: 42, ParentID: 5, Name: "Smartphones"},
		{ID: 2, ParentID: 0, Name: "Vehicles"},
		{ID: 9, ParentID: 2, Name: "Motorbikes"},
	} {
		require.NoError(t, store.Upsert(ctx, c))
	}
	return store
}

func TestValidatePath(t *testing.T) {
	svc := NewService(seededStore(t), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		path   []int64
		reason string
	}{
		{name: "valid three-level chain", path: []int64{1, 5, 42}},
		{name: "valid single root", path: []int64{2}},
		{name: "empty path", path: nil, reason: "category path is empty"},
		{name: "unknown id", path: []int64{1, 77}, reason: "category 77 does not exist"},
		{name: "first element not a root", path: []int64{5, 42}, reason: "category 5 is not a root category"},
		{name: "broken link", path: []int64{1, 9}, reason: "category 9 is not a child of 1"},
		{name: "skipped level", path: []int64{1, 42}, reason: "category 42 is not a child of 1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reason, err := svc.ValidatePath(ctx, tc.path)
			require.NoError(t, err)
			require.Equal(t, tc.reason, reason)
		})
	}
}

func TestHandlePostCreatedPublishesValid(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(seededStore(t), pub, nil)

	evt := events.NewPostCreated("post-1", "user-1", "plan-1", "ad", []int64{1, 5, 42}, 1, 11, 111)
	require.NoError(t, svc.HandlePostCreated(context.Background(), evt))

	require.Len(t, pub.events, 1)
	valid, ok := pub.events[0].(*events.CategoryPathValid)
	require.True(t, ok, "expected CategoryPathValid, got %T", pub.events[0])
	require.Equal(t, "post-1", valid.PostID)
	require.NotEmpty(t, valid.EventID())
}

func TestHandlePostCreatedPublishesInvalid(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(seededStore(t), pub, nil)

	evt := events.NewPostCreated("post-2", "user-1", "plan-1", "ad", []int64{5, 42}, 1, 11, 111)
	require.NoError(t, svc.HandlePostCreated(context.Background(), evt))

	require.Len(t, pub.events, 1)
	invalid, ok := pub.events[0].(*events.CategoryPathInvalid)
	require.True(t, ok, "expected CategoryPathInvalid, got %T", pub.events[0])
	require.Equal(t, "post-2", invalid.PostID)
	require.Equal(t, "category 5 is not a root category", invalid.Reason)
}
