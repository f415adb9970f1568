package locationsvc

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

	require.NoError(t, store.UpsertProvince(ctx, &Province{Code: 1, Name: "Hanoi"}))
	require.NoError(t, store.UpsertProvince(ctx, &Province{Code: 2, Name: "Da Nang"}))
	require.NoError(t, store.UpsertDistrict(ctx, &District{Code: 11, ProvinceCode: 1, Name: "Ba Dinh"}))
	require.NoError(t, store.UpsertDistrict(ctx, &District{Code: 21, ProvinceCode: 2, Name: "Hai Chau"}))
	require.NoError(t, store.UpsertWard(ctx, &Ward{Code: 111, DistrictCode: 11, Name: "Truc Bach"}))
	require.NoError(t, store.UpsertWard(ctx, &Ward{Code: 211, DistrictCode: 21, Name: "Thach Thang"}))

	return store
}

func TestResolve(t *testing.T) {
	svc := NewService(seededStore(t), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name                       string
		province, district, ward   int64
		reason                     string
		wantProvince, wantWardText string
	}{
		{
			name: "valid chain", province: 1, district: 11, ward: 111,
			wantProvince: "Hanoi", wantWardText: "Truc Bach",
		},
		{
			name: "unknown province", province: 9, district: 11, ward: 111,
			reason: "province 9 does not exist",
		},
		{
			name: "unknown district", province: 1, district: 99, ward: 111,
			reason: "district 99 does not exist",
		},
		{
			name: "district in other province", province: 1, district: 21, ward: 211,
			reason: "district 21 is not part of province 1",
		},
		{
			name: "unknown ward", province: 1, district: 11, ward: 999,
			reason: "ward 999 does not exist",
		},
		{
			name: "ward in other district", province: 1, district: 11, ward: 211,
			reason: "ward 211 is not part of district 11",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resolved, reason, err := svc.Resolve(ctx, tc.province, tc.district, tc.ward)
			require.NoError(t, err)
			require.Equal(t, tc.reason, reason)
			if tc.reason == "" {
				require.Equal(t, tc.wantProvince, resolved.ProvinceText)
				require.Equal(t, tc.wantWardText, resolved.WardText)
			}
		})
	}
}

func TestHandlePostCreatedPublishesValidWithDisplayText(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(seededStore(t), pub, nil)

	evt := events.NewPostCreated("post-1", "user-1", "plan-1", "ad", []int64{1}, 1, 11, 111)
	require.NoError(t, svc.HandlePostCreated(context.Background(), evt))

	require.Len(t, pub.events, 1)
	valid, ok := pub.events[0].(*events.LocationValid)
	require.True(t, ok, "expected LocationValid, got %T", pub.events[0])
	require.Equal(t, "post-1", valid.PostID)
	require.Equal(t, "Hanoi", valid.ProvinceText)
	require.Equal(t, "Ba Dinh", valid.DistrictText)
	require.Equal(t, "Truc Bach", valid.WardText)
}

func TestHandlePostCreatedPublishesInvalid(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(seededStore(t), pub, nil)

	evt := events.NewPostCreated("post-2", "user-1", "plan-1", "ad", []int64{1}, 2, 11, 111)
	require.NoError(t, svc.HandlePostCreated(context.Background(), evt))

	require.Len(t, pub.events, 1)
	invalid, ok := pub.events[0].(*events.LocationInvalid)
	require.True(t, ok, "expected LocationInvalid, got %T", pub.events[0])
	require.Equal(t, "district 11 is not part of province 2", invalid.Reason)
}
