package locationsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/adverto/adverto/internal/bus"
	loggingpkg "github.com/adverto/adverto/internal/bus/logging"
	"github.com/adverto/adverto/internal/events"
)

// Service validates location chains and publishes the result events.
type Service struct {
	store     Store
	publisher bus.Publisher
	logger    loggingpkg.ServiceLogger
}

func NewService(store Store, publisher bus.Publisher, logger loggingpkg.ServiceLogger) *Service {
	if publisher == nil {
		publisher = bus.NoopPublisher{}
	}
	if logger == nil {
		logger = loggingpkg.Nop()
	}
	return &Service{store: store, publisher: publisher, logger: logger}
}

// RegisterHandlers attaches the creation-event handler to the dispatch table.
func (s *Service) RegisterHandlers(table *bus.DispatchTable) error {
	return bus.RegisterHandler(table, s.HandlePostCreated)
}

// ResolvedLocation is the denormalized display text for a valid chain.
type ResolvedLocation struct {
	ProvinceText string
	DistrictText string
	WardText     string
}

// HandlePostCreated checks the province/district/ward containment chain and
// publishes LocationValid with display text, or LocationInvalid.
func (s *Service) HandlePostCreated(ctx context.Context, evt *events.PostCreated) error {
	resolved, reason, err := s.Resolve(ctx, evt.ProvinceCode, evt.DistrictCode, evt.WardCode)
	if err != nil {
		return fmt.Errorf("locationsvc: resolve location for post %s: %w", evt.PostID, err)
	}

	var result bus.IntegrationEvent
	if reason == "" {
		result = events.NewLocationValid(evt.PostID, resolved.ProvinceText, resolved.DistrictText, resolved.WardText)
	} else {
		result = events.NewLocationInvalid(evt.PostID, reason)
		s.logger.Info("Location invalid", loggingpkg.LogFields{
			"post_id": evt.PostID,
			"reason":  reason,
		})
	}

	if err := s.publisher.Publish(ctx, result); err != nil {
		return fmt.Errorf("locationsvc: publish result for post %s: %w", evt.PostID, err)
	}
	return nil
}

// Resolve verifies the containment chain province ⊃ district ⊃ ward and
// returns the display text for each level. An empty reason means valid.
func (s *Service) Resolve(ctx context.Context, provinceCode, districtCode, wardCode int64) (ResolvedLocation, string, error) {
	var resolved ResolvedLocation

	province, err := s.store.FindProvince(ctx, provinceCode)
	if errors.Is(err, ErrNotFound) {
		return resolved, fmt.Sprintf("province %d does not exist", provinceCode), nil
	}
	if err != nil {
		return resolved, "", err
	}

	district, err := s.store.FindDistrict(ctx, districtCode)
	if errors.Is(err, ErrNotFound) {
		return resolved, fmt.Sprintf("district %d does not exist", districtCode), nil
	}
	if err != nil {
		return resolved, "", err
	}
	if district.ProvinceCode != province.Code {
		return resolved, fmt.Sprintf("district %d is not part of province %d", districtCode, provinceCode), nil
	}

	ward, err := s.store.FindWard(ctx, wardCode)
	if errors.Is(err, ErrNotFound) {
		return resolved, fmt.Sprintf("ward %d does not exist", wardCode), nil
	}
	if err != nil {
		return resolved, "", err
	}
	if ward.DistrictCode != district.Code {
		return resolved, fmt.Sprintf("ward %d is not part of district %d", wardCode, districtCode), nil
	}

	resolved.ProvinceText = province.Name
	resolved.DistrictText = district.Name
	resolved.WardText = ward.Name
	return resolved, "", nil
}
