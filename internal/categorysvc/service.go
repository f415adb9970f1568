package categorysvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/adverto/adverto/internal/bus"
	loggingpkg "github.com/adverto/adverto/internal/bus/logging"
	"github.com/adverto/adverto/internal/events"
)

// Service validates category paths and publishes the result events.
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

// HandlePostCreated checks the post's category path against the local tree
// and publishes CategoryPathValid or CategoryPathInvalid.
func (s *Service) HandlePostCreated(ctx context.Context, evt *events.PostCreated) error {
	reason, err := s.ValidatePath(ctx, evt.CategoryPath)
	if err != nil {
		return fmt.Errorf("categorysvc: validate path for post %s: %w", evt.PostID, err)
	}

	var result bus.IntegrationEvent
	if reason == "" {
		result = events.NewCategoryPathValid(evt.PostID)
	} else {
		result = events.NewCategoryPathInvalid(evt.PostID, reason)
		s.logger.Info("Category path invalid", loggingpkg.LogFields{
			"post_id": evt.PostID,
			"reason":  reason,
		})
	}

	if err := s.publisher.Publish(ctx, result); err != nil {
		return fmt.Errorf("categorysvc: publish result for post %s: %w", evt.PostID, err)
	}
	return nil
}

// ValidatePath walks the path and verifies it forms a root-to-leaf chain:
// the first element is a root and every later element is a child of its
// predecessor. An empty reason means the path is valid; a non-empty reason
// describes the break. Store failures are returned as errors, not reasons.
func (s *Service) ValidatePath(ctx context.Context, path []int64) (reason string, err error) {
	if len(path) == 0 {
		return "category path is empty", nil
	}

	var parentID int64
	for depth, id := range path {
		category, err := s.store.FindByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return fmt.Sprintf("category %d does not exist", id), nil
		}
		if err != nil {
			return "", err
		}
		if category.ParentID != parentID {
			if depth == 0 {
				return fmt.Sprintf("category %d is not a root category", id), nil
			}
			return fmt.Sprintf("category %d is not a child of %d", id, parentID), nil
		}
		parentID = id
	}
	return "", nil
}
