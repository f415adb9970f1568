package postsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adverto/adverto/internal/bus"
	loggingpkg "github.com/adverto/adverto/internal/bus/logging"
	"github.com/adverto/adverto/internal/events"
)

// Service exposes the synchronous create operation and the saga handlers
// that aggregate validation results into the Post record.
type Service struct {
	store     Store
	publisher bus.Publisher
	logger    loggingpkg.ServiceLogger
}

// NewService wires the post service. A nil publisher falls back to the noop
// publisher for isolated runs.
func NewService(store Store, publisher bus.Publisher, logger loggingpkg.ServiceLogger) *Service {
	if publisher == nil {
		publisher = bus.NoopPublisher{}
	}
	if logger == nil {
		logger = loggingpkg.Nop()
	}
	return &Service{store: store, publisher: publisher, logger: logger}
}

// CreatePostInput carries the caller-supplied fields of a new listing.
type CreatePostInput struct {
	UserID       string
	UserPlanID   string
	Title        string
	Description  string
	CategoryPath []int64
	ProvinceCode int64
	DistrictCode int64
	WardCode     int64
}

func (in CreatePostInput) validate() error {
	var errs []error
	if in.UserID == "" {
		errs = append(errs, errors.New("user id is required"))
	}
	if in.UserPlanID == "" {
		errs = append(errs, errors.New("user plan id is required"))
	}
	if in.Title == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if len(in.CategoryPath) == 0 {
		errs = append(errs, errors.New("category path is required"))
	}
	return errors.Join(errs...)
}

// CreatePost persists the Post in PendingValidation and publishes the
// creation event that triggers the three validators. The operation completes
// once the durable write succeeds; a failed publish is logged and the
// creation stands, relying on reconciliation rather than failing the caller.
func (s *Service) CreatePost(ctx context.Context, in CreatePostInput) (*Post, error) {
	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("postsvc: invalid create input: %w", err)
	}

	now := time.Now().UTC()
	post := &Post{
		ID:           uuid.NewString(),
		UserID:       in.UserID,
		UserPlanID:   in.UserPlanID,
		Title:        in.Title,
		Description:  in.Description,
		CategoryPath: in.CategoryPath,
		ProvinceCode: in.ProvinceCode,
		DistrictCode: in.DistrictCode,
		WardCode:     in.WardCode,
		Status:       StatusPendingValidation,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Insert(ctx, post); err != nil {
		return nil, fmt.Errorf("postsvc: insert post: %w", err)
	}

	created := events.NewPostCreated(
		post.ID, post.UserID, post.UserPlanID, post.Title,
		post.CategoryPath, post.ProvinceCode, post.DistrictCode, post.WardCode,
	)
	if err := s.publisher.Publish(ctx, created); err != nil {
		s.logger.Error("Failed to publish post created event", err, loggingpkg.LogFields{
			"post_id": post.ID,
		})
	}

	return post, nil
}

// RegisterHandlers attaches the six validation-result handlers to the
// service's dispatch table.
func (s *Service) RegisterHandlers(table *bus.DispatchTable) error {
	if err := bus.RegisterHandler(table, s.HandleCategoryPathValid); err != nil {
		return err
	}
	if err := bus.RegisterHandler(table, s.HandleCategoryPathInvalid); err != nil {
		return err
	}
	if err := bus.RegisterHandler(table, s.HandleLocationValid); err != nil {
		return err
	}
	if err := bus.RegisterHandler(table, s.HandleLocationInvalid); err != nil {
		return err
	}
	if err := bus.RegisterHandler(table, s.HandleUserPlanValid); err != nil {
		return err
	}
	return bus.RegisterHandler(table, s.HandleUserPlanInvalid)
}

func (s *Service) HandleCategoryPathValid(ctx context.Context, evt *events.CategoryPathValid) error {
	return s.applyResult(ctx, evt.PostID, func(ctx context.Context) error {
		return s.store.SetCategoryResult(ctx, evt.PostID, true, "")
	}, true, false)
}

func (s *Service) HandleCategoryPathInvalid(ctx context.Context, evt *events.CategoryPathInvalid) error {
	return s.applyResult(ctx, evt.PostID, func(ctx context.Context) error {
		return s.store.SetCategoryResult(ctx, evt.PostID, false, evt.Reason)
	}, false, false)
}

func (s *Service) HandleLocationValid(ctx context.Context, evt *events.LocationValid) error {
	return s.applyResult(ctx, evt.PostID, func(ctx context.Context) error {
		return s.store.SetLocationResult(ctx, evt.PostID, true, "", evt.ProvinceText, evt.DistrictText, evt.WardText)
	}, true, false)
}

func (s *Service) HandleLocationInvalid(ctx context.Context, evt *events.LocationInvalid) error {
	return s.applyResult(ctx, evt.PostID, func(ctx context.Context) error {
		return s.store.SetLocationResult(ctx, evt.PostID, false, evt.Reason, "", "", "")
	}, false, false)
}

func (s *Service) HandleUserPlanValid(ctx context.Context, evt *events.UserPlanValid) error {
	return s.applyResult(ctx, evt.PostID, func(ctx context.Context) error {
		return s.store.SetPlanResult(ctx, evt.PostID, true, "")
	}, true, true)
}

func (s *Service) HandleUserPlanInvalid(ctx context.Context, evt *events.UserPlanInvalid) error {
	return s.applyResult(ctx, evt.PostID, func(ctx context.Context) error {
		return s.store.SetPlanResult(ctx, evt.PostID, false, evt.Reason)
	}, false, true)
}

// applyResult is the aggregation step shared by all six result handlers:
// set the concern's flag, then re-read and decide the status transition.
// Results arrive in any order and may be duplicated, so the whole step is a
// pure "set flag, check aggregate" with no ordering dependency.
//
// The first negative result drives the Post to the terminal Rejected state.
// Whenever the plan quota has been consumed for a Post that will never
// become valid, a rollback event is published before Rejected is recorded,
// so a failed rollback publish leaves the message visible as a handler
// failure instead of silently leaking quota.
func (s *Service) applyResult(ctx context.Context, postID string, setFlag func(context.Context) error, valid, planConcern bool) error {
	if err := setFlag(ctx); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn("Validation result for unknown post", loggingpkg.LogFields{"post_id": postID})
			return nil
		}
		return fmt.Errorf("postsvc: record validation result: %w", err)
	}

	post, err := s.store.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn("Post disappeared during aggregation", loggingpkg.LogFields{"post_id": postID})
			return nil
		}
		return fmt.Errorf("postsvc: reload post: %w", err)
	}

	if valid {
		// Quota consumed for a post that will never validate: compensate
		// now. The decision reads the recorded results, not just the
		// status, because a concurrent rejecting handler may have passed
		// its own rollback check before the plan flag landed and not yet
		// committed Rejected. Between the two reads at least one handler
		// sees the other's write; the plan service deduplicates repeated
		// rollbacks.
		if planConcern && (post.Status == StatusRejected || post.HasFailedConcern()) {
			return s.publishRollback(ctx, post)
		}
		if post.Status == StatusPendingValidation && post.IsFullyValidated() {
			if err := s.store.SetStatus(ctx, postID, StatusValidated); err != nil && !errors.Is(err, ErrNotFound) {
				return fmt.Errorf("postsvc: mark validated: %w", err)
			}
			s.logger.Info("Post fully validated", loggingpkg.LogFields{"post_id": postID})
		}
		return nil
	}

	if post.Status == StatusRejected {
		return nil
	}

	// A plan failure consumed nothing; any other failure after the plan
	// succeeded must return the consumed unit.
	if !planConcern && post.IsUserPlanValid {
		if err := s.publishRollback(ctx, post); err != nil {
			return err
		}
	}

	if err := s.store.SetStatus(ctx, postID, StatusRejected); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("postsvc: mark rejected: %w", err)
	}
	s.logger.Info("Post rejected", loggingpkg.LogFields{"post_id": postID})
	return nil
}

func (s *Service) publishRollback(ctx context.Context, post *Post) error {
	rollback := events.NewRollbackPostUsage(post.ID, post.UserPlanID)
	if err := s.publisher.Publish(ctx, rollback); err != nil {
		return fmt.Errorf("postsvc: publish rollback for post %s: %w", post.ID, err)
	}
	s.logger.Info("Published quota rollback", loggingpkg.LogFields{
		"post_id":      post.ID,
		"user_plan_id": post.UserPlanID,
	})
	return nil
}
