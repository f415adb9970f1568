package plansvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adverto/adverto/internal/bus"
	loggingpkg "github.com/adverto/adverto/internal/bus/logging"
	"github.com/adverto/adverto/internal/events"
)

// Service validates plan coverage for new posts, consumes quota, and applies
// compensation when the saga rolls a consumption back.
type Service struct {
	store     Store
	publisher bus.Publisher
	logger    loggingpkg.ServiceLogger

	// now is swappable so tests can pin the subscription window.
	now func() time.Time
}

func NewService(store Store, publisher bus.Publisher, logger loggingpkg.ServiceLogger) *Service {
	if publisher == nil {
		publisher = bus.NoopPublisher{}
	}
	if logger == nil {
		logger = loggingpkg.Nop()
	}
	return &Service{store: store, publisher: publisher, logger: logger, now: time.Now}
}

// RegisterHandlers attaches the creation and rollback handlers to the
// dispatch table.
func (s *Service) RegisterHandlers(table *bus.DispatchTable) error {
	if err := bus.RegisterHandler(table, s.HandlePostCreated); err != nil {
		return err
	}
	return bus.RegisterHandler(table, s.HandleRollbackPostUsage)
}

// HandlePostCreated validates the referenced plan and, on success, consumes
// one unit of post quota before publishing UserPlanValid. The decrement and
// the publish form one logical step: when the publish fails the decrement is
// restored locally and the handler fails, so quota is never left consumed
// without a result event on the wire.
func (s *Service) HandlePostCreated(ctx context.Context, evt *events.PostCreated) error {
	plan, err := s.store.FindByID(ctx, evt.UserPlanID)
	if errors.Is(err, ErrNotFound) {
		return s.publishInvalid(ctx, evt, fmt.Sprintf("user plan %s does not exist", evt.UserPlanID))
	}
	if err != nil {
		return fmt.Errorf("plansvc: load plan %s: %w", evt.UserPlanID, err)
	}

	now := s.now().UTC()
	if !plan.IsActive {
		return s.publishInvalid(ctx, evt, "user plan is not active")
	}
	if now.Before(plan.StartDate) || now.After(plan.EndDate) {
		return s.publishInvalid(ctx, evt, "user plan is outside its subscription window")
	}
	if plan.RemainingPosts <= 0 {
		return s.publishInvalid(ctx, evt, "user plan has no remaining post quota")
	}

	remaining, err := s.store.ConsumePost(ctx, evt.UserPlanID)
	if errors.Is(err, ErrQuotaExhausted) {
		// Lost the race against a concurrent consumer.
		return s.publishInvalid(ctx, evt, "user plan has no remaining post quota")
	}
	if err != nil {
		return fmt.Errorf("plansvc: consume quota on plan %s: %w", evt.UserPlanID, err)
	}

	result := events.NewUserPlanValid(evt.PostID, evt.UserPlanID, remaining)
	if err := s.publisher.Publish(ctx, result); err != nil {
		if _, restoreErr := s.store.RestorePost(ctx, evt.UserPlanID); restoreErr != nil {
			s.logger.Error("Failed to restore quota after publish failure", restoreErr, loggingpkg.LogFields{
				"user_plan_id": evt.UserPlanID,
				"post_id":      evt.PostID,
			})
		}
		return fmt.Errorf("plansvc: publish plan result for post %s: %w", evt.PostID, err)
	}

	s.logger.Info("Post quota consumed", loggingpkg.LogFields{
		"user_plan_id":    evt.UserPlanID,
		"post_id":         evt.PostID,
		"remaining_posts": remaining,
	})
	return nil
}

// HandleRollbackPostUsage returns one unit of post quota. The per-(post,
// plan) marker makes the compensation idempotent: redelivered or repeated
// rollback events change nothing after the first.
func (s *Service) HandleRollbackPostUsage(ctx context.Context, evt *events.RollbackPostUsage) error {
	claimed, err := s.store.MarkRollback(ctx, evt.PostID, evt.UserPlanID)
	if err != nil {
		return fmt.Errorf("plansvc: claim rollback marker: %w", err)
	}
	if !claimed {
		s.logger.Debug("Rollback already applied", loggingpkg.LogFields{
			"user_plan_id": evt.UserPlanID,
			"post_id":      evt.PostID,
		})
		return nil
	}

	remaining, err := s.store.RestorePost(ctx, evt.UserPlanID)
	if errors.Is(err, ErrNotFound) {
		s.logger.Warn("Rollback for unknown plan", loggingpkg.LogFields{
			"user_plan_id": evt.UserPlanID,
			"post_id":      evt.PostID,
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("plansvc: restore quota on plan %s: %w", evt.UserPlanID, err)
	}

	s.logger.Info("Post quota restored", loggingpkg.LogFields{
		"user_plan_id":    evt.UserPlanID,
		"post_id":         evt.PostID,
		"remaining_posts": remaining,
	})
	return nil
}

func (s *Service) publishInvalid(ctx context.Context, evt *events.PostCreated, reason string) error {
	s.logger.Info("User plan invalid", loggingpkg.LogFields{
		"user_plan_id": evt.UserPlanID,
		"post_id":      evt.PostID,
		"reason":       reason,
	})

	result := events.NewUserPlanInvalid(evt.PostID, evt.UserPlanID, reason)
	if err := s.publisher.Publish(ctx, result); err != nil {
		return fmt.Errorf("plansvc: publish plan result for post %s: %w", evt.PostID, err)
	}
	return nil
}
