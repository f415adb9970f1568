package events

import "github.com/adverto/adverto/internal/bus"

// Each service registers only the schemas it produces or consumes. Resolution
// of anything else fails loudly on the consuming side, which is the intended
// signal for a deployment or versioning mismatch.

// RegisterPostServiceTypes registers the schemas the post service handles:
// its own creation and rollback events plus all six validation results.
func RegisterPostServiceTypes(r *bus.TypeRegistry) error {
	if err := bus.Register[PostCreated](r); err != nil {
		return err
	}
	if err := bus.Register[RollbackPostUsage](r); err != nil {
		return err
	}
	if err := bus.Register[CategoryPathValid](r); err != nil {
		return err
	}
	if err := bus.Register[CategoryPathInvalid](r); err != nil {
		return err
	}
	if err := bus.Register[LocationValid](r); err != nil {
		return err
	}
	if err := bus.Register[LocationInvalid](r); err != nil {
		return err
	}
	if err := bus.Register[UserPlanValid](r); err != nil {
		return err
	}
	return bus.Register[UserPlanInvalid](r)
}

// RegisterCategoryServiceTypes registers the creation event it consumes and
// the results it produces.
func RegisterCategoryServiceTypes(r *bus.TypeRegistry) error {
	if err := bus.Register[PostCreated](r); err != nil {
		return err
	}
	if err := bus.Register[CategoryPathValid](r); err != nil {
		return err
	}
	return bus.Register[CategoryPathInvalid](r)
}

// RegisterLocationServiceTypes registers the creation event it consumes and
// the results it produces.
func RegisterLocationServiceTypes(r *bus.TypeRegistry) error {
	if err := bus.Register[PostCreated](r); err != nil {
		return err
	}
	if err := bus.Register[LocationValid](r); err != nil {
		return err
	}
	return bus.Register[LocationInvalid](r)
}

// RegisterPlanServiceTypes registers the creation and rollback events it
// consumes and the results it produces.
func RegisterPlanServiceTypes(r *bus.TypeRegistry) error {
	if err := bus.Register[PostCreated](r); err != nil {
		return err
	}
	if err := bus.Register[RollbackPostUsage](r); err != nil {
		return err
	}
	if err := bus.Register[UserPlanValid](r); err != nil {
		return err
	}
	return bus.Register[UserPlanInvalid](r)
}
