// Package postsvc owns the Post aggregate and the aggregation side of the
// validation choreography: it publishes the creation event and folds the
// three independent validation results into a single status transition.
package postsvc

import "time"

// Status is the Post's validation lifecycle state.
type Status string

const (
	// StatusPendingValidation is the state a Post is created in. It holds
	// until all three concerns validate, or the first one fails.
	StatusPendingValidation Status = "PendingValidation"

	// StatusValidated means all three validation flags are set.
	StatusValidated Status = "Validated"

	// StatusRejected is terminal: at least one concern reported a failure.
	StatusRejected Status = "Rejected"
)

// Post is the aggregate owned by the post service. The three validation
// flags are distinct fields mutated by independent handlers, so stores must
// scope writes to the flag being updated rather than rewriting the record.
type Post struct {
	ID         string
	UserID     string
	UserPlanID string

	Title       string
	Description string

	CategoryPath []int64

	ProvinceCode int64
	DistrictCode int64
	WardCode     int64

	// Denormalized display text copied from the location result.
	ProvinceText string
	DistrictText string
	WardText     string

	IsCategoryValid bool
	IsLocationValid bool
	IsUserPlanValid bool

	CategoryValidationMessage string
	LocationValidationMessage string
	UserPlanValidationMessage string

	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsFullyValidated is true iff all three validation flags are set.
func (p *Post) IsFullyValidated() bool {
	return p.IsCategoryValid && p.IsLocationValid && p.IsUserPlanValid
}

// HasFailedConcern is true once any concern has recorded a negative result.
// A false flag alone also means "not yet reported"; negative results always
// carry a reason, so the message distinguishes the two.
func (p *Post) HasFailedConcern() bool {
	return (!p.IsCategoryValid && p.CategoryValidationMessage != "") ||
		(!p.IsLocationValid && p.LocationValidationMessage != "") ||
		(!p.IsUserPlanValid && p.UserPlanValidationMessage != "")
}
