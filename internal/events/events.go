// Package events holds the integration event schemas exchanged by the Post
// validation choreography. These types are the contract surface between
// services: fields stay flat, and changes must be additive so producers and
// consumers can deploy independently.
package events

import "github.com/adverto/adverto/internal/bus"

// Topics are named per producing service.
const (
	TopicPost     = "post-events"
	TopicCategory = "category-events"
	TopicLocation = "location-events"
	TopicPlan     = "plan-events"
)

// Logical event names, stable across services and deployments.
const (
	NamePostCreated         = "post.created"
	NameCategoryPathValid   = "category.path-valid"
	NameCategoryPathInvalid = "category.path-invalid"
	NameLocationValid       = "location.valid"
	NameLocationInvalid     = "location.invalid"
	NameUserPlanValid       = "plan.valid"
	NameUserPlanInvalid     = "plan.invalid"
	NameRollbackPostUsage   = "plan.rollback-post-usage"
)

// PostCreated starts the validation choreography for a freshly persisted
// Post in PendingValidation.
type PostCreated struct {
	bus.EventBase
	PostID       string  `json:"postId"`
	UserID       string  `json:"userId"`
	UserPlanID   string  `json:"userPlanId"`
	Title        string  `json:"title"`
	CategoryPath []int64 `json:"categoryPath"`
	ProvinceCode int64   `json:"provinceCode"`
	DistrictCode int64   `json:"districtCode"`
	WardCode     int64   `json:"wardCode"`
}

func (PostCreated) EventName() string { return NamePostCreated }

// NewPostCreated builds the creation event with a fresh identity.
func NewPostCreated(postID, userID, userPlanID, title string, categoryPath []int64, province, district, ward int64) *PostCreated {
	return &PostCreated{
		EventBase:    bus.NewEventBase(),
		PostID:       postID,
		UserID:       userID,
		UserPlanID:   userPlanID,
		Title:        title,
		CategoryPath: categoryPath,
		ProvinceCode: province,
		DistrictCode: district,
		WardCode:     ward,
	}
}

// CategoryPathValid reports that the post's category path is a valid
// root-to-leaf chain in the category service's tree.
type CategoryPathValid struct {
	bus.EventBase
	PostID string `json:"postId"`
}

func (CategoryPathValid) EventName() string { return NameCategoryPathValid }

func NewCategoryPathValid(postID string) *CategoryPathValid {
	return &CategoryPathValid{EventBase: bus.NewEventBase(), PostID: postID}
}

// CategoryPathInvalid reports a broken category chain.
type CategoryPathInvalid struct {
	bus.EventBase
	PostID string `json:"postId"`
	Reason string `json:"reason"`
}

func (CategoryPathInvalid) EventName() string { return NameCategoryPathInvalid }

func NewCategoryPathInvalid(postID, reason string) *CategoryPathInvalid {
	return &CategoryPathInvalid{EventBase: bus.NewEventBase(), PostID: postID, Reason: reason}
}

// LocationValid carries the denormalized display text resolved by the
// location service, copied into the Post record on aggregation.
type LocationValid struct {
	bus.EventBase
	PostID       string `json:"postId"`
	ProvinceText string `json:"provinceText"`
	DistrictText string `json:"districtText"`
	WardText     string `json:"wardText"`
}

func (LocationValid) EventName() string { return NameLocationValid }

func NewLocationValid(postID, provinceText, districtText, wardText string) *LocationValid {
	return &LocationValid{
		EventBase:    bus.NewEventBase(),
		PostID:       postID,
		ProvinceText: provinceText,
		DistrictText: districtText,
		WardText:     wardText,
	}
}

// LocationInvalid reports a broken province/district/ward containment chain.
type LocationInvalid struct {
	bus.EventBase
	PostID string `json:"postId"`
	Reason string `json:"reason"`
}

func (LocationInvalid) EventName() string { return NameLocationInvalid }

func NewLocationInvalid(postID, reason string) *LocationInvalid {
	return &LocationInvalid{EventBase: bus.NewEventBase(), PostID: postID, Reason: reason}
}

// UserPlanValid reports that the plan covered the post and one unit of post
// quota was consumed.
type UserPlanValid struct {
	bus.EventBase
	PostID         string `json:"postId"`
	UserPlanID     string `json:"userPlanId"`
	RemainingPosts int    `json:"remainingPosts"`
}

func (UserPlanValid) EventName() string { return NameUserPlanValid }

func NewUserPlanValid(postID, userPlanID string, remainingPosts int) *UserPlanValid {
	return &UserPlanValid{
		EventBase:      bus.NewEventBase(),
		PostID:         postID,
		UserPlanID:     userPlanID,
		RemainingPosts: remainingPosts,
	}
}

// UserPlanInvalid reports a missing, inactive, expired, or exhausted plan.
// No quota is consumed on this path.
type UserPlanInvalid struct {
	bus.EventBase
	PostID     string `json:"postId"`
	UserPlanID string `json:"userPlanId"`
	Reason     string `json:"reason"`
}

func (UserPlanInvalid) EventName() string { return NameUserPlanInvalid }

func NewUserPlanInvalid(postID, userPlanID, reason string) *UserPlanInvalid {
	return &UserPlanInvalid{
		EventBase:  bus.NewEventBase(),
		PostID:     postID,
		UserPlanID: userPlanID,
		Reason:     reason,
	}
}

// RollbackPostUsage compensates a consumed quota unit when the saga decides
// the post will never become valid. The plan service deduplicates on the
// (postId, userPlanId) pair, so redeliveries and repeated publishes are safe.
type RollbackPostUsage struct {
	bus.EventBase
	PostID     string `json:"postId"`
	UserPlanID string `json:"userPlanId"`
}

func (RollbackPostUsage) EventName() string { return NameRollbackPostUsage }

func NewRollbackPostUsage(postID, userPlanID string) *RollbackPostUsage {
	return &RollbackPostUsage{EventBase: bus.NewEventBase(), PostID: postID, UserPlanID: userPlanID}
}
