package bus

import (
	"time"

	idspkg "github.com/adverto/adverto/internal/bus/ids"
)

// IntegrationEvent is implemented by every event exchanged between services.
// Concrete events embed EventBase for identity and provide EventName, the
// logical type name that stays stable across services and deployments.
type IntegrationEvent interface {
	EventID() string
	CreatedUTC() time.Time
	EventName() string
}

// EventPtr constrains a pointer-to-event type so generic helpers can build
// fresh instances without reflection.
type EventPtr[T any] interface {
	*T
	IntegrationEvent
}

// EventBase carries the identity fields shared by all integration events.
// Immutable once created.
type EventBase struct {
	ID        string    `json:"eventId"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEventBase assigns a fresh time-ordered event id and UTC creation time.
func NewEventBase() EventBase {
	return EventBase{
		ID:        idspkg.CreateULID(),
		CreatedAt: time.Now().UTC(),
	}
}

func (b EventBase) EventID() string       { return b.ID }
func (b EventBase) CreatedUTC() time.Time { return b.CreatedAt }

// NewEventID generates a unique event id using ULID.
func NewEventID() string {
	return idspkg.CreateULID()
}
