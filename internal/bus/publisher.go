package bus

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/adverto/adverto/internal/bus/errors"
	jsoncodec "github.com/adverto/adverto/internal/bus/jsoncodec"
	metadatapkg "github.com/adverto/adverto/internal/bus/metadata"
)

// Standard metadata keys carried on every published message.
const (
	MetadataKeyEventName     = "adverto_event_name"
	MetadataKeyCorrelationID = "correlation_id"
)

// Publisher emits integration events onto the owning service's topic.
// A successful publish means "accepted by the broker", not "processed by
// consumers"; validation outcomes always arrive asynchronously.
type Publisher interface {
	Publish(ctx context.Context, event IntegrationEvent) error
}

// BusPublisher wraps a broker publisher and the single topic owned by the
// publishing service.
type BusPublisher struct {
	topic     string
	publisher message.Publisher
}

// NewBusPublisher builds a Publisher that envelope-encodes events onto topic.
func NewBusPublisher(publisher message.Publisher, topic string) (*BusPublisher, error) {
	if publisher == nil {
		return nil, errspkg.ErrPublisherRequired
	}
	if topic == "" {
		return nil, errspkg.ErrTopicRequired
	}
	return &BusPublisher{topic: topic, publisher: publisher}, nil
}

// Publish envelope-encodes the event and writes it to the configured topic.
// The message UUID is the event id so brokers and consumers share one handle
// on the event.
func (p *BusPublisher) Publish(ctx context.Context, event IntegrationEvent) error {
	if event == nil {
		return errspkg.ErrEventRequired
	}

	payload, err := jsoncodec.Marshal(event)
	if err != nil {
		return err
	}

	data, err := EncodeEnvelope(event.EventName(), payload)
	if err != nil {
		return err
	}

	msg := message.NewMessage(event.EventID(), data)
	msg.Metadata = metadatapkg.ToWatermill(metadatapkg.New(
		MetadataKeyEventName, event.EventName(),
		MetadataKeyCorrelationID, event.EventID(),
	))
	if ctx != nil {
		msg.SetContext(ctx)
	}

	return p.publisher.Publish(p.topic, msg)
}

// NoopPublisher reports success without enqueuing anything. It backs services
// that only consume, and isolated test runs with no broker configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, IntegrationEvent) error { return nil }
