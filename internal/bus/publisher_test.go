package bus

import (
	"context"
	"errors"
	"testing"

	errspkg "github.com/adverto/adverto/internal/bus/errors"
	jsoncodec "github.com/adverto/adverto/internal/bus/jsoncodec"
)

func TestBusPublisherEnvelopesEvents(t *testing.T) {
	broker := newCapturePublisher()
	publisher, err := NewBusPublisher(broker, "orders")
	if err != nil {
		t.Fatalf("constructor failed: %v", err)
	}

	event := newOrderPlaced("o-1")
	if err := publisher.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	messages := broker.published("orders")
	if len(messages) != 1 {
		t.Fatalf("expected one message, got %d", len(messages))
	}
	msg := messages[0]

	if msg.UUID != event.EventID() {
		t.Fatalf("expected message uuid to be the event id, got %q", msg.UUID)
	}
	if msg.Metadata[MetadataKeyEventName] != "test.order-placed" {
		t.Fatalf("expected event name metadata, got %q", msg.Metadata[MetadataKeyEventName])
	}
	if msg.Metadata[MetadataKeyCorrelationID] == "" {
		t.Fatal("expected correlation id metadata")
	}

	typeName, payload, err := DecodeEnvelope(msg.Payload)
	if err != nil {
		t.Fatalf("published payload is not a valid envelope: %v", err)
	}
	if typeName != "test.order-placed" {
		t.Fatalf("unexpected envelope type %q", typeName)
	}

	decoded := &orderPlaced{}
	if err := jsoncodec.Unmarshal(payload, decoded); err != nil {
		t.Fatalf("payload does not round-trip: %v", err)
	}
	if decoded.OrderID != "o-1" || decoded.EventID() != event.EventID() {
		t.Fatalf("unexpected decoded event %+v", decoded)
	}
}

func TestBusPublisherValidation(t *testing.T) {
	broker := newCapturePublisher()

	if _, err := NewBusPublisher(nil, "orders"); !errors.Is(err, errspkg.ErrPublisherRequired) {
		t.Fatalf("expected publisher required error, got %v", err)
	}
	if _, err := NewBusPublisher(broker, ""); !errors.Is(err, errspkg.ErrTopicRequired) {
		t.Fatalf("expected topic required error, got %v", err)
	}

	publisher, err := NewBusPublisher(broker, "orders")
	if err != nil {
		t.Fatalf("constructor failed: %v", err)
	}
	if err := publisher.Publish(context.Background(), nil); !errors.Is(err, errspkg.ErrEventRequired) {
		t.Fatalf("expected event required error, got %v", err)
	}
}

func TestBusPublisherPropagatesBrokerErrors(t *testing.T) {
	broker := newCapturePublisher()
	broker.fail = errors.New("broker unavailable")

	publisher, err := NewBusPublisher(broker, "orders")
	if err != nil {
		t.Fatalf("constructor failed: %v", err)
	}
	if err := publisher.Publish(context.Background(), newOrderPlaced("o-2")); err == nil {
		t.Fatal("expected broker failure to surface")
	}
}

func TestNoopPublisher(t *testing.T) {
	if err := (NoopPublisher{}).Publish(context.Background(), newOrderPlaced("o-3")); err != nil {
		t.Fatalf("noop publish should never fail, got %v", err)
	}
}
