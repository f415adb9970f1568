package bus

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
)

// orderPlaced is the event schema used across the bus tests.
type orderPlaced struct {
	EventBase
	OrderID string `json:"orderId"`
}

func (orderPlaced) EventName() string { return "test.order-placed" }

func newOrderPlaced(orderID string) *orderPlaced {
	return &orderPlaced{EventBase: NewEventBase(), OrderID: orderID}
}

// orderShipped is a second schema for filter and registry tests.
type orderShipped struct {
	EventBase
	OrderID string `json:"orderId"`
}

func (orderShipped) EventName() string { return "test.order-shipped" }

// capturePublisher records watermill messages per topic.
type capturePublisher struct {
	mu       sync.Mutex
	messages map[string][]*message.Message
	fail     error
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{messages: make(map[string][]*message.Message)}
}

func (p *capturePublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.messages[topic] = append(p.messages[topic], messages...)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) published(topic string) []*message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*message.Message(nil), p.messages[topic]...)
}

// captureHandler counts invocations and remembers the last event.
type captureHandler struct {
	mu    sync.Mutex
	calls int
	last  IntegrationEvent
	err   error
}

func (h *captureHandler) handle(_ context.Context, event IntegrationEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	h.last = event
	return h.err
}

func (h *captureHandler) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func (h *captureHandler) lastEvent() IntegrationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}
