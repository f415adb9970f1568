package bus

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/adverto/adverto/internal/bus/errors"
	jsoncodec "github.com/adverto/adverto/internal/bus/jsoncodec"
	metadatapkg "github.com/adverto/adverto/internal/bus/metadata"
)

// Dead-letter reasons recorded by the consumer worker.
const (
	DeadLetterReasonDecode  = "decode_failed"
	DeadLetterReasonUnknown = "unknown_event_type"
	DeadLetterReasonHandler = "handler_failed"
)

// DeadLetter is the record kept for a message the worker could not process:
// enough context to inspect the failure and replay the original bytes.
type DeadLetter struct {
	MessageID string               `json:"messageId"`
	Topic     string               `json:"topic"`
	Payload   []byte               `json:"payload"`
	Metadata  metadatapkg.Metadata `json:"metadata,omitempty"`
	Reason    string               `json:"reason"`
	Cause     string               `json:"cause,omitempty"`
	FailedAt  time.Time            `json:"failedAt"`
}

// DeadLetterSink receives messages that failed decoding or handling. Sinks
// must not lose records silently; an error from Record is logged by the
// worker alongside the original failure.
type DeadLetterSink interface {
	Record(ctx context.Context, letter DeadLetter) error
}

// NopDeadLetterSink discards dead letters. The failure is still logged by the
// worker, which matches deployments that have no sink configured.
type NopDeadLetterSink struct{}

func (NopDeadLetterSink) Record(context.Context, DeadLetter) error { return nil }

// MemoryDeadLetterSink buffers dead letters in memory for inspection. Used by
// tests and by the channel transport example.
type MemoryDeadLetterSink struct {
	mu      sync.Mutex
	letters []DeadLetter
}

func NewMemoryDeadLetterSink() *MemoryDeadLetterSink {
	return &MemoryDeadLetterSink{}
}

func (s *MemoryDeadLetterSink) Record(_ context.Context, letter DeadLetter) error {
	s.mu.Lock()
	s.letters = append(s.letters, letter)
	s.mu.Unlock()
	return nil
}

// Letters returns a copy of the recorded dead letters.
func (s *MemoryDeadLetterSink) Letters() []DeadLetter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DeadLetter(nil), s.letters...)
}

func (s *MemoryDeadLetterSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.letters)
}

// TopicDeadLetterSink forwards dead letters to a broker topic so operators
// can inspect and replay them with the same tooling as live traffic.
type TopicDeadLetterSink struct {
	topic     string
	publisher message.Publisher
}

func NewTopicDeadLetterSink(publisher message.Publisher, topic string) (*TopicDeadLetterSink, error) {
	if publisher == nil {
		return nil, errspkg.ErrPublisherRequired
	}
	if topic == "" {
		return nil, errspkg.ErrTopicRequired
	}
	return &TopicDeadLetterSink{topic: topic, publisher: publisher}, nil
}

func (s *TopicDeadLetterSink) Record(ctx context.Context, letter DeadLetter) error {
	payload, err := jsoncodec.Marshal(letter)
	if err != nil {
		return err
	}

	msg := message.NewMessage(NewEventID(), payload)
	msg.Metadata = metadatapkg.ToWatermill(metadatapkg.New(
		"dead_letter_reason", letter.Reason,
		"original_topic", letter.Topic,
	))
	if ctx != nil {
		msg.SetContext(ctx)
	}
	return s.publisher.Publish(s.topic, msg)
}
