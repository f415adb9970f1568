package adverto

import (
	"context"

	buspkg "github.com/adverto/adverto/internal/bus"
	configpkg "github.com/adverto/adverto/internal/bus/config"
	errspkg "github.com/adverto/adverto/internal/bus/errors"
	idspkg "github.com/adverto/adverto/internal/bus/ids"
	jsoncodec "github.com/adverto/adverto/internal/bus/jsoncodec"
	loggingpkg "github.com/adverto/adverto/internal/bus/logging"
	metadatapkg "github.com/adverto/adverto/internal/bus/metadata"
	transportpkg "github.com/adverto/adverto/transport"
)

type (
	Config = configpkg.Config

	IntegrationEvent     = buspkg.IntegrationEvent
	EventBase            = buspkg.EventBase
	Envelope             = buspkg.Envelope
	DecodeError          = buspkg.DecodeError
	UnknownTypeError     = buspkg.UnknownTypeError
	TypeRegistry         = buspkg.TypeRegistry
	HandlerFunc          = buspkg.HandlerFunc
	DispatchTable        = buspkg.DispatchTable
	Publisher            = buspkg.Publisher
	BusPublisher         = buspkg.BusPublisher
	NoopPublisher        = buspkg.NoopPublisher
	Worker               = buspkg.Worker
	WorkerOptions        = buspkg.WorkerOptions
	WorkerMetrics        = buspkg.WorkerMetrics
	ProcessedLedger      = buspkg.ProcessedLedger
	NopLedger            = buspkg.NopLedger
	DeadLetter           = buspkg.DeadLetter
	DeadLetterSink       = buspkg.DeadLetterSink
	NopDeadLetterSink    = buspkg.NopDeadLetterSink
	MemoryDeadLetterSink = buspkg.MemoryDeadLetterSink
	TopicDeadLetterSink  = buspkg.TopicDeadLetterSink

	Metadata = metadatapkg.Metadata

	// EventPtr mirrors the internal constraint; generic type aliases are not
	// available before Go 1.24, so it embeds the internal interface instead.
	// As a constraint-only interface this is interchangeable with the alias.
	EventPtr[T any] interface {
		buspkg.EventPtr[T]
	}

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	// Modular transport types
	Transport             = transportpkg.Transport
	TransportBuilder      = transportpkg.Builder
	TransportConfig       = transportpkg.Config
	TransportRegistry     = transportpkg.Registry
	TransportCapabilities = transportpkg.Capabilities
)

var (
	ValidateConfig = configpkg.ValidateConfig

	NewEventBase     = buspkg.NewEventBase
	NewEventID       = buspkg.NewEventID
	EncodeEnvelope   = buspkg.EncodeEnvelope
	DecodeEnvelope   = buspkg.DecodeEnvelope
	NewTypeRegistry  = buspkg.NewTypeRegistry
	NewDispatchTable = buspkg.NewDispatchTable
	NewBusPublisher  = buspkg.NewBusPublisher
	NewWorker        = buspkg.NewWorker
	NewWorkerMetrics = buspkg.NewWorkerMetrics
	NewMemoryLedger  = buspkg.NewMemoryLedger

	NewMemoryDeadLetterSink = buspkg.NewMemoryDeadLetterSink
	NewTopicDeadLetterSink  = buspkg.NewTopicDeadLetterSink

	Marshal   = jsoncodec.Marshal
	Unmarshal = jsoncodec.Unmarshal
	Encode    = jsoncodec.Encode
	Decode    = jsoncodec.Decode

	ErrHandlerRequired       = errspkg.ErrHandlerRequired
	ErrEventNameRequired     = errspkg.ErrEventNameRequired
	ErrTopicRequired         = errspkg.ErrTopicRequired
	ErrPublisherRequired     = errspkg.ErrPublisherRequired
	ErrEventRequired         = errspkg.ErrEventRequired
	ErrRegistryRequired      = errspkg.ErrRegistryRequired
	ErrConfigRequired        = errspkg.ErrConfigRequired
	ErrLoggerRequired        = errspkg.ErrLoggerRequired
	ErrUnknownEventType      = errspkg.ErrUnknownEventType
	ErrPayloadNotUTF8        = errspkg.ErrPayloadNotUTF8
	ErrConsumerGroupNeeded   = errspkg.ErrConsumerGroupNeeded
	ErrSubscriberRequired    = errspkg.ErrSubscriberRequired
	ErrDispatchTableRequired = errspkg.ErrDispatchTableRequired

	NewSlogServiceLogger = loggingpkg.NewSlogServiceLogger
	NewWatermillAdapter  = loggingpkg.NewWatermillAdapter
	NopServiceLogger     = loggingpkg.Nop

	NewMetadata = metadatapkg.New

	CreateULID = idspkg.CreateULID

	// Modular transport registry.
	// Import individual transports via: _ "github.com/adverto/adverto/transport/kafka"
	DefaultTransportRegistry = transportpkg.DefaultRegistry
	RegisterTransport        = transportpkg.Register
	BuildTransport           = transportpkg.Build
)

// Metadata keys stamped onto every published message.
const (
	MetadataKeyEventName     = buspkg.MetadataKeyEventName
	MetadataKeyCorrelationID = buspkg.MetadataKeyCorrelationID
)

// Dead letter reasons recorded by the Worker.
const (
	DeadLetterReasonDecode  = buspkg.DeadLetterReasonDecode
	DeadLetterReasonUnknown = buspkg.DeadLetterReasonUnknown
	DeadLetterReasonHandler = buspkg.DeadLetterReasonHandler
)

// RegisterEventType adds T's factory to the registry under the name the
// zero value of T reports via EventName.
func RegisterEventType[T any, P EventPtr[T]](r *TypeRegistry) error {
	return buspkg.Register[T, P](r)
}

// RegisterEventHandler adds a typed handler to the dispatch table for the
// event name the zero value of T reports.
func RegisterEventHandler[T any, P EventPtr[T]](t *DispatchTable, handler func(ctx context.Context, event P) error) error {
	return buspkg.RegisterHandler[T, P](t, handler)
}
