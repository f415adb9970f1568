package errors

import sterrors "errors"

var (
	ErrHandlerRequired     = sterrors.New("adverto: handler function is required")
	ErrEventNameRequired   = sterrors.New("adverto: event name is required")
	ErrTopicRequired       = sterrors.New("adverto: topic is required")
	ErrPublisherRequired   = sterrors.New("adverto: publisher is required")
	ErrEventRequired       = sterrors.New("adverto: event payload is required")
	ErrRegistryRequired    = sterrors.New("adverto: event type registry is required")
	ErrConfigRequired      = sterrors.New("adverto: config is required")
	ErrLoggerRequired      = sterrors.New("adverto: logger is required")
	ErrUnknownEventType    = sterrors.New("adverto: unknown event type")
	ErrPayloadNotUTF8      = sterrors.New("adverto: event payload is not valid UTF-8")
	ErrConsumerGroupNeeded = sterrors.New("adverto: consumer group id is required")

	ErrSubscriberRequired    = sterrors.New("adverto: subscriber is required")
	ErrDispatchTableRequired = sterrors.New("adverto: dispatch table is required")
)
