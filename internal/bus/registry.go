package bus

import (
	"fmt"
	"sync"

	errspkg "github.com/adverto/adverto/internal/bus/errors"
	jsoncodec "github.com/adverto/adverto/internal/bus/jsoncodec"
)

// UnknownTypeError reports a type name that no registered schema resolves.
// Seeing one in production usually means producers and consumers are deployed
// with mismatched event sets.
type UnknownTypeError struct {
	TypeName string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("adverto: unknown event type %q", e.TypeName)
}

func (e *UnknownTypeError) Unwrap() error { return errspkg.ErrUnknownEventType }

// TypeRegistry resolves logical event names to concrete schemas. It is
// populated explicitly at process start with the events a service produces or
// consumes, and passed to the worker and publisher by parameter; there is no
// ambient global registry.
type TypeRegistry struct {
	mu        sync.RWMutex
	factories map[string]func() IntegrationEvent
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{factories: make(map[string]func() IntegrationEvent)}
}

// RegisterFactory maps a logical event name to a constructor for its schema.
// Registering the same name twice replaces the previous factory.
func (r *TypeRegistry) RegisterFactory(name string, factory func() IntegrationEvent) error {
	if name == "" {
		return errspkg.ErrEventNameRequired
	}
	if factory == nil {
		return errspkg.ErrHandlerRequired
	}

	r.mu.Lock()
	r.factories[name] = factory
	r.mu.Unlock()
	return nil
}

// Register adds the event type T under its own logical name.
func Register[T any, P EventPtr[T]](r *TypeRegistry) error {
	var zero T
	name := P(&zero).EventName()
	return r.RegisterFactory(name, func() IntegrationEvent {
		return P(new(T))
	})
}

// Resolve returns the factory for the given logical name, or an explicit
// UnknownTypeError. It never falls back to a default schema.
func (r *TypeRegistry) Resolve(name string) (func() IntegrationEvent, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownTypeError{TypeName: name}
	}
	return factory, nil
}

// Deserialize resolves the type name and unmarshals the payload into a fresh
// instance of the concrete schema.
func (r *TypeRegistry) Deserialize(name string, payload []byte) (IntegrationEvent, error) {
	factory, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}

	event := factory()
	if err := jsoncodec.Unmarshal(payload, event); err != nil {
		return nil, &DecodeError{Reason: fmt.Sprintf("payload does not match schema %q", name), Err: err}
	}
	return event, nil
}

// Names returns the registered logical names.
func (r *TypeRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
