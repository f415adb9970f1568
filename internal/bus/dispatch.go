package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	errspkg "github.com/adverto/adverto/internal/bus/errors"
)

// HandlerFunc processes a single decoded integration event.
type HandlerFunc func(ctx context.Context, event IntegrationEvent) error

// DispatchTable maps logical event names to the handlers a service has
// registered for them. A single event type may have several handlers; each
// one runs in its own failure boundary so one handler's error or panic never
// prevents the others from seeing the event.
type DispatchTable struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
}

// NewDispatchTable creates an empty dispatch table.
func NewDispatchTable() *DispatchTable {
	return &DispatchTable{handlers: make(map[string][]HandlerFunc)}
}

// Register appends a handler for the given logical event name.
func (t *DispatchTable) Register(eventName string, handler HandlerFunc) error {
	if eventName == "" {
		return errspkg.ErrEventNameRequired
	}
	if handler == nil {
		return errspkg.ErrHandlerRequired
	}

	t.mu.Lock()
	t.handlers[eventName] = append(t.handlers[eventName], handler)
	t.mu.Unlock()
	return nil
}

// RegisterHandler adds a typed handler for event type T under its own logical
// name, without the caller spelling the name or type-asserting the payload.
func RegisterHandler[T any, P EventPtr[T]](t *DispatchTable, handler func(ctx context.Context, event P) error) error {
	if handler == nil {
		return errspkg.ErrHandlerRequired
	}

	var zero T
	name := P(&zero).EventName()
	return t.Register(name, func(ctx context.Context, event IntegrationEvent) error {
		typed, ok := event.(P)
		if !ok {
			return fmt.Errorf("adverto: handler for %q received %T", name, event)
		}
		return handler(ctx, typed)
	})
}

// HandlerCount returns how many handlers are registered for the event name.
func (t *DispatchTable) HandlerCount(eventName string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handlers[eventName])
}

// Dispatch invokes every handler registered for the event's logical name.
// All handlers run, independently; the joined error carries every failure.
// Events with no registered handler dispatch to nothing and return nil.
func (t *DispatchTable) Dispatch(ctx context.Context, event IntegrationEvent) error {
	t.mu.RLock()
	handlers := t.handlers[event.EventName()]
	t.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := invokeHandler(ctx, handler, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// invokeHandler is the per-handler failure boundary: panics become errors.
func invokeHandler(ctx context.Context, handler HandlerFunc, event IntegrationEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("adverto: handler panicked on %s: %v", event.EventName(), r)
		}
	}()
	return handler(ctx, event)
}
