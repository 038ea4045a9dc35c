package event

import (
	"sync"
)

// EventHandler handles domain events
type EventHandler interface {
	// Handle processes the event
	Handle(event DomainEvent) error
	// HandledEvents returns the event names this handler handles
	HandledEvents() []string
}

// EventDispatcher dispatches domain events to registered handlers
type EventDispatcher interface {
	// Dispatch sends an event to all registered handlers
	Dispatch(event DomainEvent)
	// Subscribe registers a handler for events
	Subscribe(handler EventHandler)
}

// ErrorFunc receives handler failures
type ErrorFunc func(event DomainEvent, err error)

// InMemoryDispatcher delivers events to handlers in the caller's goroutine.
// Handlers registered for NameAll receive every event.
type InMemoryDispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
	onError  ErrorFunc
}

// NewInMemoryDispatcher creates a new InMemoryDispatcher. onError may be nil.
func NewInMemoryDispatcher(onError ErrorFunc) *InMemoryDispatcher {
	return &InMemoryDispatcher{
		handlers: make(map[string][]EventHandler),
		onError:  onError,
	}
}

// Dispatch sends an event to all registered handlers
func (d *InMemoryDispatcher) Dispatch(event DomainEvent) {
	d.mu.RLock()
	named := d.handlers[event.EventName()]
	all := d.handlers[NameAll]
	targets := make([]EventHandler, 0, len(named)+len(all))
	targets = append(targets, named...)
	targets = append(targets, all...)
	d.mu.RUnlock()

	for _, h := range targets {
		if err := h.Handle(event); err != nil && d.onError != nil {
			d.onError(event, err)
		}
	}
}

// Subscribe registers a handler for events
func (d *InMemoryDispatcher) Subscribe(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, name := range handler.HandledEvents() {
		d.handlers[name] = append(d.handlers[name], handler)
	}
}

// NullDispatcher is a no-op dispatcher for when events are not needed
type NullDispatcher struct{}

// Dispatch does nothing
func (NullDispatcher) Dispatch(event DomainEvent) {}

// Subscribe does nothing
func (NullDispatcher) Subscribe(handler EventHandler) {}
