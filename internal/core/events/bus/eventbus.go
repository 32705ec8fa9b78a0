package bus

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a typed notification delivered through the bus. Data carries a
// publisher-defined payload struct.
type Event struct {
	Type      string
	Source    string
	Timestamp time.Time
	Data      any
}

// NewEvent stamps an event with the current time.
func NewEvent(typ, source string, data any) Event {
	return Event{Type: typ, Source: source, Timestamp: time.Now(), Data: data}
}

// Handler processes a delivered event. A handler error does not stop
// delivery to the remaining subscribers.
type Handler func(Event) error

// Subscription identifies a registered handler and allows cancellation.
type Subscription struct {
	id        string
	eventType string
	cancel    func()
}

func (s Subscription) ID() string        { return s.id }
func (s Subscription) EventType() string { return s.eventType }

// Cancel removes the handler from the bus. Safe to call more than once.
func (s Subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Bus is a thread-safe in-memory publish/subscribe bus keyed by event type.
type Bus struct {
	mu sync.RWMutex
	// handlers: eventType -> subID -> handler
	handlers map[string]map[string]Handler
}

// New creates an empty event bus.
func New() *Bus {
	return &Bus{handlers: make(map[string]map[string]Handler)}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(eventType string, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[string]Handler)
	}
	id := uuid.NewString()
	b.handlers[eventType][id] = handler

	return Subscription{
		id:        id,
		eventType: eventType,
		cancel: func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if m, ok := b.handlers[eventType]; ok {
				delete(m, id)
				if len(m) == 0 {
					delete(b.handlers, eventType)
				}
			}
		},
	}
}

// Publish delivers the event synchronously to every subscriber of its type.
// Handler errors are joined and returned after all handlers have run.
func (b *Bus) Publish(event Event) error {
	b.mu.RLock()
	subs := b.handlers[event.Type]
	handlers := make([]Handler, 0, len(subs))
	for _, h := range subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SubscriberCount returns the number of handlers for an event type.
func (b *Bus) SubscriberCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
