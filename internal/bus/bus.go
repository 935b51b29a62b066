// Package bus provides a small in-process publish/subscribe mechanism so
// local producers (the reminder scanner today) can reach the notification
// queue owner without holding a reference to it.
package bus

import (
	"sync"

	"github.com/google/uuid"
)

// Handler receives the payload of a published event.
type Handler func(payload any)

// Bus fans events out synchronously to current subscribers. There is no
// buffering or replay: a handler registered after Publish returns does not
// see that event.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[string]Handler
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[string]map[string]Handler)}
}

// Subscribe registers a handler for the named event and returns the
// capability to deregister it. Components must call the returned function
// on teardown so events stop firing into disposed consumers.
func (b *Bus) Subscribe(event string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[event] == nil {
		b.subs[event] = make(map[string]Handler)
	}
	token := uuid.New().String()
	b.subs[event][token] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[event], token)
	}
}

// Publish delivers the payload to every handler currently subscribed to
// the event. Delivery is synchronous within the publishing call and
// fire-and-forget: handler panics are not recovered, return values do not
// exist, and no ordering is guaranteed across independent event names.
func (b *Bus) Publish(event string, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[event]))
	for _, h := range b.subs[event] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
}
