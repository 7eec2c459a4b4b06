// Package events provides the in-process pub/sub bus the registries use to
// fan out change notifications to interested consumers. It replaces the DOM
// custom events of the original browser application with a typed bus:
// one producer, multiple independent subscribers, delivered synchronously
// in subscription order.
package events

import (
	"sync"

	"gamerate/internal/observability"
)

// Type identifies an event on the bus.
type Type string

// Event types published by the registries.
const (
	CatalogLoaded     Type = "catalogLoaded"
	UserRegistered    Type = "userRegistered"
	UserLoggedIn      Type = "userLoggedIn"
	UserLoggedOut     Type = "userLoggedOut"
	ReviewAdded       Type = "reviewAdded"
	ReviewUpdated     Type = "reviewUpdated"
	ReviewDeleted     Type = "reviewDeleted"
	ReviewLiked       Type = "reviewLiked"
	CollectionUpdated Type = "collectionUpdated"
)

// Event carries a type tag and a small payload (ids, or the mutated entity).
type Event struct {
	Type    Type
	Payload any
}

// Handler consumes a published event.
type Handler func(Event)

// Bus is a synchronous fan-out pub/sub bus. Subscribing during delivery is
// safe; newly added handlers see only later events.
type Bus struct {
	mu   sync.RWMutex
	subs map[Type][]Handler
	all  []Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Type][]Handler)}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[t] = append(b.subs[t], h)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish delivers the event to all matching subscribers in order.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[evt.Type])+len(b.all))
	handlers = append(handlers, b.subs[evt.Type]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	observability.RegistryEvents.WithLabelValues(string(evt.Type)).Inc()

	for _, h := range handlers {
		h(evt)
	}
}
