package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_FanOut(t *testing.T) {
	bus := NewBus()

	var first, second []Type
	bus.Subscribe(ReviewAdded, func(evt Event) { first = append(first, evt.Type) })
	bus.Subscribe(ReviewAdded, func(evt Event) { second = append(second, evt.Type) })
	bus.Subscribe(ReviewDeleted, func(evt Event) { first = append(first, evt.Type) })

	bus.Publish(Event{Type: ReviewAdded, Payload: 1})

	assert.Equal(t, []Type{ReviewAdded}, first)
	assert.Equal(t, []Type{ReviewAdded}, second)
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus()

	var seen []Type
	bus.SubscribeAll(func(evt Event) { seen = append(seen, evt.Type) })

	bus.Publish(Event{Type: UserLoggedIn})
	bus.Publish(Event{Type: CollectionUpdated})

	assert.Equal(t, []Type{UserLoggedIn, CollectionUpdated}, seen)
}

func TestBus_PayloadDelivered(t *testing.T) {
	bus := NewBus()

	var got any
	bus.Subscribe(CollectionUpdated, func(evt Event) { got = evt.Payload })

	bus.Publish(Event{Type: CollectionUpdated, Payload: []string{"steam_450"}})

	assert.Equal(t, []string{"steam_450"}, got)
}

func TestBus_NoSubscribers(t *testing.T) {
	bus := NewBus()
	assert.NotPanics(t, func() {
		bus.Publish(Event{Type: ReviewLiked})
	})
}
