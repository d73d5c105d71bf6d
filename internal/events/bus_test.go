package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

func TestEmitSyncDeliversInOrder(t *testing.T) {
	bus := NewEventBus()
	specific := &recorder{}
	wildcard := &recorder{}
	bus.Subscribe(EventServerAdded, specific)
	bus.Subscribe("*", wildcard)

	bus.EmitSync(NewEvent(EventServerAdded, EventSourceProtocol, nil))
	bus.EmitSync(NewEvent(EventServerActivated, EventSourceProtocol, nil))
	bus.EmitSync(NewEvent(EventServerAdded, EventSourceUI, nil))

	assert.Equal(t, []string{EventServerAdded, EventServerAdded}, specific.types())
	assert.Equal(t, []string{EventServerAdded, EventServerActivated, EventServerAdded}, wildcard.types())
}

func TestEmitIsAsynchronous(t *testing.T) {
	bus := NewEventBus()
	done := make(chan Event, 1)
	bus.Subscribe(EventUpdateAvailable, SubscriberFunc(func(e Event) { done <- e }))

	bus.Emit(NewEvent(EventUpdateAvailable, EventSourceSystem, map[string]interface{}{"version": "4.0.0"}))

	select {
	case e := <-done:
		assert.Equal(t, "4.0.0", e.Data["version"])
		assert.Equal(t, EventSourceSystem, e.Source)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	first := &recorder{}
	second := &recorder{}
	bus.Subscribe(EventServerRemoved, first)
	bus.Subscribe(EventServerRemoved, second)

	bus.Unsubscribe(EventServerRemoved, first)
	bus.EmitSync(NewEvent(EventServerRemoved, EventSourceUI, nil))

	assert.Empty(t, first.types())
	require.Len(t, second.types(), 1)
}
