package scrum

import (
	"sync"

	"github.com/localnerve/scrumdb/internal/models"
)

// InsertEvent announces a task row inserted outside the local session, for
// example by a collaborator's write.
type InsertEvent struct {
	Task *models.Task
}

// Subscription is a live registration on a Channel. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

// Channel delivers insert events to subscribers.
type Channel interface {
	Subscribe(fn func(InsertEvent)) Subscription
}

// Bus is an in-process Channel fanning each published event out to every
// current subscriber. Delivery is synchronous on the publisher's goroutine.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int]func(InsertEvent)
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(InsertEvent))}
}

// Subscribe registers a handler for future events.
func (b *Bus) Subscribe(fn func(InsertEvent)) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = fn
	return &busSubscription{bus: b, id: id}
}

// Publish delivers an event to every subscriber registered at call time.
func (b *Bus) Publish(ev InsertEvent) {
	b.mu.Lock()
	handlers := make([]func(InsertEvent), 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

type busSubscription struct {
	bus *Bus
	id  int
}

func (s *busSubscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs, s.id)
}
