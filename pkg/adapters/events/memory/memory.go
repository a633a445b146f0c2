package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/dagforge/dagforge/pkg/domain"
	"github.com/dagforge/dagforge/pkg/ports"
)

// ErrClosed is returned by Publish and Subscribe after Close.
var ErrClosed = errors.New("event bus is closed")

// subscription pairs a handler with an id so a context watcher can
// remove exactly its own entry.
type subscription struct {
	id      uint64
	handler ports.EventHandler
}

// EventBus implements ports.EventBus with in-process handler fan-out.
// Intended for development and testing.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]subscription
	nextID      uint64
	closed      bool
}

// NewEventBus creates an empty in-memory event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]subscription),
	}
}

// Publish delivers an event to every subscriber of the topic. Handlers
// run asynchronously; handler errors are dropped.
func (e *EventBus) Publish(ctx context.Context, topic string, event domain.Event) error {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return ErrClosed
	}
	handlers := make([]ports.EventHandler, 0, len(e.subscribers[topic]))
	for _, sub := range e.subscribers[topic] {
		handlers = append(handlers, sub.handler)
	}
	e.mu.RUnlock()

	for _, handler := range handlers {
		go func(h ports.EventHandler) {
			_ = h(ctx, event)
		}(handler)
	}
	return nil
}

// Subscribe registers a handler for a topic. When the context is
// cancellable the subscription is removed as soon as it ends, so
// short-lived subscribers (WebSocket connections) do not accumulate.
func (e *EventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.nextID++
	id := e.nextID
	e.subscribers[topic] = append(e.subscribers[topic], subscription{id: id, handler: handler})
	e.mu.Unlock()

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			e.removeSubscription(topic, id)
		}()
	}
	return nil
}

// removeSubscription drops one subscription from a topic.
func (e *EventBus) removeSubscription(topic string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := e.subscribers[topic]
	for i, sub := range subs {
		if sub.id == id {
			e.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(e.subscribers[topic]) == 0 {
		delete(e.subscribers, topic)
	}
}

// Unsubscribe removes every subscription from a topic.
func (e *EventBus) Unsubscribe(ctx context.Context, topic string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.subscribers, topic)
	return nil
}

// Close drops all subscriptions and rejects further use.
func (e *EventBus) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.subscribers = make(map[string][]subscription)
	e.closed = true
	return nil
}
