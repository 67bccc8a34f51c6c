package events

import (
	"context"
	"sync"

	"github.com/cinematch/cinematch/pkg/interfaces"
)

// InMemoryEventBus is an in-memory implementation of EventBus
type InMemoryEventBus struct {
	handlers map[string][]interfaces.EventHandler
	mu       sync.RWMutex
	logger   interfaces.Logger
	wg       sync.WaitGroup
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger interfaces.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		handlers: make(map[string][]interfaces.EventHandler),
		logger:   logger,
	}
}

// Publish publishes an event to all subscribers
func (eb *InMemoryEventBus) Publish(ctx context.Context, event interfaces.Event) error {
	eb.mu.RLock()
	handlers := eb.handlers[event.EventType()]
	eb.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			eb.logger.Error("Event handler failed",
				interfaces.String("event_type", event.EventType()),
				interfaces.String("handler", handler.EventType()),
				interfaces.Error(err))
			// Continue processing other handlers
		}
	}

	return nil
}

// PublishAsync publishes an event asynchronously
func (eb *InMemoryEventBus) PublishAsync(ctx context.Context, event interfaces.Event) {
	eb.wg.Add(1)
	go func() {
		defer eb.wg.Done()
		if err := eb.Publish(ctx, event); err != nil {
			eb.logger.Error("Async event publish failed",
				interfaces.String("event_type", event.EventType()),
				interfaces.Error(err))
		}
	}()
}

// Subscribe registers a handler for a specific event type
func (eb *InMemoryEventBus) Subscribe(eventType string, handler interfaces.EventHandler) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debug("Event handler subscribed",
		interfaces.String("event_type", eventType),
		interfaces.String("handler", handler.EventType()))

	return nil
}

// Unsubscribe removes a handler for a specific event type
func (eb *InMemoryEventBus) Unsubscribe(eventType string, handler interfaces.EventHandler) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	handlers := eb.handlers[eventType]
	for i, h := range handlers {
		if h == handler {
			eb.handlers[eventType] = append(handlers[:i], handlers[i+1:]...)
			break
		}
	}

	return nil
}

// Stop stops the event bus and waits for in-flight async handlers
func (eb *InMemoryEventBus) Stop() error {
	eb.wg.Wait()
	eb.logger.Info("Event bus stopped")
	return nil
}
