package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *DomainEvent) error

func (f HandlerFunc) HandleEvent(ctx context.Context, event *DomainEvent) error {
	return f(ctx, event)
}

// Bus delivers committed events to the handlers subscribed to their type.
// Delivery is synchronous and in subscription order.
type Bus struct {
	mu       sync.RWMutex
	byType   map[string][]EventHandler
	wildcard []EventHandler
	logger   *slog.Logger
}

var _ EventEmitter = (*Bus)(nil)

// NewBus creates a Bus with no subscribers.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		byType: make(map[string][]EventHandler),
		logger: logger.With(slog.String("component", "event_bus")),
	}
}

// Subscribe registers handler for the given event types, or for every event
// when no type is given.
func (b *Bus) Subscribe(handler EventHandler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(eventTypes) == 0 {
		b.wildcard = append(b.wildcard, handler)
		return
	}
	for _, t := range eventTypes {
		b.byType[t] = append(b.byType[t], handler)
	}
}

func (b *Bus) subscribers(eventType string) []EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]EventHandler, 0, len(b.byType[eventType])+len(b.wildcard))
	out = append(out, b.byType[eventType]...)
	return append(out, b.wildcard...)
}

// EmitEvent runs every subscriber of event.Type. All subscribers run even
// when one fails; the failures are joined.
func (b *Bus) EmitEvent(ctx context.Context, event *DomainEvent) error {
	if event == nil || event.Type == "" {
		return errors.New("event bus: event without a type")
	}

	var errs []error
	for _, h := range b.subscribers(event.Type) {
		if err := h.HandleEvent(ctx, event); err != nil {
			b.logger.Error("event handler failed",
				slog.String("event_type", event.Type),
				slog.String("event_id", event.ID.String()),
				slog.String("handler", fmt.Sprintf("%T", h)),
				slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
