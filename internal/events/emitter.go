package events

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f(ctx, event).
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// registration is a handler and the event types it asked for. An empty
// types list means every type.
type registration struct {
	handler EventHandler
	types   []string
}

func (r registration) wants(eventType string) bool {
	return len(r.types) == 0 || slices.Contains(r.types, eventType)
}

// InMemoryEventEmitter dispatches events synchronously, in registration
// order, to the handlers registered with it.
type InMemoryEventEmitter struct {
	mu            sync.RWMutex
	registrations []registration
	logger        *slog.Logger
}

// NewInMemoryEventEmitter creates a new instance of InMemoryEventEmitter.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		logger: logger.With("component", "event_emitter"),
	}
}

// RegisterHandler adds a handler for the given event types, or for every
// event when no types are given.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler, types ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registrations = append(e.registrations, registration{handler: handler, types: types})
	e.logger.Debug("registered event handler",
		"handler_count", len(e.registrations),
		"event_types", types)
}

// EmitEvent delivers event to every interested handler. A failing handler
// does not stop delivery to the others; all failures are returned joined.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	e.mu.RLock()
	registrations := e.registrations
	e.mu.RUnlock()

	var errs []error
	delivered := 0
	for i, reg := range registrations {
		if !reg.wants(event.Type) {
			continue
		}
		delivered++
		if err := reg.handler.HandleEvent(ctx, event); err != nil {
			e.logger.Error("event handler failed",
				"error", err,
				"handler_index", i,
				"event_type", event.Type,
				"game_id", event.GameID)
			errs = append(errs, err)
		}
	}

	if delivered == 0 {
		e.logger.Debug("no handler for event",
			"event_type", event.Type,
			"game_id", event.GameID)
	}
	return errors.Join(errs...)
}
