package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	TypeCardRendered  = "card_rendered"
	TypeTimeRendered  = "time_rendered"
	TypeFlipsRendered = "flips_rendered"
	TypeGameEnded     = "game_ended"
)

// Event is a single render emitted by a hosted game.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// GameID identifies the game that rendered
	GameID uuid.UUID `json:"game_id"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// CardRenderedPayload describes a card face. ImageRef is left empty while the
// card is hidden so that a watcher cannot learn the layout.
type CardRenderedPayload struct {
	CardID   int    `json:"card_id"`
	State    string `json:"state"`
	ImageRef string `json:"image_ref,omitempty"`
}

// TimeRenderedPayload carries the countdown value
type TimeRenderedPayload struct {
	Seconds int `json:"seconds"`
}

// FlipsRenderedPayload carries the flip counter
type FlipsRenderedPayload struct {
	Flips int `json:"flips"`
}

// GameEndedPayload carries how the round ended
type GameEndedPayload struct {
	Outcome string `json:"outcome"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event for the given game with the specified type and payload.
func NewEvent(gameID uuid.UUID, eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		GameID:    gameID,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows games to publish renders without knowing who is watching.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}
