package service

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/phrazzld/concentration/internal/domain"
	"github.com/phrazzld/concentration/internal/domain/game"
	"github.com/phrazzld/concentration/internal/events"
	"github.com/phrazzld/concentration/internal/task"
)

// hostedGame is one game and the goroutine that owns it. session must only
// be touched from functions running on exec.
type hostedGame struct {
	id      uuid.UUID
	exec    *task.SerialExecutor
	session *game.Session

	// lastActive is the clock time, in unix nanoseconds, of the last command
	lastActive atomic.Int64
}

// eventView renders a session as events. It runs on the game's executor.
type eventView struct {
	gameID  uuid.UUID
	emitter events.EventEmitter
	logger  *slog.Logger
}

var _ game.View = (*eventView)(nil)

func (v *eventView) RenderCard(card game.CardView) {
	payload := events.CardRenderedPayload{
		CardID: card.ID,
		State:  string(card.State),
	}
	if card.State != domain.CardStateHidden {
		payload.ImageRef = card.ImageRef
	}
	v.emit(events.TypeCardRendered, payload)
}

func (v *eventView) RenderTimeRemaining(seconds int) {
	v.emit(events.TypeTimeRendered, events.TimeRenderedPayload{Seconds: seconds})
}

func (v *eventView) RenderFlipCount(flips int) {
	v.emit(events.TypeFlipsRendered, events.FlipsRenderedPayload{Flips: flips})
}

func (v *eventView) RenderEnded(outcome game.Outcome) {
	v.emit(events.TypeGameEnded, events.GameEndedPayload{Outcome: string(outcome)})
}

func (v *eventView) emit(eventType string, payload interface{}) {
	event, err := events.NewEvent(v.gameID, eventType, payload)
	if err != nil {
		v.logger.Error("failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	if err := v.emitter.EmitEvent(context.Background(), event); err != nil {
		v.logger.Warn("failed to emit event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}
