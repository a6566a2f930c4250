package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/phrazzld/concentration/internal/config"
	"github.com/phrazzld/concentration/internal/platform/logger"
	"github.com/phrazzld/concentration/internal/service"
)

// Stream message types that are not render events
const (
	// StreamTypeState carries a full GameStateResponse. It is sent when a
	// stream opens and again after the subscriber missed events.
	StreamTypeState = "state"
	// StreamTypeClosed tells the client the game is gone.
	StreamTypeClosed = "closed"
)

// StreamHandler serves render events as Server-Sent Events
type StreamHandler struct {
	games  service.GameService
	cfg    config.StreamConfig
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewStreamHandler creates a new StreamHandler. A nil clock means the real one.
func NewStreamHandler(
	games service.GameService,
	cfg config.StreamConfig,
	clock clockwork.Clock,
	logger *slog.Logger,
) *StreamHandler {
	if games == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("game service cannot be nil for StreamHandler")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &StreamHandler{
		games:  games,
		cfg:    cfg,
		clock:  clock,
		logger: logger.With(slog.String("component", "stream_handler")),
	}
}

// StreamEvents handles GET /api/games/{id}/events.
// The stream opens with a state snapshot, then relays every render event of
// the game until the client leaves or the game ends.
func (h *StreamHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	gameID, ok := handleGameID(w, r, h.logger)
	if !ok {
		return
	}
	log := logger.FromContextOrDefault(r.Context(), h.logger).
		With(slog.String("game_id", gameID.String()))

	// Subscribe before the snapshot so nothing falls between them.
	sub, err := h.games.Subscribe(r.Context(), gameID, h.cfg.EventBuffer)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to open event stream")
		return
	}
	defer sub.Close()

	state, err := h.games.GetGame(r.Context(), gameID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to open event stream")
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	send := func(write func(io.Writer) error) bool {
		// Deadlines are wall-clock; the injected clock only paces pings.
		_ = rc.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
		if err := write(w); err != nil {
			log.Debug("event stream write failed", slog.String("error", err.Error()))
			return false
		}
		if err := rc.Flush(); err != nil {
			log.Debug("event stream flush failed", slog.String("error", err.Error()))
			return false
		}
		return true
	}

	if !send(func(w io.Writer) error {
		return writeSSE(w, "", StreamTypeState, newGameStateResponse(state))
	}) {
		return
	}
	log.Debug("event stream opened")

	ping := h.clock.NewTicker(h.cfg.PingInterval)
	defer ping.Stop()

	var dropped int64
	for {
		select {
		case <-r.Context().Done():
			log.Debug("event stream closed by client")
			return

		case <-ping.Chan():
			if !send(func(w io.Writer) error {
				_, err := io.WriteString(w, ": ping\n\n")
				return err
			}) {
				return
			}

		case event, ok := <-sub.C:
			if !ok {
				send(func(w io.Writer) error {
					return writeSSE(w, "", StreamTypeClosed, map[string]string{"game_id": gameID.String()})
				})
				log.Debug("event stream ended with game")
				return
			}
			if !send(func(w io.Writer) error {
				return writeSSE(w, event.ID.String(), event.Type, event)
			}) {
				return
			}

			if missed := sub.Dropped(); missed > dropped {
				dropped = missed
				if !h.resync(r, send, gameID, log) {
					return
				}
			}
		}
	}
}

// resync sends a fresh snapshot after the subscriber missed events.
func (h *StreamHandler) resync(
	r *http.Request,
	send func(func(io.Writer) error) bool,
	gameID uuid.UUID,
	log *slog.Logger,
) bool {
	state, err := h.games.GetGame(r.Context(), gameID)
	if err != nil {
		log.Debug("resync failed", slog.String("error", err.Error()))
		return false
	}
	log.Debug("resynchronizing event stream")
	return send(func(w io.Writer) error {
		return writeSSE(w, "", StreamTypeState, newGameStateResponse(state))
	})
}

// writeSSE writes one Server-Sent Event with a JSON data line.
func writeSSE(w io.Writer, id, eventType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	if id != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
	return err
}
