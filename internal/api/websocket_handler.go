package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/phrazzld/concentration/internal/config"
	"github.com/phrazzld/concentration/internal/domain"
	"github.com/phrazzld/concentration/internal/events"
	"github.com/phrazzld/concentration/internal/platform/logger"
	"github.com/phrazzld/concentration/internal/service"
)

// Client message types
const (
	ClientTypeSelect  = "select"
	ClientTypeRefresh = "refresh"
	ClientTypeState   = "state"
)

// Server message types sent alongside render events
const (
	ServerTypeState    = StreamTypeState
	ServerTypeDecision = "decision"
	ServerTypeError    = "error"
)

// maxClientMessageBytes bounds a single client frame
const maxClientMessageBytes = 512

// ClientMessage is a command sent by the player over the WebSocket.
type ClientMessage struct {
	Type   string `json:"type"`
	CardID *int   `json:"card_id,omitempty"`
}

// ServerMessage is a reply to a command, or a state snapshot. Render events
// are sent as events.Event and share the "type" discriminator.
type ServerMessage struct {
	Type     string             `json:"type"`
	Decision string             `json:"decision,omitempty"`
	Accepted *bool              `json:"accepted,omitempty"`
	State    *GameStateResponse `json:"state,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// WebSocketHandler lets a player drive a game and watch it over one
// WebSocket connection.
type WebSocketHandler struct {
	games    service.GameService
	cfg      config.StreamConfig
	clock    clockwork.Clock
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler. A nil clock means the
// real one.
func NewWebSocketHandler(
	games service.GameService,
	cfg config.StreamConfig,
	clock clockwork.Clock,
	logger *slog.Logger,
) *WebSocketHandler {
	if games == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("game service cannot be nil for WebSocketHandler")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &WebSocketHandler{
		games: games,
		cfg:   cfg,
		clock: clock,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Access is granted by the game token, not the page origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "websocket_handler")),
	}
}

// wsConn is one upgraded connection. Only writePump writes to conn.
type wsConn struct {
	h       *WebSocketHandler
	conn    *websocket.Conn
	gameID  uuid.UUID
	sub     *events.Subscription
	replies chan ServerMessage
	log     *slog.Logger

	// done is closed when readPump returns, stopped when writePump returns
	done    chan struct{}
	stopped chan struct{}
}

// ServeWS handles GET /api/games/{id}/ws
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	gameID, ok := handleGameID(w, r, h.logger)
	if !ok {
		return
	}
	log := logger.FromContextOrDefault(r.Context(), h.logger).
		With(slog.String("game_id", gameID.String()))

	sub, err := h.games.Subscribe(r.Context(), gameID, h.cfg.EventBuffer)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to open game connection")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		sub.Close()
		log.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &wsConn{
		h:       h,
		conn:    conn,
		gameID:  gameID,
		sub:     sub,
		replies: make(chan ServerMessage, 8),
		log:     log,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	// The request context is not tied to the hijacked connection.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	c.reply(ctx, c.snapshot(ctx))
	log.Debug("websocket connected")

	go c.writePump()
	c.readPump(ctx)

	close(c.done)
	<-c.stopped
	sub.Close()
	log.Debug("websocket disconnected")
}

// readPump executes client commands until the connection fails.
func (c *wsConn) readPump(ctx context.Context) {
	pongWait := 2 * c.h.cfg.PingInterval

	c.conn.SetReadLimit(maxClientMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("unexpected websocket close", slog.String("error", err.Error()))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(ctx, ServerMessage{Type: ServerTypeError, Error: "Invalid message"})
			continue
		}
		if !c.reply(ctx, c.handle(ctx, msg)) {
			return
		}
	}
}

// handle runs one client command and builds its reply.
func (c *wsConn) handle(ctx context.Context, msg ClientMessage) ServerMessage {
	switch msg.Type {
	case ClientTypeSelect:
		if msg.CardID == nil || !domain.ValidCardID(*msg.CardID) {
			return ServerMessage{Type: ServerTypeError, Error: "Invalid card ID"}
		}
		decision, state, err := c.h.games.SelectCard(ctx, c.gameID, *msg.CardID)
		if err != nil {
			return c.errorMessage(err)
		}
		accepted := decision.Accepted()
		resp := newGameStateResponse(state)
		return ServerMessage{
			Type:     ServerTypeDecision,
			Decision: string(decision),
			Accepted: &accepted,
			State:    &resp,
		}

	case ClientTypeRefresh:
		state, err := c.h.games.ResetGame(ctx, c.gameID)
		if err != nil {
			return c.errorMessage(err)
		}
		resp := newGameStateResponse(state)
		return ServerMessage{Type: ServerTypeState, State: &resp}

	case ClientTypeState:
		return c.snapshot(ctx)

	default:
		return ServerMessage{Type: ServerTypeError, Error: "Unknown message type"}
	}
}

func (c *wsConn) snapshot(ctx context.Context) ServerMessage {
	state, err := c.h.games.GetGame(ctx, c.gameID)
	if err != nil {
		return c.errorMessage(err)
	}
	resp := newGameStateResponse(state)
	return ServerMessage{Type: ServerTypeState, State: &resp}
}

func (c *wsConn) errorMessage(err error) ServerMessage {
	if MapErrorToStatusCode(err) >= http.StatusInternalServerError {
		c.log.Warn("websocket command failed", slog.String("error", err.Error()))
	}
	return ServerMessage{Type: ServerTypeError, Error: GetSafeErrorMessage(err)}
}

// reply queues msg for writePump. It returns false once the connection is
// shutting down.
func (c *wsConn) reply(ctx context.Context, msg ServerMessage) bool {
	select {
	case c.replies <- msg:
		return true
	case <-c.stopped:
		return false
	case <-ctx.Done():
		return false
	}
}

// writePump owns every write to the connection. It closes the connection
// when it stops, which ends readPump.
func (c *wsConn) writePump() {
	ping := c.h.clock.NewTicker(c.h.cfg.PingInterval)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
		close(c.stopped)
	}()

	var dropped int64
	for {
		select {
		case <-c.done:
			return

		case msg := <-c.replies:
			if !c.write(msg) {
				return
			}

		case event, ok := <-c.sub.C:
			if !ok {
				// The game ended or was evicted.
				_ = c.conn.SetWriteDeadline(time.Now().Add(c.h.cfg.WriteTimeout))
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game ended"))
				return
			}
			if !c.write(event) {
				return
			}
			if missed := c.sub.Dropped(); missed > dropped {
				dropped = missed
				if !c.write(c.snapshot(context.Background())) {
					return
				}
			}

		case <-ping.Chan():
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.h.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("failed to send ping", slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (c *wsConn) write(v interface{}) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.h.cfg.WriteTimeout))
	if err := c.conn.WriteJSON(v); err != nil {
		if !errors.Is(err, websocket.ErrCloseSent) {
			c.log.Debug("failed to write websocket message", slog.String("error", err.Error()))
		}
		return false
	}
	return true
}
