package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/concentration/internal/api/shared"
	"github.com/phrazzld/concentration/internal/platform/logger"
	"github.com/phrazzld/concentration/internal/service"
	"github.com/phrazzld/concentration/internal/service/auth"
)

// GameHandler handles the request/response endpoints of hosted games
type GameHandler struct {
	games  service.GameService
	tokens auth.JWTService
	logger *slog.Logger
}

// NewGameHandler creates a new GameHandler
func NewGameHandler(
	games service.GameService,
	tokens auth.JWTService,
	logger *slog.Logger,
) *GameHandler {
	if games == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("game service cannot be nil for GameHandler")
	}
	if tokens == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("jwt service cannot be nil for GameHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GameHandler{
		games:  games,
		tokens: tokens,
		logger: logger.With(slog.String("component", "game_handler")),
	}
}

// CreateGame handles POST /api/games.
// It deals a new game and returns it with the token that controls it.
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	gameID, state, err := h.games.CreateGame(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create game")
		return
	}

	token, err := h.tokens.GenerateToken(r.Context(), gameID)
	if err != nil {
		// Nobody could ever control the game, so don't keep it.
		if endErr := h.games.EndGame(r.Context(), gameID); endErr != nil {
			log.Warn("failed to discard game after token failure",
				slog.String("game_id", gameID.String()),
				slog.String("error", endErr.Error()))
		}
		HandleAPIError(w, r, err, "Failed to create game")
		return
	}

	log.Debug("game created", slog.String("game_id", gameID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, CreateGameResponse{
		GameID: gameID,
		Token:  token,
		State:  newGameStateResponse(state),
	})
}

// GetGame handles GET /api/games/{id}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := handleGameID(w, r, h.logger)
	if !ok {
		return
	}

	state, err := h.games.GetGame(r.Context(), gameID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get game")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newGameStateResponse(state))
}

// ResetGame handles POST /api/games/{id}/reset.
// It reshuffles the deck and starts a fresh round.
func (h *GameHandler) ResetGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := handleGameID(w, r, h.logger)
	if !ok {
		return
	}

	state, err := h.games.ResetGame(r.Context(), gameID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to reset game")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newGameStateResponse(state))
}

// SelectCard handles POST /api/games/{id}/select.
// Ignored selections still answer 200; the decision says why.
func (h *GameHandler) SelectCard(w http.ResponseWriter, r *http.Request) {
	gameID, ok := handleGameID(w, r, h.logger)
	if !ok {
		return
	}

	var req SelectCardRequest
	if !parseAndValidateRequest(w, r, &req) {
		return
	}

	decision, state, err := h.games.SelectCard(r.Context(), gameID, *req.CardID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to select card")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SelectCardResponse{
		Decision: string(decision),
		Accepted: decision.Accepted(),
		State:    newGameStateResponse(state),
	})
}

// EndGame handles DELETE /api/games/{id}
func (h *GameHandler) EndGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := handleGameID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.games.EndGame(r.Context(), gameID); err != nil {
		HandleAPIError(w, r, err, "Failed to end game")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
