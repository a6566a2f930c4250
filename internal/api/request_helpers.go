package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/concentration/internal/api/middleware"
	"github.com/phrazzld/concentration/internal/api/shared"
	"github.com/phrazzld/concentration/internal/platform/logger"
)

// handleGameID returns the game authorized by the auth middleware. It writes
// a 401 and returns false when the request never passed through it.
func handleGameID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	if log == nil {
		log = logger.FromContext(r.Context())
	}

	gameID, ok := middleware.GetGameID(r)
	if !ok {
		log.Warn("game ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Game token required")
		return uuid.Nil, false
	}
	return gameID, true
}

// parseAndValidateRequest decodes the JSON body into v and validates it,
// writing a 400 on failure.
func parseAndValidateRequest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		HandleValidationError(w, r, err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		HandleValidationError(w, r, err)
		return false
	}
	return true
}
