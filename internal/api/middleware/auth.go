package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/concentration/internal/api/shared"
	"github.com/phrazzld/concentration/internal/platform/logger"
	"github.com/phrazzld/concentration/internal/service/auth"
)

// GameIDParam is the chi URL parameter naming the game a request targets.
const GameIDParam = "id"

// TokenQueryParam carries the game token for clients that cannot set headers,
// such as browser EventSource and WebSocket.
const TokenQueryParam = "token"

// AuthMiddleware authorizes requests against a single hosted game.
type AuthMiddleware struct {
	jwtService auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// Authenticate requires a game token naming the game in the {id} URL
// parameter. The token comes from the Authorization header or, failing that,
// the token query parameter. Authorized requests get the game ID in context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		token, err := extractToken(r)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Game token required", err)
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Token expired", err)
			case errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrTokenNotYetValid),
				errors.Is(err, auth.ErrWrongTokenType):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid token", err)
			default:
				shared.RespondWithErrorAndLog(
					w,
					r,
					http.StatusInternalServerError,
					"Authentication error",
					err,
				)
			}
			return
		}

		gameID, err := uuid.Parse(chi.URLParam(r, GameIDParam))
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid game ID")
			return
		}

		if claims.GameID != gameID {
			log.Warn("token presented for another game",
				slog.String("game_id", gameID.String()),
				slog.String("token_game_id", claims.GameID.String()))
			shared.RespondWithError(w, r, http.StatusForbidden, "Token does not grant access to this game")
			return
		}

		ctx := shared.SetGameID(r.Context(), gameID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetGameID extracts the authorized game ID from the request context.
// Returns the game ID and a boolean indicating if it was found.
func GetGameID(r *http.Request) (uuid.UUID, bool) {
	return shared.GetGameID(r.Context())
}

func extractToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", auth.ErrInvalidToken
		}
		return parts[1], nil
	}

	if token := r.URL.Query().Get(TokenQueryParam); token != "" {
		return token, nil
	}

	return "", auth.ErrMissingToken
}
