package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/concentration/internal/api"
	apiMiddleware "github.com/phrazzld/concentration/internal/api/middleware"
	"github.com/phrazzld/concentration/internal/api/shared"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status      string `json:"status"`
	ActiveGames int    `json:"active_games"`
}

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	gameHandler := api.NewGameHandler(app.games, app.jwtService, app.logger)
	streamHandler := api.NewStreamHandler(app.games, app.config.Stream, app.clock, app.logger)
	wsHandler := api.NewWebSocketHandler(app.games, app.config.Stream, app.clock, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api/games", func(r chi.Router) {
		// Creating a game is public; it hands out the token for the rest.
		r.Post("/", gameHandler.CreateGame)

		r.Route("/{"+apiMiddleware.GameIDParam+"}", func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/", gameHandler.GetGame)
			r.Delete("/", gameHandler.EndGame)
			r.Post("/reset", gameHandler.ResetGame)
			r.Post("/select", gameHandler.SelectCard)

			// Event streams
			r.Get("/events", streamHandler.StreamEvents)
			r.Get("/ws", wsHandler.ServeWS)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
			Status:      "ok",
			ActiveGames: app.games.ActiveGames(),
		})
	})

	return r
}
