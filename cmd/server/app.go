package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/phrazzld/concentration/internal/config"
	"github.com/phrazzld/concentration/internal/domain/game"
	"github.com/phrazzld/concentration/internal/events"
	"github.com/phrazzld/concentration/internal/service"
	"github.com/phrazzld/concentration/internal/service/auth"
)

// application holds all application dependencies and configuration
type application struct {
	config *config.Config
	logger *slog.Logger
	clock  clockwork.Clock

	// Service interfaces
	jwtService auth.JWTService
	games      service.GameService

	// Event system
	eventEmitter *events.InMemoryEventEmitter
	hub          *events.Hub
}

// newApplication creates a new application instance with all dependencies
// initialized, running on the real clock. Extra options are passed to the
// game service.
func newApplication(
	cfg *config.Config,
	logger *slog.Logger,
	opts ...service.Option,
) (*application, error) {
	return newApplicationWithClock(cfg, logger, clockwork.NewRealClock(), opts...)
}

// newApplicationWithClock is newApplication with clock driving game timers
// and stream pings.
func newApplicationWithClock(
	cfg *config.Config,
	logger *slog.Logger,
	clock clockwork.Clock,
	opts ...service.Option,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		clock:  clock,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("game token service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Renders flow from the games through the emitter to the hub, which fans
	// them out to stream subscribers.
	app.hub = events.NewHub(logger)
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(app.hub)
	app.eventEmitter.RegisterHandler(events.EventHandlerFunc(app.logGameEnded), events.TypeGameEnded)

	opts = append([]service.Option{service.WithClock(clock)}, opts...)
	app.games, err = service.NewGameService(
		gameServiceConfig(cfg),
		app.eventEmitter,
		app.hub,
		logger,
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create game service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// logGameEnded records how each round finished.
func (app *application) logGameEnded(ctx context.Context, event *events.Event) error {
	var payload events.GameEndedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("decode game_ended payload: %w", err)
	}
	app.logger.Info("round ended",
		"game_id", event.GameID,
		"outcome", payload.Outcome)
	return nil
}

// gameServiceConfig maps the loaded configuration onto the game service.
func gameServiceConfig(cfg *config.Config) service.GameServiceConfig {
	return service.GameServiceConfig{
		Params: game.Params{
			TimeLimit:    cfg.Game.TimeLimit,
			TickInterval: cfg.Game.TickInterval,
			FlashDelay:   cfg.Game.FlashDelay,
			RevertDelay:  cfg.Game.RevertDelay,
		},
		MaxGames:      cfg.Sessions.MaxGames,
		IdleTTL:       cfg.Sessions.IdleTTL,
		SweepInterval: cfg.Sessions.SweepInterval,
		QueueSize:     cfg.Sessions.QueueSize,
	}
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup ends every hosted game, which also closes their event streams.
func (app *application) cleanup() {
	start := time.Now()
	if app.games != nil {
		app.games.Close()
	}
	app.logger.Info("Application shutdown completed", "duration", time.Since(start))
}
