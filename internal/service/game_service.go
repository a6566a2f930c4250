package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/phrazzld/concentration/internal/domain"
	"github.com/phrazzld/concentration/internal/domain/game"
	"github.com/phrazzld/concentration/internal/events"
	"github.com/phrazzld/concentration/internal/platform/logger"
	"github.com/phrazzld/concentration/internal/task"
)

// GameService defines the operations available on hosted games.
type GameService interface {
	// CreateGame deals a new game and returns its id and initial state
	CreateGame(ctx context.Context) (uuid.UUID, game.State, error)

	// GetGame returns the current state of a game
	GetGame(ctx context.Context, gameID uuid.UUID) (game.State, error)

	// ResetGame reshuffles the deck and returns the game to idle
	ResetGame(ctx context.Context, gameID uuid.UUID) (game.State, error)

	// SelectCard flips a card. Rejected selections are reported through the
	// Decision, never as errors.
	SelectCard(ctx context.Context, gameID uuid.UUID, cardID int) (game.Decision, game.State, error)

	// EndGame discards a game and closes its event subscriptions
	EndGame(ctx context.Context, gameID uuid.UUID) error

	// Subscribe returns a subscription to the render events of a game
	Subscribe(ctx context.Context, gameID uuid.UUID, buffer int) (*events.Subscription, error)

	// ActiveGames reports how many games are hosted
	ActiveGames() int

	// Close ends every game and stops the idle sweeper
	Close()
}

// Subscriber fans events out to per-game subscriptions
type Subscriber interface {
	Subscribe(gameID uuid.UUID, buffer int) *events.Subscription
	CloseGame(gameID uuid.UUID)
	Subscribers(gameID uuid.UUID) int
}

// GameServiceConfig bounds and times the hosted games
type GameServiceConfig struct {
	// Params is the timing of every round
	Params game.Params

	// MaxGames is the most games hosted at once
	MaxGames int

	// IdleTTL is how long a game may go without a command before it is evicted
	IdleTTL time.Duration

	// SweepInterval is how often idle games are looked for. Zero disables the sweeper.
	SweepInterval time.Duration

	// QueueSize is the capacity of each game's command queue
	QueueSize int
}

// Validate checks the configuration
func (c GameServiceConfig) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if c.MaxGames <= 0 {
		return fmt.Errorf("%w: max games must be positive", domain.ErrValidation)
	}
	if c.IdleTTL <= 0 {
		return fmt.Errorf("%w: idle ttl must be positive", domain.ErrValidation)
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("%w: sweep interval cannot be negative", domain.ErrValidation)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue size must be positive", domain.ErrValidation)
	}
	return nil
}

// Option customizes a game service
type Option func(*gameServiceImpl)

// WithClock drives game timers and idle tracking from clock instead of the
// real clock.
func WithClock(clock clockwork.Clock) Option {
	return func(s *gameServiceImpl) {
		s.clock = clock
	}
}

// WithRandFactory sets the source of randomness for each new game's deck.
func WithRandFactory(factory func() *rand.Rand) Option {
	return func(s *gameServiceImpl) {
		s.newRand = factory
	}
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	cfg        GameServiceConfig
	emitter    events.EventEmitter
	subscriber Subscriber
	clock      clockwork.Clock
	newRand    func() *rand.Rand
	logger     *slog.Logger

	mu     sync.RWMutex
	games  map[uuid.UUID]*hostedGame
	closed bool

	stopSweep chan struct{}
	wg        sync.WaitGroup
}

var _ GameService = (*gameServiceImpl)(nil)

// NewGameService creates a GameService and starts its idle sweeper.
// It returns an error if the configuration is invalid or any of the required
// dependencies are nil.
func NewGameService(
	cfg GameServiceConfig,
	emitter events.EventEmitter,
	subscriber Subscriber,
	logger *slog.Logger,
	opts ...Option,
) (GameService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if emitter == nil {
		return nil, fmt.Errorf("%w: emitter cannot be nil", domain.ErrValidation)
	}
	if subscriber == nil {
		return nil, fmt.Errorf("%w: subscriber cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &gameServiceImpl{
		cfg:        cfg,
		emitter:    emitter,
		subscriber: subscriber,
		clock:      clockwork.NewRealClock(),
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		logger:    logger.With(slog.String("component", "game_service")),
		games:     make(map[uuid.UUID]*hostedGame),
		stopSweep: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.SweepInterval > 0 {
		// The ticker is created before returning so a fake clock sees it.
		ticker := s.clock.NewTicker(cfg.SweepInterval)
		s.wg.Add(1)
		go s.sweepLoop(ticker)
	}

	return s, nil
}

// CreateGame implements GameService.CreateGame
func (s *gameServiceImpl) CreateGame(ctx context.Context) (uuid.UUID, game.State, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.checkCapacity(); err != nil {
		return uuid.Nil, game.State{}, err
	}

	id := uuid.New()
	gameLogger := s.logger.With(slog.String("game_id", id.String()))
	exec := task.NewSerialExecutor(s.cfg.QueueSize, gameLogger)
	g := &hostedGame{id: id, exec: exec}

	view := &eventView{gameID: id, emitter: s.emitter, logger: gameLogger}
	scheduler := task.NewClockScheduler(s.clock, exec, gameLogger)

	var (
		state game.State
		err   error
	)
	callErr := exec.Call(ctx, func() {
		g.session, err = game.NewSession(s.cfg.Params, scheduler, view, s.newRand())
		if err == nil {
			state = g.session.State()
		}
	})
	if callErr != nil || err != nil {
		exec.Stop()
		if callErr != nil {
			err = callErr
		}
		log.Error("failed to start game", slog.String("error", err.Error()))
		return uuid.Nil, game.State{}, NewGameServiceError("create_game", "failed to start session", err)
	}
	s.touch(g)

	s.mu.Lock()
	if s.closed || len(s.games) >= s.cfg.MaxGames {
		closed := s.closed
		s.mu.Unlock()
		s.shutdown(g)
		if closed {
			return uuid.Nil, game.State{}, ErrServiceClosed
		}
		return uuid.Nil, game.State{}, ErrTooManyGames
	}
	s.games[id] = g
	active := len(s.games)
	s.mu.Unlock()

	log.Info("game created",
		slog.String("game_id", id.String()),
		slog.Int("active_games", active))

	return id, state, nil
}

// GetGame implements GameService.GetGame
func (s *gameServiceImpl) GetGame(ctx context.Context, gameID uuid.UUID) (game.State, error) {
	var state game.State
	err := s.run(ctx, "get_game", gameID, func(session *game.Session) {
		state = session.State()
	})
	return state, err
}

// ResetGame implements GameService.ResetGame
func (s *gameServiceImpl) ResetGame(ctx context.Context, gameID uuid.UUID) (game.State, error) {
	var state game.State
	err := s.run(ctx, "reset_game", gameID, func(session *game.Session) {
		session.Reset()
		state = session.State()
	})
	if err == nil {
		logger.FromContextOrDefault(ctx, s.logger).Debug("game reset",
			slog.String("game_id", gameID.String()),
			slog.Uint64("round", state.Round))
	}
	return state, err
}

// SelectCard implements GameService.SelectCard
func (s *gameServiceImpl) SelectCard(
	ctx context.Context,
	gameID uuid.UUID,
	cardID int,
) (game.Decision, game.State, error) {
	var (
		decision game.Decision
		state    game.State
	)
	err := s.run(ctx, "select_card", gameID, func(session *game.Session) {
		decision = session.SelectCard(cardID)
		state = session.State()
	})
	if err != nil {
		return "", game.State{}, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("card selected",
		slog.String("game_id", gameID.String()),
		slog.Int("card_id", cardID),
		slog.String("decision", string(decision)))

	return decision, state, nil
}

// EndGame implements GameService.EndGame
func (s *gameServiceImpl) EndGame(ctx context.Context, gameID uuid.UUID) error {
	s.mu.Lock()
	g, ok := s.games[gameID]
	if ok {
		delete(s.games, gameID)
	}
	s.mu.Unlock()

	if !ok {
		return ErrGameNotFound
	}

	s.shutdown(g)
	logger.FromContextOrDefault(ctx, s.logger).Info("game ended",
		slog.String("game_id", gameID.String()))
	return nil
}

// Subscribe implements GameService.Subscribe
func (s *gameServiceImpl) Subscribe(
	ctx context.Context,
	gameID uuid.UUID,
	buffer int,
) (*events.Subscription, error) {
	g, err := s.lookup(gameID)
	if err != nil {
		return nil, err
	}
	s.touch(g)

	sub := s.subscriber.Subscribe(gameID, buffer)

	// A game ended between the lookup and Subscribe has already had its
	// subscriptions closed, so this one would never be.
	if _, err := s.lookup(gameID); err != nil {
		sub.Close()
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("subscribed to game",
		slog.String("game_id", gameID.String()),
		slog.Int("subscribers", s.subscriber.Subscribers(gameID)))
	return sub, nil
}

// ActiveGames implements GameService.ActiveGames
func (s *gameServiceImpl) ActiveGames() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// Close implements GameService.Close
func (s *gameServiceImpl) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	games := s.games
	s.games = make(map[uuid.UUID]*hostedGame)
	s.mu.Unlock()

	close(s.stopSweep)
	s.wg.Wait()

	for _, g := range games {
		s.shutdown(g)
	}
	s.logger.Info("game service closed", slog.Int("ended_games", len(games)))
}

// run applies fn to the game's session on the game's executor.
func (s *gameServiceImpl) run(
	ctx context.Context,
	operation string,
	gameID uuid.UUID,
	fn func(session *game.Session),
) error {
	g, err := s.lookup(gameID)
	if err != nil {
		return err
	}
	s.touch(g)

	err = g.exec.Call(ctx, func() { fn(g.session) })
	switch {
	case err == nil:
		return nil
	case errors.Is(err, task.ErrQueueClosed):
		// Ended while the command was in flight.
		return ErrGameNotFound
	default:
		logger.FromContextOrDefault(ctx, s.logger).Warn("game command failed",
			slog.String("game_id", gameID.String()),
			slog.String("operation", operation),
			slog.String("error", err.Error()))
		return NewGameServiceError(operation, "failed to run game command", err)
	}
}

func (s *gameServiceImpl) lookup(gameID uuid.UUID) (*hostedGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrServiceClosed
	}
	g, ok := s.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

func (s *gameServiceImpl) checkCapacity() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrServiceClosed
	}
	if len(s.games) >= s.cfg.MaxGames {
		return ErrTooManyGames
	}
	return nil
}

func (s *gameServiceImpl) touch(g *hostedGame) {
	g.lastActive.Store(s.clock.Now().UnixNano())
}

// shutdown drains and stops the executor, stops the session and closes the
// game's subscriptions. The game must already be out of the map.
func (s *gameServiceImpl) shutdown(g *hostedGame) {
	g.exec.Stop()
	// The executor's worker has exited, so the session is ours to touch.
	if g.session != nil {
		g.session.Stop()
	}
	s.subscriber.CloseGame(g.id)
}

func (s *gameServiceImpl) sweepLoop(ticker clockwork.Ticker) {
	defer s.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-s.stopSweep:
			return
		case <-ticker.Chan():
			s.sweepIdle()
		}
	}
}

// sweepIdle evicts games idle for longer than IdleTTL and returns how many
// were evicted.
func (s *gameServiceImpl) sweepIdle() int {
	cutoff := s.clock.Now().Add(-s.cfg.IdleTTL).UnixNano()

	s.mu.Lock()
	var idle []*hostedGame
	for id, g := range s.games {
		if g.lastActive.Load() < cutoff {
			idle = append(idle, g)
			delete(s.games, id)
		}
	}
	s.mu.Unlock()

	for _, g := range idle {
		s.shutdown(g)
		s.logger.Info("evicted idle game", slog.String("game_id", g.id.String()))
	}
	return len(idle)
}
