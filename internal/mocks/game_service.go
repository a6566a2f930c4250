package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/concentration/internal/domain/game"
	"github.com/phrazzld/concentration/internal/events"
	"github.com/phrazzld/concentration/internal/service"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Custom behavior functions
	CreateGameFn func(ctx context.Context) (uuid.UUID, game.State, error)
	GetGameFn    func(ctx context.Context, gameID uuid.UUID) (game.State, error)
	ResetGameFn  func(ctx context.Context, gameID uuid.UUID) (game.State, error)
	SelectCardFn func(ctx context.Context, gameID uuid.UUID, cardID int) (game.Decision, game.State, error)
	EndGameFn    func(ctx context.Context, gameID uuid.UUID) error
	SubscribeFn  func(ctx context.Context, gameID uuid.UUID, buffer int) (*events.Subscription, error)

	// Default response values
	GameID   uuid.UUID
	State    game.State
	Decision game.Decision
	Err      error
	Active   int

	mu    sync.Mutex
	calls []Call
}

// Call records one invocation of the mock
type Call struct {
	Method string
	GameID uuid.UUID
	CardID int
}

var _ service.GameService = (*MockGameService)(nil)

// MockOption configures a MockGameService
type MockOption func(*MockGameService)

// WithGameID sets the id returned by CreateGame
func WithGameID(id uuid.UUID) MockOption {
	return func(m *MockGameService) {
		m.GameID = id
	}
}

// WithState sets the state returned by every state-returning method
func WithState(state game.State) MockOption {
	return func(m *MockGameService) {
		m.State = state
	}
}

// WithDecision sets the decision returned by SelectCard
func WithDecision(decision game.Decision) MockOption {
	return func(m *MockGameService) {
		m.Decision = decision
	}
}

// WithError sets the default error returned by every method
func WithError(err error) MockOption {
	return func(m *MockGameService) {
		m.Err = err
	}
}

// NewMockGameService creates a new MockGameService with the given options
func NewMockGameService(opts ...MockOption) *MockGameService {
	m := &MockGameService{GameID: uuid.New()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewMockGameServiceWithGameNotFound returns a mock for which no game exists
func NewMockGameServiceWithGameNotFound() *MockGameService {
	return NewMockGameService(WithError(service.ErrGameNotFound))
}

func (m *MockGameService) record(call Call) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// Calls returns a copy of the recorded calls
func (m *MockGameService) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount reports how many times method was called
func (m *MockGameService) CallCount(method string) int {
	n := 0
	for _, c := range m.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears the recorded calls
func (m *MockGameService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// CreateGame implements service.GameService
func (m *MockGameService) CreateGame(ctx context.Context) (uuid.UUID, game.State, error) {
	m.record(Call{Method: "CreateGame"})
	if m.CreateGameFn != nil {
		return m.CreateGameFn(ctx)
	}
	if m.Err != nil {
		return uuid.Nil, game.State{}, m.Err
	}
	return m.GameID, m.State, nil
}

// GetGame implements service.GameService
func (m *MockGameService) GetGame(ctx context.Context, gameID uuid.UUID) (game.State, error) {
	m.record(Call{Method: "GetGame", GameID: gameID})
	if m.GetGameFn != nil {
		return m.GetGameFn(ctx, gameID)
	}
	return m.State, m.Err
}

// ResetGame implements service.GameService
func (m *MockGameService) ResetGame(ctx context.Context, gameID uuid.UUID) (game.State, error) {
	m.record(Call{Method: "ResetGame", GameID: gameID})
	if m.ResetGameFn != nil {
		return m.ResetGameFn(ctx, gameID)
	}
	return m.State, m.Err
}

// SelectCard implements service.GameService
func (m *MockGameService) SelectCard(
	ctx context.Context,
	gameID uuid.UUID,
	cardID int,
) (game.Decision, game.State, error) {
	m.record(Call{Method: "SelectCard", GameID: gameID, CardID: cardID})
	if m.SelectCardFn != nil {
		return m.SelectCardFn(ctx, gameID, cardID)
	}
	if m.Err != nil {
		return "", game.State{}, m.Err
	}
	return m.Decision, m.State, nil
}

// EndGame implements service.GameService
func (m *MockGameService) EndGame(ctx context.Context, gameID uuid.UUID) error {
	m.record(Call{Method: "EndGame", GameID: gameID})
	if m.EndGameFn != nil {
		return m.EndGameFn(ctx, gameID)
	}
	return m.Err
}

// Subscribe implements service.GameService. Without SubscribeFn it fails
// with ErrGameNotFound unless Err says otherwise.
func (m *MockGameService) Subscribe(
	ctx context.Context,
	gameID uuid.UUID,
	buffer int,
) (*events.Subscription, error) {
	m.record(Call{Method: "Subscribe", GameID: gameID})
	if m.SubscribeFn != nil {
		return m.SubscribeFn(ctx, gameID, buffer)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return nil, service.ErrGameNotFound
}

// ActiveGames implements service.GameService
func (m *MockGameService) ActiveGames() int {
	return m.Active
}

// Close implements service.GameService
func (m *MockGameService) Close() {
	m.record(Call{Method: "Close"})
}
