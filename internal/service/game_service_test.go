package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/phrazzld/concentration/internal/domain"
	"github.com/phrazzld/concentration/internal/domain/game"
	"github.com/phrazzld/concentration/internal/events"
	"github.com/phrazzld/concentration/internal/platform/logger"
	"github.com/phrazzld/concentration/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	poll    = 5 * time.Millisecond
)

type testService struct {
	GameService
	clock *clockwork.FakeClock
	hub   *events.Hub
}

func defaultTestConfig() GameServiceConfig {
	return GameServiceConfig{
		Params:        game.NewDefaultParams(),
		MaxGames:      10,
		IdleTTL:       time.Minute,
		SweepInterval: 0,
		QueueSize:     64,
	}
}

func newTestService(t *testing.T, mutate func(cfg *GameServiceConfig)) *testService {
	t.Helper()

	cfg := defaultTestConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	log, _ := logger.NewTestLogger(t)
	clock := clockwork.NewFakeClock()
	hub := events.NewHub(log)
	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(hub)

	var seed int64
	var seedMu sync.Mutex
	svc, err := NewGameService(cfg, emitter, hub, log,
		WithClock(clock),
		WithRandFactory(func() *rand.Rand {
			seedMu.Lock()
			defer seedMu.Unlock()
			seed++
			return rand.New(rand.NewSource(seed))
		}),
	)
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	return &testService{GameService: svc, clock: clock, hub: hub}
}

// pairs groups card ids by face value
func pairs(state game.State) map[domain.FaceValue][]int {
	out := make(map[domain.FaceValue][]int)
	for _, c := range state.Cards {
		out[c.Face] = append(out[c.Face], c.ID)
	}
	return out
}

func nextEvent(t *testing.T, sub *events.Subscription) *events.Event {
	t.Helper()
	select {
	case event, ok := <-sub.C:
		require.True(t, ok, "subscription closed")
		return event
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestNewGameServiceValidation(t *testing.T) {
	t.Parallel()

	log, _ := logger.NewTestLogger(t)
	hub := events.NewHub(log)
	emitter := events.NewInMemoryEventEmitter(log)

	tests := []struct {
		name    string
		mutate  func(cfg *GameServiceConfig)
		emitter events.EventEmitter
		hub     Subscriber
	}{
		{"invalid params", func(cfg *GameServiceConfig) { cfg.Params.TimeLimit = 0 }, emitter, hub},
		{"zero max games", func(cfg *GameServiceConfig) { cfg.MaxGames = 0 }, emitter, hub},
		{"zero idle ttl", func(cfg *GameServiceConfig) { cfg.IdleTTL = 0 }, emitter, hub},
		{"negative sweep", func(cfg *GameServiceConfig) { cfg.SweepInterval = -time.Second }, emitter, hub},
		{"zero queue", func(cfg *GameServiceConfig) { cfg.QueueSize = 0 }, emitter, hub},
		{"nil emitter", func(cfg *GameServiceConfig) {}, nil, hub},
		{"nil subscriber", func(cfg *GameServiceConfig) {}, emitter, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultTestConfig()
			tt.mutate(&cfg)

			svc, err := NewGameService(cfg, tt.emitter, tt.hub, log)
			assert.Error(t, err)
			assert.Nil(t, svc)
		})
	}
}

func TestCreateAndGetGame(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil)
	ctx := context.Background()

	id, state, err := svc.CreateGame(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, game.PhaseIdle, state.Phase)
	assert.Equal(t, 30, state.TimeRemaining)
	require.NoError(t, domain.Deck(state.Cards).Validate())
	assert.Equal(t, 1, svc.ActiveGames())

	got, err := svc.GetGame(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, state, got)

	_, err = svc.GetGame(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestSelectCardMatchAndMismatch(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil)
	ctx := context.Background()

	id, state, err := svc.CreateGame(ctx)
	require.NoError(t, err)
	byFace := pairs(state)

	decision, _, err := svc.SelectCard(ctx, id, byFace[3][0])
	require.NoError(t, err)
	assert.Equal(t, game.DecisionFirstPick, decision)

	decision, state, err = svc.SelectCard(ctx, id, byFace[3][1])
	require.NoError(t, err)
	assert.Equal(t, game.DecisionMatched, decision)
	assert.Equal(t, 1, state.MatchedPairs)
	assert.Equal(t, 2, state.Flips)

	a, c := byFace[1][0], byFace[2][0]
	_, _, err = svc.SelectCard(ctx, id, a)
	require.NoError(t, err)
	decision, state, err = svc.SelectCard(ctx, id, c)
	require.NoError(t, err)
	assert.Equal(t, game.DecisionMismatched, decision)
	assert.True(t, state.InputLocked)

	decision, _, err = svc.SelectCard(ctx, id, byFace[4][0])
	require.NoError(t, err)
	assert.Equal(t, game.DecisionRejectedLocked, decision)

	svc.clock.Advance(1200 * time.Millisecond)
	require.Eventually(t, func() bool {
		s, err := svc.GetGame(ctx, id)
		return err == nil && !s.InputLocked &&
			s.Cards[a].State == domain.CardStateHidden &&
			s.Cards[c].State == domain.CardStateHidden
	}, waitFor, poll)

	state, err = svc.GetGame(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4, state.Flips)
	assert.Equal(t, game.PhaseRunning, state.Phase)
}

func TestTimeoutEndsGame(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, func(cfg *GameServiceConfig) {
		cfg.Params.TimeLimit = 2
	})
	ctx := context.Background()

	id, _, err := svc.CreateGame(ctx)
	require.NoError(t, err)
	_, _, err = svc.SelectCard(ctx, id, 0)
	require.NoError(t, err)

	for remaining := 1; remaining >= 0; remaining-- {
		svc.clock.Advance(time.Second)
		want := remaining
		require.Eventually(t, func() bool {
			s, err := svc.GetGame(ctx, id)
			return err == nil && s.TimeRemaining == want
		}, waitFor, poll)
	}

	state, err := svc.GetGame(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseEnded, state.Phase)
	assert.Equal(t, game.OutcomeTimedOut, state.Outcome)

	decision, _, err := svc.SelectCard(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, game.DecisionRejectedEnded, decision)

	state, err = svc.ResetGame(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseIdle, state.Phase)
	assert.Equal(t, 2, state.TimeRemaining)
}

func TestSubscribeReceivesRenders(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil)
	ctx := context.Background()

	id, state, err := svc.CreateGame(ctx)
	require.NoError(t, err)

	sub, err := svc.Subscribe(ctx, id, 64)
	require.NoError(t, err)
	defer sub.Close()

	_, _, err = svc.SelectCard(ctx, id, 5)
	require.NoError(t, err)

	event := nextEvent(t, sub)
	assert.Equal(t, events.TypeCardRendered, event.Type)
	assert.Equal(t, id, event.GameID)
	var card events.CardRenderedPayload
	require.NoError(t, event.UnmarshalPayload(&card))
	assert.Equal(t, events.CardRenderedPayload{
		CardID:   5,
		State:    string(domain.CardStateRevealed),
		ImageRef: state.Cards[5].Face.ImageRef(),
	}, card)

	event = nextEvent(t, sub)
	assert.Equal(t, events.TypeFlipsRendered, event.Type)
	assert.JSONEq(t, `{"flips":1}`, string(event.Payload))

	_, err = svc.ResetGame(ctx, id)
	require.NoError(t, err)

	for i := 0; i < domain.DeckSize; i++ {
		event = nextEvent(t, sub)
		require.Equal(t, events.TypeCardRendered, event.Type)
		assert.NotContains(t, string(event.Payload), "image_ref", "hidden cards never reveal their face")
	}
	assert.Equal(t, events.TypeTimeRendered, nextEvent(t, sub).Type)
	assert.Equal(t, events.TypeFlipsRendered, nextEvent(t, sub).Type)

	_, err = svc.Subscribe(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestWinEmitsGameEnded(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil)
	ctx := context.Background()

	id, state, err := svc.CreateGame(ctx)
	require.NoError(t, err)
	sub, err := svc.Subscribe(ctx, id, 128)
	require.NoError(t, err)
	defer sub.Close()

	var decision game.Decision
	for _, ids := range pairs(state) {
		_, _, err = svc.SelectCard(ctx, id, ids[0])
		require.NoError(t, err)
		decision, state, err = svc.SelectCard(ctx, id, ids[1])
		require.NoError(t, err)
	}
	assert.Equal(t, game.DecisionWon, decision)
	assert.Equal(t, game.OutcomeWon, state.Outcome)

	var ended *events.Event
	for ended == nil {
		if event := nextEvent(t, sub); event.Type == events.TypeGameEnded {
			ended = event
		}
	}
	assert.JSONEq(t, `{"outcome":"won"}`, string(ended.Payload))
}

func TestEndGame(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil)
	ctx := context.Background()

	id, _, err := svc.CreateGame(ctx)
	require.NoError(t, err)
	_, _, err = svc.SelectCard(ctx, id, 0)
	require.NoError(t, err)
	sub, err := svc.Subscribe(ctx, id, 8)
	require.NoError(t, err)

	require.NoError(t, svc.EndGame(ctx, id))

	_, ok := <-sub.C
	assert.False(t, ok, "subscription closed with the game")
	assert.Zero(t, svc.hub.Subscribers(id))
	assert.Zero(t, svc.ActiveGames())

	_, err = svc.GetGame(ctx, id)
	assert.ErrorIs(t, err, ErrGameNotFound)
	assert.ErrorIs(t, svc.EndGame(ctx, id), ErrGameNotFound)

	// Timers of the ended game no longer matter
	svc.clock.Advance(5 * time.Second)
}

func TestMaxGames(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, func(cfg *GameServiceConfig) {
		cfg.MaxGames = 1
	})
	ctx := context.Background()

	id, _, err := svc.CreateGame(ctx)
	require.NoError(t, err)

	_, _, err = svc.CreateGame(ctx)
	assert.ErrorIs(t, err, ErrTooManyGames)

	require.NoError(t, svc.EndGame(ctx, id))
	_, _, err = svc.CreateGame(ctx)
	assert.NoError(t, err)
}

func TestIdleGamesAreEvicted(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, func(cfg *GameServiceConfig) {
		cfg.IdleTTL = time.Minute
		cfg.SweepInterval = 30 * time.Second
	})
	ctx := context.Background()

	id, _, err := svc.CreateGame(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		svc.clock.Advance(30 * time.Second)
		return svc.ActiveGames() == 0
	}, waitFor, poll)

	_, err = svc.GetGame(ctx, id)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestConcurrentSelections(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil)
	ctx := context.Background()

	id, _, err := svc.CreateGame(ctx)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 24; i++ {
		wg.Add(1)
		go func(cardID int) {
			defer wg.Done()
			decision, _, err := svc.SelectCard(ctx, id, cardID%domain.DeckSize)
			assert.NoError(t, err)
			if decision.Accepted() {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	state, err := svc.GetGame(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, accepted, state.Flips)
	assert.LessOrEqual(t, len(state.Selection), 2)
}

func TestClose(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil)
	ctx := context.Background()

	id, _, err := svc.CreateGame(ctx)
	require.NoError(t, err)
	sub, err := svc.Subscribe(ctx, id, 8)
	require.NoError(t, err)

	svc.Close()
	svc.Close()

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Zero(t, svc.ActiveGames())

	_, _, err = svc.CreateGame(ctx)
	assert.ErrorIs(t, err, ErrServiceClosed)
	_, err = svc.GetGame(ctx, id)
	assert.ErrorIs(t, err, ErrServiceClosed)
}

// TestMismatchResolvesWhenQueueIsFull keeps the game's command queue full
// while the mismatch timers and a countdown tick fire. The callbacks must
// still run once the queue drains.
func TestMismatchResolvesWhenQueueIsFull(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, func(cfg *GameServiceConfig) {
		cfg.QueueSize = 2
	})
	ctx := context.Background()

	id, state, err := svc.CreateGame(ctx)
	require.NoError(t, err)
	byFace := pairs(state)
	a, c := byFace[1][0], byFace[2][0]

	_, _, err = svc.SelectCard(ctx, id, a)
	require.NoError(t, err)
	decision, _, err := svc.SelectCard(ctx, id, c)
	require.NoError(t, err)
	require.Equal(t, game.DecisionMismatched, decision)

	impl, ok := svc.GameService.(*gameServiceImpl)
	require.True(t, ok)
	hosted, err := impl.lookup(id)
	require.NoError(t, err)

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, hosted.exec.Submit(task.TaskTypeGameCommand, func() {
		close(started)
		<-release
	}))
	<-started
	require.NoError(t, hosted.exec.Submit(task.TaskTypeGameCommand, func() {}))
	require.NoError(t, hosted.exec.Submit(task.TaskTypeGameCommand, func() {}))

	// Flash, revert and the first tick all fire against a full queue
	svc.clock.Advance(1200 * time.Millisecond)

	_, _, err = svc.SelectCard(ctx, id, byFace[4][0])
	assert.ErrorIs(t, err, task.ErrQueueFull, "player commands are still refused")

	close(release)
	require.Eventually(t, func() bool {
		s, err := svc.GetGame(ctx, id)
		return err == nil && !s.InputLocked &&
			s.Phase == game.PhaseRunning &&
			len(s.Selection) == 0 &&
			s.Cards[a].State == domain.CardStateHidden &&
			s.Cards[c].State == domain.CardStateHidden &&
			s.TimeRemaining == 29
	}, waitFor, poll)

	decision, _, err = svc.SelectCard(ctx, id, byFace[4][0])
	require.NoError(t, err)
	assert.Equal(t, game.DecisionFirstPick, decision)

	svc.clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		s, err := svc.GetGame(ctx, id)
		return err == nil && s.TimeRemaining == 28
	}, waitFor, poll)
}

// endingSubscriber calls before ahead of every hub subscription
type endingSubscriber struct {
	*events.Hub
	before func(gameID uuid.UUID)
}

func (s *endingSubscriber) Subscribe(gameID uuid.UUID, buffer int) *events.Subscription {
	if s.before != nil {
		s.before(gameID)
	}
	return s.Hub.Subscribe(gameID, buffer)
}

func TestSubscribeToGameEndedMeanwhile(t *testing.T) {
	t.Parallel()

	log, _ := logger.NewTestLogger(t)
	hub := events.NewHub(log)
	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(hub)
	subscriber := &endingSubscriber{Hub: hub}

	svc, err := NewGameService(defaultTestConfig(), emitter, subscriber, log,
		WithClock(clockwork.NewFakeClock()))
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	ctx := context.Background()

	id, _, err := svc.CreateGame(ctx)
	require.NoError(t, err)

	subscriber.before = func(gameID uuid.UUID) {
		assert.NoError(t, svc.EndGame(ctx, gameID))
	}

	sub, err := svc.Subscribe(ctx, id, 8)
	assert.ErrorIs(t, err, ErrGameNotFound)
	assert.Nil(t, sub)
	assert.Zero(t, hub.Subscribers(id), "the late subscription is released")
}

func TestEndGameWithFullQueue(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, func(cfg *GameServiceConfig) {
		cfg.QueueSize = 1
	})
	ctx := context.Background()

	id, _, err := svc.CreateGame(ctx)
	require.NoError(t, err)
	_, _, err = svc.SelectCard(ctx, id, 0)
	require.NoError(t, err)

	impl, ok := svc.GameService.(*gameServiceImpl)
	require.True(t, ok)
	hosted, err := impl.lookup(id)
	require.NoError(t, err)

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, hosted.exec.Submit(task.TaskTypeGameCommand, func() {
		close(started)
		<-release
	}))
	<-started
	require.NoError(t, hosted.exec.Submit(task.TaskTypeGameCommand, func() {}))

	ended := make(chan error, 1)
	go func() { ended <- svc.EndGame(ctx, id) }()
	close(release)

	select {
	case err := <-ended:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("EndGame did not return")
	}

	// The ticker was stopped with the session
	svc.clock.Advance(5 * time.Second)
	assert.Zero(t, svc.ActiveGames())
}
