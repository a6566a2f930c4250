package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultSubscriptionBuffer is used when Subscribe is given a non-positive buffer
const DefaultSubscriptionBuffer = 64

// Hub fans events out to per-game subscriptions. Delivery never blocks the
// emitter: a subscriber whose buffer is full misses the event and should
// resynchronize from a full state snapshot.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[*Subscription]struct{}
	logger *slog.Logger
}

var _ EventHandler = (*Hub)(nil)

// NewHub creates an empty Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[uuid.UUID]map[*Subscription]struct{}),
		logger: logger.With("component", "event_hub"),
	}
}

// Subscription receives the events of one game on C until it is closed,
// either by Close or by the hub closing the game.
type Subscription struct {
	C <-chan *Event

	hub     *Hub
	gameID  uuid.UUID
	ch      chan *Event
	once    sync.Once
	dropped atomic.Int64
}

// Subscribe registers a new subscription for gameID
func (h *Hub) Subscribe(gameID uuid.UUID, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultSubscriptionBuffer
	}

	ch := make(chan *Event, buffer)
	sub := &Subscription{C: ch, hub: h, gameID: gameID, ch: ch}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[gameID] == nil {
		h.subs[gameID] = make(map[*Subscription]struct{})
	}
	h.subs[gameID][sub] = struct{}{}

	h.logger.Debug("subscription added", "game_id", gameID, "subscribers", len(h.subs[gameID]))
	return sub
}

// HandleEvent delivers the event to every subscription of its game.
func (h *Hub) HandleEvent(_ context.Context, event *Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[event.GameID] {
		select {
		case sub.ch <- event:
		default:
			dropped := sub.dropped.Add(1)
			h.logger.Warn("subscriber buffer full, dropping event",
				"game_id", event.GameID,
				"event_type", event.Type,
				"dropped", dropped)
		}
	}
	return nil
}

// CloseGame closes every subscription of gameID
func (h *Hub) CloseGame(gameID uuid.UUID) {
	h.mu.Lock()
	subs := h.subs[gameID]
	delete(h.subs, gameID)
	h.mu.Unlock()

	for sub := range subs {
		sub.once.Do(func() { close(sub.ch) })
	}
}

// Subscribers reports how many subscriptions gameID has
func (h *Hub) Subscribers(gameID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[gameID])
}

// Dropped reports how many events s missed because its buffer was full
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Close stops delivery to s and closes C. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	if subs, ok := s.hub.subs[s.gameID]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.hub.subs, s.gameID)
		}
	}
	s.hub.mu.Unlock()

	s.once.Do(func() { close(s.ch) })
}
