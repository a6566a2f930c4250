package game

import (
	"math/rand"
	"time"

	"github.com/phrazzld/concentration/internal/domain"
)

// Session is one player's game: a deck, a countdown and the pair-matching
// state machine between them.
//
// Lifecycle:
//
//	idle --first flip--> running --second flip--> resolving --+--> running
//	  ^                     |                                 |
//	  |                     +--------- time out / last pair --+--> ended
//	  +------------------------- Reset (from any phase) <-------------+
//
// Every deferred job carries the round it was scheduled in. Reset starts a new
// round and cancels outstanding jobs, and a job that still fires afterwards is
// ignored because its round no longer matches.
type Session struct {
	params    Params
	scheduler Scheduler
	view      View
	rnd       *rand.Rand

	deck          domain.Deck
	selection     []int
	timeRemaining int
	flips         int
	matched       int
	locked        bool
	phase         Phase
	outcome       Outcome

	round   uint64
	ticker  Job
	pending []Job
}

// NewSession creates a Session and deals its first round.
//
// view may be nil, in which case rendering is discarded. rnd may be nil, in
// which case a time-seeded source is used; tests pass a seeded source to get
// a deterministic deal.
func NewSession(params Params, scheduler Scheduler, view View, rnd *rand.Rand) (*Session, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if scheduler == nil {
		return nil, ErrNilScheduler
	}
	if view == nil {
		view = NopView{}
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s := &Session{
		params:    params,
		scheduler: scheduler,
		view:      view,
		rnd:       rnd,
		selection: make([]int, 0, 2),
	}
	s.Reset()

	return s, nil
}

// Reset deals a freshly shuffled deck and returns the session to idle.
//
// It stops the countdown, cancels any pending mismatch completions, clears the
// selection, restores the full time limit and zeroes the counters. Every card
// is re-rendered hidden and both counters are re-rendered.
func (s *Session) Reset() {
	s.cancelJobs()
	s.round++

	s.deck = domain.NewShuffledDeck(s.rnd)
	s.selection = s.selection[:0]
	s.timeRemaining = s.params.TimeLimit
	s.flips = 0
	s.matched = 0
	s.locked = false
	s.phase = PhaseIdle
	s.outcome = OutcomeNone

	for _, c := range s.deck {
		s.renderCard(c.ID)
	}
	s.view.RenderTimeRemaining(s.timeRemaining)
	s.view.RenderFlipCount(s.flips)
}

// Tick advances the countdown by one. It is a no-op unless the countdown is
// active (running or resolving). Reaching zero stops the countdown and ends
// the round as timed out.
func (s *Session) Tick() {
	if !s.timerActive() {
		return
	}

	s.timeRemaining--
	s.view.RenderTimeRemaining(s.timeRemaining)

	if s.timeRemaining <= 0 {
		s.timeRemaining = 0
		s.stopTimer()
		s.end(OutcomeTimedOut)
	}
}

// SelectCard flips the card with the given id.
//
// The selection is ignored when the id is unknown, the round is over, input is
// locked, the card is the one already held, or the card is already matched.
// The first accepted flip of a round starts the countdown. The second flip of a
// pair locks input and evaluates the pair: a match is settled immediately, a
// mismatch schedules a flash after FlashDelay and a revert after RevertDelay.
func (s *Session) SelectCard(id int) Decision {
	switch {
	case !domain.ValidCardID(id):
		return DecisionRejectedUnknownCard
	case s.phase == PhaseEnded || s.timeRemaining <= 0:
		return DecisionRejectedEnded
	case s.locked:
		return DecisionRejectedLocked
	case len(s.selection) == 1 && s.selection[0] == id:
		return DecisionRejectedSameCard
	case s.deck[id].State == domain.CardStateMatched:
		return DecisionRejectedMatched
	}

	if s.phase == PhaseIdle {
		s.startTimer()
		s.phase = PhaseRunning
	}

	s.flips++
	s.setCardState(id, domain.CardStateRevealed)
	s.view.RenderFlipCount(s.flips)
	s.selection = append(s.selection, id)

	if len(s.selection) < 2 {
		return DecisionFirstPick
	}

	s.phase = PhaseResolving
	s.locked = true

	first, second := s.selection[0], s.selection[1]
	if s.deck.PartnerOf(first) == second {
		return s.resolveMatch(first, second)
	}

	s.scheduleMismatch(first, second)
	return DecisionMismatched
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	selection := make([]int, len(s.selection))
	copy(selection, s.selection)

	return State{
		Phase:         s.phase,
		Outcome:       s.outcome,
		Round:         s.round,
		TimeRemaining: s.timeRemaining,
		Flips:         s.flips,
		MatchedPairs:  s.matched,
		InputLocked:   s.locked,
		Selection:     selection,
		Cards:         s.deck.Clone(),
	}
}

// Stop cancels every outstanding job. Callbacks that were already on their way
// are ignored. The session must not be used after Stop.
func (s *Session) Stop() {
	s.cancelJobs()
	s.round++
}

func (s *Session) resolveMatch(first, second int) Decision {
	s.matched++
	s.setCardState(first, domain.CardStateMatched)
	s.setCardState(second, domain.CardStateMatched)
	s.selection = s.selection[:0]

	if s.matched == domain.PairCount && s.timeRemaining > 0 {
		// The deck stays locked and on display until the next Reset.
		s.stopTimer()
		s.end(OutcomeWon)
		return DecisionWon
	}

	s.locked = false
	s.phase = PhaseRunning
	return DecisionMatched
}

func (s *Session) scheduleMismatch(first, second int) {
	round := s.round

	flash := s.scheduler.AfterFunc(s.params.FlashDelay, func() {
		s.flashMismatch(round, first, second)
	})
	revert := s.scheduler.AfterFunc(s.params.RevertDelay, func() {
		s.revertMismatch(round, first, second)
	})

	s.pending = append(s.pending, flash, revert)
}

func (s *Session) flashMismatch(round uint64, first, second int) {
	if round != s.round || !s.holds(first, second) {
		return
	}
	s.setCardState(first, domain.CardStateMismatched)
	s.setCardState(second, domain.CardStateMismatched)
}

func (s *Session) revertMismatch(round uint64, first, second int) {
	if round != s.round || !s.holds(first, second) {
		return
	}

	s.setCardState(first, domain.CardStateHidden)
	s.setCardState(second, domain.CardStateHidden)
	s.selection = s.selection[:0]
	s.pending = s.pending[:0]
	s.locked = false

	// A timeout while the pair was resolving leaves the round ended.
	if s.phase == PhaseResolving {
		s.phase = PhaseRunning
	}
}

func (s *Session) holds(first, second int) bool {
	return len(s.selection) == 2 && s.selection[0] == first && s.selection[1] == second
}

func (s *Session) startTimer() {
	round := s.round
	s.ticker = s.scheduler.Every(s.params.TickInterval, func() {
		if round != s.round {
			return
		}
		s.Tick()
	})
}

func (s *Session) stopTimer() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

func (s *Session) cancelJobs() {
	s.stopTimer()
	for _, job := range s.pending {
		job.Stop()
	}
	s.pending = s.pending[:0]
}

func (s *Session) timerActive() bool {
	return s.phase == PhaseRunning || s.phase == PhaseResolving
}

func (s *Session) end(outcome Outcome) {
	s.phase = PhaseEnded
	s.outcome = outcome
	s.view.RenderEnded(outcome)
}

func (s *Session) setCardState(id int, state domain.CardState) {
	s.deck[id].State = state
	s.renderCard(id)
}

func (s *Session) renderCard(id int) {
	c := s.deck[id]
	s.view.RenderCard(CardView{
		ID:       c.ID,
		State:    c.State,
		ImageRef: c.Face.ImageRef(),
	})
}
