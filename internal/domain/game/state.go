package game

import (
	"github.com/phrazzld/concentration/internal/domain"
)

// Phase represents the lifecycle stage of a Session
type Phase string

// Possible phase values
const (
	// PhaseIdle is a freshly reset round waiting for its first flip.
	PhaseIdle Phase = "idle"
	// PhaseRunning means the countdown is active and input is accepted.
	PhaseRunning Phase = "running"
	// PhaseResolving means two cards are selected and input is locked.
	PhaseResolving Phase = "resolving"
	// PhaseEnded means time ran out or every pair was found.
	PhaseEnded Phase = "ended"
)

// Outcome describes how a round finished
type Outcome string

// Possible outcome values
const (
	OutcomeNone     Outcome = "none"
	OutcomeWon      Outcome = "won"
	OutcomeTimedOut Outcome = "timed_out"
)

// Decision reports what SelectCard did with a selection. Rejections are not
// errors: the selection is simply ignored.
type Decision string

// Possible decision values
const (
	DecisionFirstPick  Decision = "first_pick"
	DecisionMatched    Decision = "matched"
	DecisionMismatched Decision = "mismatched"
	DecisionWon        Decision = "won"

	DecisionRejectedLocked      Decision = "rejected_locked"
	DecisionRejectedSameCard    Decision = "rejected_same_card"
	DecisionRejectedMatched     Decision = "rejected_matched"
	DecisionRejectedEnded       Decision = "rejected_ended"
	DecisionRejectedUnknownCard Decision = "rejected_unknown_card"
)

// Accepted reports whether the selection counted as a flip.
func (d Decision) Accepted() bool {
	switch d {
	case DecisionFirstPick, DecisionMatched, DecisionMismatched, DecisionWon:
		return true
	default:
		return false
	}
}

// State is a point-in-time copy of a Session. It shares no memory with the
// Session it was taken from.
type State struct {
	Phase         Phase
	Outcome       Outcome
	Round         uint64
	TimeRemaining int
	Flips         int
	MatchedPairs  int
	InputLocked   bool
	Selection     []int
	Cards         []domain.Card
}
