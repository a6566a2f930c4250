package game

import (
	"time"

	"github.com/phrazzld/concentration/internal/domain"
)

// Job is a handle to deferred work. Stop prevents the work from running if it
// has not started yet and reports whether it did so.
type Job interface {
	Stop() bool
}

// Scheduler runs deferred work on behalf of a Session.
//
// Implementations must invoke fn on the goroutine that drives the Session,
// never concurrently with a Session method.
type Scheduler interface {
	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func()) Job

	// Every runs fn every d until the returned Job is stopped.
	Every(d time.Duration, fn func()) Job
}

// CardView is what the view layer needs to draw one card.
type CardView struct {
	ID       int
	State    domain.CardState
	ImageRef string
}

// View receives render callbacks from a Session. Calls are made synchronously
// from inside Session methods and scheduled callbacks.
type View interface {
	RenderCard(card CardView)
	RenderTimeRemaining(seconds int)
	RenderFlipCount(flips int)
	RenderEnded(outcome Outcome)
}

// NopView discards every render call.
type NopView struct{}

func (NopView) RenderCard(CardView)     {}
func (NopView) RenderTimeRemaining(int) {}
func (NopView) RenderFlipCount(int)     {}
func (NopView) RenderEnded(Outcome)     {}
