package game

import (
	"fmt"
	"time"
)

// Params defines the timing of a round
type Params struct {
	// TimeLimit is the countdown start value in ticks (seconds by default)
	TimeLimit int

	// TickInterval is the period of the countdown
	TickInterval time.Duration

	// FlashDelay is how long after a mismatch the two cards flash
	FlashDelay time.Duration

	// RevertDelay is how long after a mismatch the two cards turn face down
	// again and input unlocks. Must be greater than FlashDelay.
	RevertDelay time.Duration
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() Params {
	return Params{
		TimeLimit:    30,
		TickInterval: time.Second,
		FlashDelay:   400 * time.Millisecond,
		RevertDelay:  1200 * time.Millisecond,
	}
}

// Validate checks that the parameters describe a playable round.
func (p Params) Validate() error {
	if p.TimeLimit <= 0 {
		return fmt.Errorf("%w: time limit must be positive, got %d", ErrInvalidParams, p.TimeLimit)
	}
	if p.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive, got %s", ErrInvalidParams, p.TickInterval)
	}
	if p.FlashDelay <= 0 {
		return fmt.Errorf("%w: flash delay must be positive, got %s", ErrInvalidParams, p.FlashDelay)
	}
	if p.RevertDelay <= p.FlashDelay {
		return fmt.Errorf("%w: revert delay %s must exceed flash delay %s",
			ErrInvalidParams, p.RevertDelay, p.FlashDelay)
	}
	return nil
}
