package game

import "errors"

// Common errors
var (
	ErrInvalidParams = errors.New("invalid game parameters")
	ErrNilScheduler  = errors.New("scheduler cannot be nil")
)
