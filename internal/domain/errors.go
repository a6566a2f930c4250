// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCardID is returned when a card ID is outside the deck.
	ErrInvalidCardID = errors.New("invalid card ID")

	// ErrInvalidFaceValue is returned when a face value is outside 1..PairCount.
	ErrInvalidFaceValue = errors.New("invalid face value")

	// ErrInvalidCardState is returned when a presentation state is unknown.
	ErrInvalidCardState = errors.New("invalid card state")

	// ErrInvalidDeck is returned when a deck breaks the two-of-each invariant.
	ErrInvalidDeck = errors.New("invalid deck")
)
