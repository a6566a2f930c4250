package domain

import (
	"fmt"
)

// Deck geometry. Every face value appears exactly twice.
const (
	PairCount = 6
	DeckSize  = PairCount * 2
)

// FaceValue is the hidden symbol on a card. Two cards match when their face
// values are equal. Valid values are 1..PairCount.
type FaceValue int

// Valid reports whether v is in 1..PairCount.
func (v FaceValue) Valid() bool {
	return v >= 1 && v <= PairCount
}

// ImageRef returns the image resource identifier for the face value.
// Value v maps to "img-v".
func (v FaceValue) ImageRef() string {
	return fmt.Sprintf("img-%d", int(v))
}

// CardState represents how a card is currently presented to the player
type CardState string

// Possible card state values
const (
	CardStateHidden     CardState = "hidden"
	CardStateRevealed   CardState = "revealed"
	CardStateMatched    CardState = "matched"
	CardStateMismatched CardState = "mismatched"
)

// Valid reports whether s is one of the known card states.
func (s CardState) Valid() bool {
	switch s {
	case CardStateHidden, CardStateRevealed, CardStateMatched, CardStateMismatched:
		return true
	default:
		return false
	}
}

// Card is one position on the board. ID is the stable position index
// (0..DeckSize-1) and never changes within a round; Face is dealt on reset.
type Card struct {
	ID    int       `json:"id"`
	Face  FaceValue `json:"face"`
	State CardState `json:"state"`
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c Card) Validate() error {
	if !ValidCardID(c.ID) {
		return fmt.Errorf("%w: %d", ErrInvalidCardID, c.ID)
	}

	if !c.Face.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidFaceValue, c.Face)
	}

	if !c.State.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCardState, c.State)
	}

	return nil
}

// ValidCardID reports whether id addresses a position on the board.
func ValidCardID(id int) bool {
	return id >= 0 && id < DeckSize
}
