package domain

import (
	"fmt"
	"math/rand"
)

// Deck is the ordered sequence of cards for one round.
type Deck []Card

// NewOrderedDeck returns an unshuffled deck: 1,1,2,2,...,6,6, all hidden.
func NewOrderedDeck() Deck {
	deck := make(Deck, 0, DeckSize)
	for v := FaceValue(1); v <= PairCount; v++ {
		for i := 0; i < 2; i++ {
			deck = append(deck, Card{
				ID:    len(deck),
				Face:  v,
				State: CardStateHidden,
			})
		}
	}
	return deck
}

// NewShuffledDeck deals a fresh deck in uniformly random order.
// Card IDs are reassigned to the new positions.
func NewShuffledDeck(r *rand.Rand) Deck {
	deck := NewOrderedDeck()
	deck.Shuffle(r)
	return deck
}

// Shuffle permutes the faces in place using r (Fisher-Yates) and renumbers
// the cards so that ID equals position.
func (d Deck) Shuffle(r *rand.Rand) {
	r.Shuffle(len(d), func(i, j int) { d[i], d[j] = d[j], d[i] })
	for i := range d {
		d[i].ID = i
	}
}

// Validate checks the deck invariant: DeckSize cards, ID equal to position,
// and every face value present exactly twice.
func (d Deck) Validate() error {
	if len(d) != DeckSize {
		return fmt.Errorf("%w: expected %d cards, got %d", ErrInvalidDeck, DeckSize, len(d))
	}

	counts := make(map[FaceValue]int, PairCount)
	for i, c := range d {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: card %d: %v", ErrInvalidDeck, i, err)
		}
		if c.ID != i {
			return fmt.Errorf("%w: card at position %d has id %d", ErrInvalidDeck, i, c.ID)
		}
		counts[c.Face]++
	}

	for v := FaceValue(1); v <= PairCount; v++ {
		if counts[v] != 2 {
			return fmt.Errorf("%w: face value %d appears %d times", ErrInvalidDeck, v, counts[v])
		}
	}

	return nil
}

// Clone returns a copy that shares no memory with d.
func (d Deck) Clone() Deck {
	out := make(Deck, len(d))
	copy(out, d)
	return out
}

// PartnerOf returns the ID of the other card carrying the same face as id,
// or -1 if there is none.
func (d Deck) PartnerOf(id int) int {
	if !ValidCardID(id) || id >= len(d) {
		return -1
	}
	for _, c := range d {
		if c.ID != id && c.Face == d[id].Face {
			return c.ID
		}
	}
	return -1
}
