// Package domain contains the core entities of the game: cards, their face
// values and presentation states, and the deck they are dealt from. It is
// independent of any timing, transport or delivery mechanism.
package domain
