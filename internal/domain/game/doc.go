// Package game implements the Concentration session state machine.
//
// A Session owns one board of domain.DeckSize cards and every variable of a
// round: time remaining, flip count, matched pairs, the selection buffer and
// the input lock. It exposes three operations to its host: Reset, SelectCard
// and Tick. Rendering is pushed to a View and all deferred work (the
// recurring countdown tick and the two delayed mismatch completions) is
// delegated to a Scheduler, so the package never blocks and never starts a
// goroutine of its own.
//
// A Session is not safe for concurrent use. Hosts drive it from a single
// goroutine and arrange for Scheduler callbacks to run on that same goroutine
// (see the task package for the production arrangement).
package game
