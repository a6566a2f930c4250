// Package events carries what a game renders to whoever is watching it.
//
// A hosted game turns every render call of its session into an Event and
// emits it through an EventEmitter. The Hub is the EventHandler that fans
// events out to per-game subscriptions, which back the SSE and WebSocket
// streams of the API.
//
// The primary components are:
// - Event: one render of a card, a counter or the end of a round
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
// - Hub: per-game fan-out with non-blocking delivery
package events
