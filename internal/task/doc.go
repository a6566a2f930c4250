// Package task runs game work off the request path.
//
// Every hosted game owns a SerialExecutor: a bounded TaskQueue drained by a
// one-worker WorkerPool, so commands from HTTP handlers and callbacks from the
// game clock are applied to the session one at a time. ClockScheduler adapts a
// clockwork.Clock to the game.Scheduler port by submitting every timer and
// ticker callback to that executor.
package task
