// Package service contains the application use cases. GameService hosts
// concentration games in memory: it owns one game.Session per game, drives
// each session from its own task.SerialExecutor, turns the session's renders
// into events and evicts games nobody has touched for a while.
//
// Subpackage auth issues and validates the tokens that bind a client to the
// game it created.
package service
