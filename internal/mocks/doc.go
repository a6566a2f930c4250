// Package mocks provides shared mock implementations for testing.
//
// Each mock has a function field per interface method. When a function field
// is nil the mock falls back to its default response fields. Calls are
// recorded so tests can assert on what reached the mock.
//
// Usage:
//
//	games := mocks.NewMockGameService(
//	    mocks.WithState(state),
//	    mocks.WithError(service.ErrGameNotFound),
//	)
//	handler := api.NewGameHandler(games, tokens, logger)
package mocks
