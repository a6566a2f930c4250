package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is and the API layer maps them to HTTP
// status codes.
var (
	// ErrGameNotFound indicates no hosted game has the requested id, either
	// because it never existed or because it was ended or evicted.
	// API layer should map this to HTTP 404 Not Found.
	ErrGameNotFound = errors.New("game not found")

	// ErrTooManyGames indicates the server already hosts its maximum number of games.
	// API layer should map this to HTTP 503 Service Unavailable.
	ErrTooManyGames = errors.New("too many active games")

	// ErrServiceClosed indicates the service is shutting down.
	// API layer should map this to HTTP 503 Service Unavailable.
	ErrServiceClosed = errors.New("game service is closed")
)

// GameServiceError wraps unexpected failures of a game service operation.
type GameServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for GameServiceError.
func (e *GameServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("game service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("game service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *GameServiceError) Unwrap() error {
	return e.Err
}

// NewGameServiceError creates a new GameServiceError.
func NewGameServiceError(operation, message string, err error) *GameServiceError {
	return &GameServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
