// Package api handles incoming HTTP requests for hosted games: routing
// parameters, request validation, response formatting and the SSE and
// WebSocket event streams. It adapts HTTP to the service layer and never
// touches a game session directly.
package api
