// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to server, game, session, auth and stream settings while keeping
// configuration details separate from game logic.
package config
