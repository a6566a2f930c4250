package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenTypeGame marks a token that grants control of a single hosted game.
const TokenTypeGame = "game"

// JWTService issues and validates game tokens. A game token is handed out
// when a game is created and must accompany every later request for it.
type JWTService interface {
	// GenerateToken creates a signed token whose subject is gameID.
	GenerateToken(ctx context.Context, gameID uuid.UUID) (string, error)

	// ValidateToken verifies the signature, lifetime and type of the token
	// and returns its claims.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the validated content of a game token.
type Claims struct {
	// GameID is the game the token was issued for.
	GameID uuid.UUID `json:"gid,omitempty"`

	// TokenType is always TokenTypeGame for tokens issued by this service.
	TokenType string `json:"type,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
