package api

import (
	"github.com/google/uuid"
	"github.com/phrazzld/concentration/internal/domain"
	"github.com/phrazzld/concentration/internal/domain/game"
)

// SelectCardRequest defines the payload for flipping a card.
// CardID is a pointer so that a missing field is distinguishable from card 0.
type SelectCardRequest struct {
	CardID *int `json:"card_id" validate:"required,min=0,max=11"`
}

// CardResponse is one board position as a client may see it.
type CardResponse struct {
	ID    int    `json:"id"`
	State string `json:"state"`

	// ImageRef is omitted while the card is hidden
	ImageRef string `json:"image_ref,omitempty"`
}

// GameStateResponse is a snapshot of a game's round.
type GameStateResponse struct {
	Phase         string         `json:"phase"`
	Outcome       string         `json:"outcome"`
	Round         uint64         `json:"round"`
	TimeRemaining int            `json:"time_remaining"`
	Flips         int            `json:"flips"`
	MatchedPairs  int            `json:"matched_pairs"`
	InputLocked   bool           `json:"input_locked"`
	Selection     []int          `json:"selection"`
	Cards         []CardResponse `json:"cards"`
}

// CreateGameResponse defines the successful response for game creation.
type CreateGameResponse struct {
	GameID uuid.UUID `json:"game_id"`

	// Token must accompany every later request for the game
	Token string `json:"token"`

	State GameStateResponse `json:"state"`
}

// SelectCardResponse reports what a selection did and the resulting state.
type SelectCardResponse struct {
	Decision string            `json:"decision"`
	Accepted bool              `json:"accepted"`
	State    GameStateResponse `json:"state"`
}

// newGameStateResponse converts a session snapshot, hiding the faces of
// hidden cards.
func newGameStateResponse(state game.State) GameStateResponse {
	cards := make([]CardResponse, len(state.Cards))
	for i, c := range state.Cards {
		cards[i] = CardResponse{ID: c.ID, State: string(c.State)}
		if c.State != domain.CardStateHidden {
			cards[i].ImageRef = c.Face.ImageRef()
		}
	}

	selection := make([]int, len(state.Selection))
	copy(selection, state.Selection)

	return GameStateResponse{
		Phase:         string(state.Phase),
		Outcome:       string(state.Outcome),
		Round:         state.Round,
		TimeRemaining: state.TimeRemaining,
		Flips:         state.Flips,
		MatchedPairs:  state.MatchedPairs,
		InputLocked:   state.InputLocked,
		Selection:     selection,
		Cards:         cards,
	}
}
