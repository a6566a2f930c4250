package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/concentration/internal/api/shared"
	"github.com/phrazzld/concentration/internal/config"
	"github.com/phrazzld/concentration/internal/domain"
	"github.com/phrazzld/concentration/internal/domain/game"
	"github.com/phrazzld/concentration/internal/platform/logger"
	"github.com/stretchr/testify/require"
)

// testState is a running round with card 0 revealed and cards 2 and 3 matched.
func testState() game.State {
	cards := domain.NewOrderedDeck()
	cards[0].State = domain.CardStateRevealed
	cards[2].State = domain.CardStateMatched
	cards[3].State = domain.CardStateMatched

	return game.State{
		Phase:         game.PhaseRunning,
		Outcome:       game.OutcomeNone,
		Round:         1,
		TimeRemaining: 27,
		Flips:         3,
		MatchedPairs:  1,
		Selection:     []int{0},
		Cards:         cards,
	}
}

func testStreamConfig() config.StreamConfig {
	return config.StreamConfig{
		EventBuffer:  16,
		PingInterval: 30 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

// authorized marks the request as having passed the auth middleware for gameID.
func authorized(req *http.Request, gameID uuid.UUID) *http.Request {
	return req.WithContext(shared.SetGameID(req.Context(), gameID))
}

// withGameID wraps h so every request is authorized for gameID.
func withGameID(gameID uuid.UUID, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h(w, authorized(r, gameID))
	})
}

func newTestRequest(t *testing.T, method, target string, body io.Reader) *http.Request {
	t.Helper()

	log, _ := logger.NewTestLogger(t)
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(logger.WithLogger(req.Context(), log))
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &v))
	return v
}
