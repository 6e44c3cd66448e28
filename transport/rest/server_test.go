package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/connectz-backend/internal/apperror"
	"github.com/rocketscienceinc/connectz-backend/internal/entity"
)

var errRedisDown = errors.New("redis down")

type fakeGames map[string]*entity.Game

func (that fakeGames) GetGameByID(_ context.Context, id string) (*entity.Game, error) {
	if id == "broken" {
		return nil, errRedisDown
	}

	game, ok := that[id]
	if !ok {
		return nil, apperror.ErrGameNotFound
	}

	return game, nil
}

func newTestHandler(check HealthCheck) http.Handler {
	game := entity.NewGame("42", entity.WithBotType, 10)
	game.Status = entity.StatusOngoing
	game.Board[5][5] = entity.PlayerX
	game.Players = []*entity.Player{{ID: "secret-session", Mark: entity.PlayerX}}

	return NewHandler(slog.New(slog.NewJSONHandler(io.Discard, nil)), fakeGames{"42": game}, check)
}

func TestPing(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pong", rec.Body.String())
	})

	t.Run("Storage down", func(t *testing.T) {
		check := func(context.Context) error { return errRedisDown }

		rec := httptest.NewRecorder()
		newTestHandler(check).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestGameHandler_GetGame(t *testing.T) {
	handler := newTestHandler(nil)

	t.Run("Found", func(t *testing.T) {
		// When: a stored game is requested
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/games/42", nil))

		// Then: it is returned without its players
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		body := rec.Body.String()
		assert.NotContains(t, body, "secret-session")

		var game entity.Game
		require.NoError(t, json.Unmarshal([]byte(body), &game))
		assert.Equal(t, "42", game.ID)
		assert.Equal(t, entity.PlayerX, game.Board[5][5])
		assert.Nil(t, game.Players)
	})

	t.Run("Not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/games/7", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Storage error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/games/broken", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("Wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/games/42", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
