package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/connectz-backend/internal/apperror"
	"github.com/rocketscienceinc/connectz-backend/internal/entity"
)

type gameGetter interface {
	GetGameByID(ctx context.Context, id string) (*entity.Game, error)
}

type GameHandler struct {
	logger *slog.Logger
	games  gameGetter
}

func NewGameHandler(logger *slog.Logger, games gameGetter) *GameHandler {
	return &GameHandler{
		logger: logger.With("component", "rest"),
		games:  games,
	}
}

// GetGame writes the stored game without its players.
func (that *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GetGame")

	id := r.PathValue("id")

	game, err := that.games.GetGameByID(r.Context(), id)
	if errors.Is(err, apperror.ErrGameNotFound) {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to get game", "gameID", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	masked := *game
	masked.Players = nil

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(&masked); err != nil {
		log.Error("failed to encode game", "error", err)
	}
}
