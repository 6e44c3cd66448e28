package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/connectz-backend/internal/apperror"
	"github.com/rocketscienceinc/connectz-backend/internal/entity"
	"github.com/rocketscienceinc/connectz-backend/internal/usecase"
)

const gameStatusLeave = "leave"

func (that *Server) parsePayload(msg *Message, conn *connection) (*Payload, error) {
	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		if sendErr := that.sendErrorResponse(conn, msg.Action, "malformed payload"); sendErr != nil {
			return nil, sendErr
		}
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Player == nil {
		if err := that.sendErrorResponse(conn, msg.Action, "Player is required"); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return &payloadReq, nil
}

func (that *Server) handleConnect(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleConnect")

	payloadReq, err := that.parsePayload(msg, conn)
	if payloadReq == nil {
		return err
	}

	player, err := that.gameUseCase.GetOrCreatePlayer(ctx, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to create or get player", "error", err)
		return that.sendErrorResponse(conn, msg.Action, "failed to create a new player")
	}

	that.register(player.ID, conn)

	payloadResp := Payload{
		Player: player,
	}

	if player.GameID != "" {
		game, err := that.gameUseCase.GetGameByPlayerID(ctx, player.ID)
		if err != nil && !errors.Is(err, apperror.ErrGameNotFound) {
			log.Error("failed to get game", "gameID", player.GameID, "error", err)
			return that.sendErrorResponse(conn, msg.Action, "failed to get the game")
		}
		if game != nil {
			payloadResp.Game = maskGameDetails(game)
		}
	}

	if err = that.sendMessage(conn, msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("successfully connected player", "playerID", player.ID)

	return nil
}

func (that *Server) handleNewGame(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleNewGame")

	payloadReq, err := that.parsePayload(msg, conn)
	if payloadReq == nil {
		return err
	}

	if payloadReq.Game == nil {
		log.Error("Game is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Game is required")
	}

	that.register(payloadReq.Player.ID, conn)

	game, err := that.gameUseCase.NewGame(ctx, payloadReq.Player.ID, usecase.GameOptions{
		Type:       payloadReq.Game.Type,
		Difficulty: payloadReq.Game.Difficulty,
		Mark:       payloadReq.Player.Mark,
	})
	if errors.Is(err, apperror.ErrUnknownGameType) ||
		errors.Is(err, apperror.ErrUnknownDifficulty) ||
		errors.Is(err, apperror.ErrPlayerInGame) {
		return that.sendErrorResponse(conn, msg.Action, err.Error())
	}

	if err != nil {
		log.Error("failed to create game", "error", err)
		return that.sendErrorResponse(conn, msg.Action, "failed to create a new game")
	}

	that.broadcast(msg.Action, game)

	log.Info("game started", "gameID", game.ID)

	return nil
}

func (that *Server) handleGameTurn(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleGameTurn")

	payloadReq, err := that.parsePayload(msg, conn)
	if payloadReq == nil {
		return err
	}

	if payloadReq.Cell == nil {
		log.Error("Cell is missing in payload")
		return that.sendErrorResponse(conn, msg.Action, "Cell is required")
	}

	that.register(payloadReq.Player.ID, conn)

	log = log.With("playerID", payloadReq.Player.ID)

	game, err := that.gameUseCase.MakeTurn(ctx, payloadReq.Player.ID, payloadReq.Cell.Row, payloadReq.Cell.Col)
	switch {
	case errors.Is(err, apperror.ErrGameFinished) && game != nil:
		that.broadcast(msg.Action, game)
		log.Info("Game finished", "gameID", game.ID, "winner", game.Winner)

		return nil
	case errors.Is(err, apperror.ErrInvalidMove),
		errors.Is(err, apperror.ErrGameIsNotStarted),
		errors.Is(err, apperror.ErrGameNotFound),
		errors.Is(err, apperror.ErrGameFinished):
		return that.sendErrorResponse(conn, msg.Action, err.Error())
	case err != nil:
		log.Error("failed to make turn", "error", err)
		return that.sendErrorResponse(conn, msg.Action, "failed to make a turn")
	}

	that.broadcast(msg.Action, game)

	log.Info("Player made a turn", "gameID", game.ID)

	return nil
}

func (that *Server) handleGameState(ctx context.Context, msg *Message, conn *connection) error {
	payloadReq, err := that.parsePayload(msg, conn)
	if payloadReq == nil {
		return err
	}

	that.register(payloadReq.Player.ID, conn)

	game, err := that.gameUseCase.GetGameByPlayerID(ctx, payloadReq.Player.ID)
	if err != nil {
		return that.sendErrorResponse(conn, msg.Action, "game doesn't exist")
	}

	return that.sendMessage(conn, msg.Action, Payload{
		Player: game.PlayerByID(payloadReq.Player.ID),
		Game:   maskGameDetails(game),
	})
}

func (that *Server) handleGameLeave(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleGameLeave")

	payloadReq, err := that.parsePayload(msg, conn)
	if payloadReq == nil {
		return err
	}

	that.register(payloadReq.Player.ID, conn)

	game, err := that.gameUseCase.GetGameByPlayerID(ctx, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to find game", "error", err)
		return that.sendErrorResponse(conn, msg.Action, "game doesn't exist")
	}

	if err = that.gameUseCase.EndGame(ctx, game); err != nil {
		log.Error("failed to end game", "error", err)
		return that.sendErrorResponse(conn, msg.Action, "failed to leave the game")
	}

	for _, player := range game.Players {
		if player.IsBot() {
			continue
		}

		playerConn, ok := that.connection(player.ID)
		if !ok {
			continue
		}

		payloadResp := Payload{
			Player: player,
			Game:   maskGameDetails(game),
		}
		payloadResp.Game.Status = gameStatusLeave

		if err = that.sendMessage(playerConn, msg.Action, payloadResp); err != nil {
			log.Error("failed to send game update", "error", err)
		}
	}

	log.Info("Player leaving", "gameID", game.ID)

	return nil
}

// broadcast sends the game to every connected human player in it.
func (that *Server) broadcast(action string, game *entity.Game) {
	log := that.logger.With("method", "broadcast", "gameID", game.ID)

	for _, player := range game.Players {
		if player.IsBot() {
			continue
		}

		conn, ok := that.connection(player.ID)
		if !ok {
			log.Warn("connection not found for player", "playerID", player.ID)
			continue
		}

		payloadResp := Payload{
			Player: player,
			Game:   maskGameDetails(game),
		}

		if err := that.sendMessage(conn, action, payloadResp); err != nil {
			log.Error("failed to send game update", "error", err)
		}
	}
}
