package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/connectz-backend/internal/apperror"
	"github.com/rocketscienceinc/connectz-backend/internal/connectz"
	"github.com/rocketscienceinc/connectz-backend/internal/engine"
	"github.com/rocketscienceinc/connectz-backend/internal/entity"
	"github.com/rocketscienceinc/connectz-backend/internal/pkg"
)

const maxGameIDAttempts = 5

var errNoFreeGameID = errors.New("no free game id")

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

// GameOptions describes a new game. Mark is the human's mark in a bot game;
// it is picked at random when empty.
type GameOptions struct {
	Type       string
	Difficulty string
	Mark       string
}

type GameManager struct {
	logger *slog.Logger
	config engine.Config

	playerRepo playerRepo
	gameRepo   gameRepo
}

func NewGameManager(logger *slog.Logger, config engine.Config, playerRepo playerRepo, gameRepo gameRepo) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),
		config: config,

		playerRepo: playerRepo,
		gameRepo:   gameRepo,
	}
}

func (that *GameManager) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	log := that.logger.With("method", "GetOrCreatePlayer")

	if id == "" {
		player, err := that.createPlayer(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create new player: %w", err)
		}

		return player, nil
	}

	player, err := that.playerRepo.GetByID(ctx, id)
	if errors.Is(err, apperror.ErrPlayerNotFound) {
		log.Info("player expired, creating a new one", "player_id", id)

		player, err = that.createPlayer(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create new player: %w", err)
		}

		return player, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	return player, nil
}

// NewGame starts a game for the player, or returns the game of the same type
// the player is already in. In a bot game where the bot holds X the bot moves
// first.
func (that *GameManager) NewGame(ctx context.Context, playerID string, options GameOptions) (*entity.Game, error) {
	log := that.logger.With("method", "NewGame", "player_id", playerID)

	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if player.GameID != "" {
		existingGame, err := that.getGameByID(ctx, player.GameID)
		if err == nil {
			if existingGame.Type != options.Type {
				return nil, fmt.Errorf("%w: %s", apperror.ErrPlayerInGame, existingGame.ID)
			}
			return existingGame, nil
		}
		if !errors.Is(err, apperror.ErrGameNotFound) {
			return nil, err
		}

		log.Info("player's game expired", "game_id", player.GameID)
		player.LeaveGame()
	}

	if err = validateOptions(options); err != nil {
		return nil, err
	}

	gameID, err := that.newGameID(ctx)
	if err != nil {
		return nil, err
	}

	game := entity.NewGame(gameID, options.Type, that.config.BoardSize)

	aiPlayer := engine.Nobody
	switch options.Type {
	case entity.WithBotType:
		// without a difficulty the configured search depth applies
		game.Difficulty = options.Difficulty

		player.Mark = options.Mark
		if player.Mark != entity.PlayerX && player.Mark != entity.PlayerO {
			player.Mark, _ = game.GetRandomMarks()
		}

		bot := entity.NewBotPlayer(game.ID, entity.OppositeMark(player.Mark))
		game.BotMark = bot.Mark
		game.Players = []*entity.Player{player, bot}

		if aiPlayer, err = engine.ParsePlayer(bot.Mark); err != nil {
			return nil, fmt.Errorf("failed to parse bot mark: %w", err)
		}
	case entity.LocalType:
		player.Mark = ""
		game.Players = []*entity.Player{player}
	}

	player.GameID = game.ID

	controller, err := connectz.NewGame(that.logger, that.gameConfig(game), aiPlayer)
	if err != nil {
		return nil, fmt.Errorf("failed to create game controller: %w", err)
	}

	if aiPlayer == engine.PlayerX {
		if _, _, err = controller.RequestAIMove(ctx); err != nil {
			return nil, fmt.Errorf("failed to make bot opening move: %w", err)
		}
	}

	controller.SyncEntity(game)

	if err = that.updatePlayer(ctx, player); err != nil {
		return nil, err
	}

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	log.Info("game created", "game_id", game.ID, "type", game.Type, "difficulty", game.Difficulty, "mark", player.Mark)

	return game, nil
}

// MakeTurn plays the player's move and, in a bot game, the bot's reply.
// A finished game is deleted and returned together with ErrGameFinished.
func (that *GameManager) MakeTurn(ctx context.Context, playerID string, row, col int) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil, apperror.ErrGameNotFound
	}

	game, err := that.getGameByID(ctx, player.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed get game by id: %w", err)
	}

	if game.IsFinished() {
		that.deleteGame(ctx, game)

		return game, apperror.ErrGameFinished
	}

	if err = game.ConfirmOngoingState(); err != nil {
		return nil, err
	}

	if game.PlayerByID(player.ID) == nil {
		return nil, fmt.Errorf("%w: %s is not in game %s", apperror.ErrPlayerNotFound, player.ID, game.ID)
	}

	controller, err := connectz.FromEntity(that.logger, that.gameConfig(game), game)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}

	mark, err := engine.ParsePlayer(game.MarkFor(player))
	if err != nil {
		return nil, fmt.Errorf("failed to parse player mark: %w", err)
	}

	outcome, err := controller.SubmitMove(engine.NewMove(row, col, mark))
	if err != nil {
		return nil, fmt.Errorf("failed make turn: %w", err)
	}

	if game.IsWithBot() && !outcome.IsTerminal() {
		if _, _, err = controller.RequestAIMove(ctx); err != nil {
			return nil, fmt.Errorf("failed make bot turn: %w", err)
		}
	}

	controller.SyncEntity(game)

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	if game.IsFinished() {
		that.deleteGame(ctx, game)

		return game, apperror.ErrGameFinished
	}

	return game, nil
}

func (that *GameManager) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if player.GameID == "" {
		return nil, apperror.ErrGameNotFound
	}

	return that.getGameByID(ctx, player.GameID)
}

func (that *GameManager) GetGameByID(ctx context.Context, id string) (*entity.Game, error) {
	return that.getGameByID(ctx, id)
}

// EndGame deletes the game and releases its human players.
func (that *GameManager) EndGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.DeleteByID(ctx, game.ID); err != nil && !errors.Is(err, apperror.ErrGameNotFound) {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	for _, player := range game.Players {
		if player.IsBot() {
			continue
		}

		player.LeaveGame()
		if err := that.updatePlayer(ctx, player); err != nil {
			return err
		}
	}

	return nil
}

func validateOptions(options GameOptions) error {
	switch options.Type {
	case entity.WithBotType, entity.LocalType:
	default:
		return fmt.Errorf("%w: %q", apperror.ErrUnknownGameType, options.Type)
	}

	switch options.Difficulty {
	case "", entity.EasyDifficulty, entity.MediumDifficulty, entity.HardDifficulty:
	default:
		return fmt.Errorf("%w: %q", apperror.ErrUnknownDifficulty, options.Difficulty)
	}

	return nil
}

// newGameID draws ids until one is not taken by a stored game.
func (that *GameManager) newGameID(ctx context.Context) (string, error) {
	for range maxGameIDAttempts {
		id, err := pkg.GenerateGameID()
		if err != nil {
			return "", fmt.Errorf("failed to generate game id: %w", err)
		}

		_, err = that.gameRepo.GetByID(ctx, id)
		if errors.Is(err, apperror.ErrGameNotFound) {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check game id: %w", err)
		}
	}

	return "", errNoFreeGameID
}

func (that *GameManager) gameConfig(game *entity.Game) engine.Config {
	if game.Difficulty == "" {
		return that.config
	}
	return that.config.WithDifficulty(game.Difficulty)
}

func (that *GameManager) getGameByID(ctx context.Context, id string) (*entity.Game, error) {
	existingGame, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return existingGame, nil
}

func (that *GameManager) updateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}

func (that *GameManager) deleteGame(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "deleteGame", "game_id", game.ID)

	if err := that.EndGame(ctx, game); err != nil {
		log.Error("failed to delete game", "error", err)
		return
	}

	log.Info("game deleted")
}

func (that *GameManager) createPlayer(ctx context.Context) (*entity.Player, error) {
	id, err := pkg.GenerateNewSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	player := &entity.Player{
		ID: id,
	}

	if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return player, nil
}

func (that *GameManager) getPlayerByID(ctx context.Context, id string) (*entity.Player, error) {
	player, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return player, nil
}

func (that *GameManager) updatePlayer(ctx context.Context, player *entity.Player) error {
	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}
