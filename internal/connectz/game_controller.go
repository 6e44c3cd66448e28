package connectz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/connectz-backend/internal/apperror"
	"github.com/rocketscienceinc/connectz-backend/internal/engine"
)

var (
	ErrInvalidSnapshot = errors.New("invalid game snapshot")
	ErrInvalidAIPlayer = errors.New("ai player must be X, O or nobody")
)

// Snapshot is the persisted part of a game; everything else is derived.
type Snapshot struct {
	Cells    [][]engine.Player
	Turn     engine.Player
	AIPlayer engine.Player
	LastMove *engine.Move
}

// GameController runs one game: turn order, outcome and the AI opponent.
type GameController struct {
	mu sync.Mutex

	logger   *slog.Logger
	config   engine.Config
	board    *engine.Board
	searcher *engine.Searcher

	aiPlayer engine.Player
	turn     engine.Player
	outcome  engine.Outcome
	lastMove *engine.Move

	lastSearch *engine.Result
}

// NewGame starts an empty game with X to move. aiPlayer Nobody means two humans.
func NewGame(logger *slog.Logger, config engine.Config, aiPlayer engine.Player) (*GameController, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if aiPlayer > engine.PlayerO {
		return nil, ErrInvalidAIPlayer
	}

	return &GameController{
		logger:   logger.With("component", "game_controller"),
		config:   config,
		board:    config.NewBoard(),
		searcher: engine.NewSearcher(logger, config.SearchConfig(), nil),
		aiPlayer: aiPlayer,
		turn:     engine.PlayerX,
		outcome:  engine.Outcome{Status: engine.InProgress},
	}, nil
}

// Restore rebuilds a controller from a snapshot taken with Snapshot.
func Restore(logger *slog.Logger, config engine.Config, snapshot Snapshot) (*GameController, error) {
	controller, err := NewGame(logger, config, snapshot.AIPlayer)
	if err != nil {
		return nil, err
	}

	if err = controller.board.Load(snapshot.Cells); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	if snapshot.LastMove != nil {
		last := *snapshot.LastMove
		if last.Player == engine.Nobody || !controller.board.InBounds(last.Row, last.Col) || controller.board.At(last.Row, last.Col) != last.Player {
			return nil, fmt.Errorf("%w: last move %s is not on the board", ErrInvalidSnapshot, last)
		}
		controller.lastMove = &last
	}

	controller.outcome = controller.board.Outcome()
	if controller.outcome.IsTerminal() {
		controller.turn = engine.Nobody
		return controller, nil
	}

	// X always moves first, so the player to move follows from the move count.
	expected := engine.PlayerX
	if controller.board.MoveCount()%2 == 1 {
		expected = engine.PlayerO
	}
	if snapshot.Turn != expected {
		return nil, fmt.Errorf("%w: %s to move after %d moves", ErrInvalidSnapshot, snapshot.Turn, controller.board.MoveCount())
	}
	controller.turn = expected

	return controller, nil
}

// SubmitMove plays a move for the player to move. The game is unchanged on error.
func (that *GameController) SubmitMove(move engine.Move) (engine.Outcome, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.play(move)
}

// RequestAIMove searches and plays the AI's move.
func (that *GameController) RequestAIMove(ctx context.Context) (engine.Move, engine.Outcome, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "RequestAIMove")

	if that.outcome.IsTerminal() {
		return engine.Move{}, that.outcome, apperror.ErrGameFinished
	}

	if that.aiPlayer == engine.Nobody || that.turn != that.aiPlayer {
		return engine.Move{}, that.outcome, apperror.ErrNotAITurn
	}

	result, err := that.searcher.Search(ctx, that.board, that.aiPlayer)
	if err != nil {
		return engine.Move{}, that.outcome, fmt.Errorf("failed to search ai move: %w", err)
	}
	that.lastSearch = &result

	outcome, err := that.play(result.Move)
	if err != nil {
		// search only yields empty cells of a live board
		panic(fmt.Sprintf("connectz: ai move %s rejected: %v", result.Move, err))
	}

	log.Info("ai moved", "move", result.Move.String(), "depth", result.Depth, "score", result.Score, "outcome", outcome.String())

	return result.Move, outcome, nil
}

func (that *GameController) play(move engine.Move) (engine.Outcome, error) {
	if that.outcome.IsTerminal() {
		return that.outcome, apperror.ErrGameFinished
	}

	if move.Player != that.turn {
		return that.outcome, fmt.Errorf("%w: %s to move", apperror.ErrNotYourTurn, that.turn)
	}

	if err := that.board.Apply(move); err != nil {
		return that.outcome, fmt.Errorf("failed to apply move: %w", err)
	}

	that.lastMove = &move
	that.outcome = that.board.CheckTerminal(move)

	if that.outcome.IsTerminal() {
		that.turn = engine.Nobody
	} else {
		that.turn = that.turn.Opponent()
	}

	return that.outcome, nil
}

func (that *GameController) BoardState() [][]engine.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.board.Cells()
}

func (that *GameController) Outcome() engine.Outcome {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.outcome
}

// Turn is the player to move, Nobody once the game is over.
func (that *GameController) Turn() engine.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.turn
}

func (that *GameController) AIPlayer() engine.Player {
	return that.aiPlayer
}

func (that *GameController) MoveCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.board.MoveCount()
}

func (that *GameController) LastMove() (engine.Move, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.lastMove == nil {
		return engine.Move{}, false
	}
	return *that.lastMove, true
}

// LastSearch reports the most recent AI search, if any.
func (that *GameController) LastSearch() (engine.Result, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.lastSearch == nil {
		return engine.Result{}, false
	}
	return *that.lastSearch, true
}

func (that *GameController) WinningLine() []engine.Move {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.outcome.Status != engine.Win || that.lastMove == nil {
		return nil
	}
	return that.board.WinningLine(*that.lastMove)
}

func (that *GameController) Snapshot() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	snapshot := Snapshot{
		Cells:    that.board.Cells(),
		Turn:     that.turn,
		AIPlayer: that.aiPlayer,
	}
	if that.lastMove != nil {
		last := *that.lastMove
		snapshot.LastMove = &last
	}

	return snapshot
}

// String renders the board for terminals and logs.
func (that *GameController) String() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.board.String()
}
