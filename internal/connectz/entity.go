package connectz

import (
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/connectz-backend/internal/engine"
	"github.com/rocketscienceinc/connectz-backend/internal/entity"
)

// FromEntity restores the controller of a stored game. The game's difficulty,
// when set, overrides the search depth of config.
func FromEntity(logger *slog.Logger, config engine.Config, game *entity.Game) (*GameController, error) {
	if game.Difficulty != "" {
		config = config.WithDifficulty(game.Difficulty)
	}

	snapshot := Snapshot{
		Cells: make([][]engine.Player, len(game.Board)),
	}

	for row, line := range game.Board {
		snapshot.Cells[row] = make([]engine.Player, len(line))
		for col, mark := range line {
			player, err := engine.ParsePlayer(mark)
			if err != nil {
				return nil, fmt.Errorf("%w: cell (%d,%d): %w", ErrInvalidSnapshot, row, col, err)
			}
			snapshot.Cells[row][col] = player
		}
	}

	var err error
	if snapshot.Turn, err = engine.ParsePlayer(game.Turn); err != nil {
		return nil, fmt.Errorf("%w: turn: %w", ErrInvalidSnapshot, err)
	}

	if game.IsWithBot() {
		if snapshot.AIPlayer, err = engine.ParsePlayer(game.BotMark); err != nil {
			return nil, fmt.Errorf("%w: bot mark: %w", ErrInvalidSnapshot, err)
		}
	}

	if game.LastMove != nil {
		row, col := game.LastMove.Row, game.LastMove.Col
		if row < 0 || row >= len(snapshot.Cells) || col < 0 || col >= len(snapshot.Cells[row]) {
			return nil, fmt.Errorf("%w: last move (%d,%d) is off the board", ErrInvalidSnapshot, row, col)
		}
		last := engine.NewMove(row, col, snapshot.Cells[row][col])
		snapshot.LastMove = &last
	}

	controller, err := Restore(logger, config, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to restore game %s: %w", game.ID, err)
	}

	return controller, nil
}

// SyncEntity copies the controller state onto game.
func (that *GameController) SyncEntity(game *entity.Game) {
	snapshot := that.Snapshot()

	game.Board = make([][]string, len(snapshot.Cells))
	for row, line := range snapshot.Cells {
		game.Board[row] = make([]string, len(line))
		for col, player := range line {
			game.Board[row][col] = player.String()
		}
	}

	game.MoveCount = that.MoveCount()
	game.Turn = snapshot.Turn.String()

	game.LastMove = nil
	if snapshot.LastMove != nil {
		game.LastMove = &entity.Cell{Row: snapshot.LastMove.Row, Col: snapshot.LastMove.Col}
	}

	game.WinningLine = nil
	for _, move := range that.WinningLine() {
		game.WinningLine = append(game.WinningLine, entity.Cell{Row: move.Row, Col: move.Col})
	}

	switch outcome := that.Outcome(); outcome.Status {
	case engine.Win:
		game.Finish(outcome.Winner.String())
	case engine.Draw:
		game.Finish(entity.PlayerTie)
	default:
		game.Status = entity.StatusOngoing
	}
}
