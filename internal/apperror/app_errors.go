package apperror

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/connectz-backend/internal/engine"
)

// engine errors are shared so errors.Is works from the transports down.
var (
	ErrInvalidMove  = engine.ErrInvalidMove
	ErrCellOccupied = engine.ErrCellOccupied
	ErrOutOfRange   = engine.ErrOutOfRange
)

var (
	ErrGameFinished      = errors.New("game is already finished")
	ErrGameIsNotStarted  = errors.New("game is not started")
	ErrNotYourTurn       = fmt.Errorf("%w: it's not your turn", engine.ErrInvalidMove)
	ErrNotAITurn         = errors.New("it's not the bot's turn")
	ErrGameNotFound      = errors.New("game not found")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrPlayerInGame      = errors.New("player is already in a game")
	ErrUnknownGameType   = errors.New("unknown game type")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
)
