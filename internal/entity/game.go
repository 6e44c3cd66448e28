package entity

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/connectz-backend/internal/apperror"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"

	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "-"

	EmptyCell = ""
)

const (
	LocalType   = "local"
	WithBotType = "bot"
)

const (
	EasyDifficulty   = "easy"
	MediumDifficulty = "medium"
	HardDifficulty   = "hard"
)

var ErrUnknownGameStatus = errors.New("unknown game status")

type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type Game struct {
	ID          string     `json:"id"`
	Board       [][]string `json:"board"`
	MoveCount   int        `json:"move_count"`
	Winner      string     `json:"winner"`
	Status      string     `json:"status"`
	Turn        string     `json:"player_turn"`
	Players     []*Player  `json:"players,omitempty"`
	Type        string     `json:"type,omitempty"`
	Difficulty  string     `json:"difficulty,omitempty"`
	BotMark     string     `json:"bot_mark,omitempty"`
	LastMove    *Cell      `json:"last_move,omitempty"`
	WinningLine []Cell     `json:"winning_line,omitempty"`
}

func NewGame(id, gameType string, size int) *Game {
	board := make([][]string, size)
	for row := range board {
		board[row] = make([]string, size)
	}

	return &Game{
		ID:     id,
		Board:  board,
		Turn:   PlayerX,
		Status: StatusWaiting,
		Type:   gameType,
	}
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

func (that *Game) IsWithBot() bool {
	return that.Type == WithBotType
}

func (that *Game) IsLocal() bool {
	return that.Type == LocalType
}

// Bot returns the bot player of the game, or nil.
func (that *Game) Bot() *Player {
	for _, player := range that.Players {
		if player.IsBot() {
			return player
		}
	}
	return nil
}

func (that *Game) PlayerByID(id string) *Player {
	for _, player := range that.Players {
		if player.ID == id {
			return player
		}
	}
	return nil
}

// MarkFor is the mark the player moves with now. In a local game one
// player moves for both sides.
func (that *Game) MarkFor(player *Player) string {
	if that.IsLocal() {
		return that.Turn
	}
	return player.Mark
}

// Finish sets the result; winner is PlayerX, PlayerO or PlayerTie.
func (that *Game) Finish(winner string) {
	that.Winner = winner
	that.Status = StatusFinished
	that.Turn = ""
}

func (that *Game) GetRandomMarks() (string, string) {
	if rand.Intn(2) == 0 { //nolint: gosec // it's ok
		return PlayerX, PlayerO
	}
	return PlayerO, PlayerX
}

func OppositeMark(mark string) string {
	if mark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
