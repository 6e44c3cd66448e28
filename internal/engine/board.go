package engine

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultBoardSize = 10
	DefaultWinLength = 5
)

var (
	ErrInvalidMove  = errors.New("invalid move")
	ErrOutOfRange   = fmt.Errorf("%w: cell out of range", ErrInvalidMove)
	ErrCellOccupied = fmt.Errorf("%w: cell is already occupied", ErrInvalidMove)
	ErrNoPlayer     = fmt.Errorf("%w: move has no player", ErrInvalidMove)
)

// Player is the content of a cell; Nobody marks an empty cell.
type Player uint8

const (
	Nobody Player = iota
	PlayerX
	PlayerO
)

func (p Player) Opponent() Player {
	switch p {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return Nobody
	}
}

func (p Player) String() string {
	switch p {
	case PlayerX:
		return "X"
	case PlayerO:
		return "O"
	default:
		return ""
	}
}

// ParsePlayer is the inverse of Player.String.
func ParsePlayer(mark string) (Player, error) {
	switch mark {
	case "X":
		return PlayerX, nil
	case "O":
		return PlayerO, nil
	case "":
		return Nobody, nil
	default:
		return Nobody, fmt.Errorf("unknown player mark %q", mark)
	}
}

type Move struct {
	Row    int
	Col    int
	Player Player
}

func NewMove(row, col int, player Player) Move {
	return Move{Row: row, Col: col, Player: player}
}

func (m Move) String() string {
	return fmt.Sprintf("%s(%d,%d)", m.Player, m.Row, m.Col)
}

type Status uint8

const (
	InProgress Status = iota
	Win
	Draw
)

func (s Status) String() string {
	switch s {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Outcome is derived from a board and never stored on it.
type Outcome struct {
	Status Status
	Winner Player
}

func (o Outcome) IsTerminal() bool {
	return o.Status != InProgress
}

func (o Outcome) String() string {
	if o.Status == Win {
		return "win(" + o.Winner.String() + ")"
	}
	return o.Status.String()
}

// lines through a cell: horizontal, vertical, diagonal, anti-diagonal.
var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {-1, 1}}

// Board is a square grid mutated in place by Apply and Undo.
// It is not safe for concurrent use; search works on clones when parallel.
type Board struct {
	size      int
	winLength int
	cells     []Player
	moveCount int
	history   []Move
}

func NewBoard(size, winLength int) *Board {
	return &Board{
		size:      size,
		winLength: winLength,
		cells:     make([]Player, size*size),
		history:   make([]Move, 0, size*size),
	}
}

func (that *Board) Size() int {
	return that.size
}

func (that *Board) WinLength() int {
	return that.winLength
}

func (that *Board) MoveCount() int {
	return that.moveCount
}

func (that *Board) IsFull() bool {
	return that.moveCount == len(that.cells)
}

func (that *Board) InBounds(row, col int) bool {
	return row >= 0 && col >= 0 && row < that.size && col < that.size
}

// At panics on out of range coordinates, like a slice index would.
func (that *Board) At(row, col int) Player {
	return that.cells[row*that.size+col]
}

// LastMove returns the most recently applied move, if any.
func (that *Board) LastMove() (Move, bool) {
	if len(that.history) == 0 {
		return Move{}, false
	}
	return that.history[len(that.history)-1], true
}

// Apply places move.Player on the target cell. The board is unchanged on error.
func (that *Board) Apply(move Move) error {
	if move.Player != PlayerX && move.Player != PlayerO {
		return ErrNoPlayer
	}

	if !that.InBounds(move.Row, move.Col) {
		return fmt.Errorf("%w: (%d,%d)", ErrOutOfRange, move.Row, move.Col)
	}

	idx := move.Row*that.size + move.Col
	if that.cells[idx] != Nobody {
		return fmt.Errorf("%w: (%d,%d)", ErrCellOccupied, move.Row, move.Col)
	}

	that.cells[idx] = move.Player
	that.moveCount++
	that.history = append(that.history, move)

	return nil
}

// Undo reverts move, which must be the last applied one.
func (that *Board) Undo(move Move) {
	last, ok := that.LastMove()
	if !ok || last != move {
		panic(fmt.Sprintf("engine: undo %v does not match last applied move", move))
	}

	that.cells[move.Row*that.size+move.Col] = Nobody
	that.moveCount--
	that.history = that.history[:len(that.history)-1]
}

// Push applies move and returns a release func that undoes it exactly once.
func (that *Board) Push(move Move) (func(), error) {
	if err := that.Apply(move); err != nil {
		return nil, err
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		that.Undo(move)
	}, nil
}

// CheckTerminal inspects only the four lines through last.
func (that *Board) CheckTerminal(last Move) Outcome {
	if that.InBounds(last.Row, last.Col) {
		if player := that.At(last.Row, last.Col); player != Nobody {
			for _, dir := range directions {
				if that.runLength(last.Row, last.Col, dir[0], dir[1], player) >= that.winLength {
					return Outcome{Status: Win, Winner: player}
				}
			}
		}
	}

	if that.IsFull() {
		return Outcome{Status: Draw}
	}

	return Outcome{Status: InProgress}
}

func (that *Board) Outcome() Outcome {
	last, ok := that.LastMove()
	if !ok {
		return that.scanOutcome()
	}

	return that.CheckTerminal(last)
}

// scanOutcome is the whole-board check used for boards loaded without history.
func (that *Board) scanOutcome() Outcome {
	for row := 0; row < that.size; row++ {
		for col := 0; col < that.size; col++ {
			if that.At(row, col) == Nobody {
				continue
			}
			if outcome := that.CheckTerminal(Move{Row: row, Col: col}); outcome.Status == Win {
				return outcome
			}
		}
	}

	if that.IsFull() {
		return Outcome{Status: Draw}
	}

	return Outcome{Status: InProgress}
}

// WinningLine returns the cells of the winning run through last, or nil.
func (that *Board) WinningLine(last Move) []Move {
	if !that.InBounds(last.Row, last.Col) {
		return nil
	}

	player := that.At(last.Row, last.Col)
	if player == Nobody {
		return nil
	}

	for _, dir := range directions {
		if that.runLength(last.Row, last.Col, dir[0], dir[1], player) < that.winLength {
			continue
		}

		row, col := last.Row, last.Col
		for that.InBounds(row-dir[0], col-dir[1]) && that.At(row-dir[0], col-dir[1]) == player {
			row, col = row-dir[0], col-dir[1]
		}

		line := make([]Move, 0, that.winLength)
		for that.InBounds(row, col) && that.At(row, col) == player {
			line = append(line, Move{Row: row, Col: col, Player: player})
			row, col = row+dir[0], col+dir[1]
		}

		return line
	}

	return nil
}

func (that *Board) runLength(row, col, dr, dc int, player Player) int {
	count := 1
	for r, c := row+dr, col+dc; that.InBounds(r, c) && that.At(r, c) == player; r, c = r+dr, c+dc {
		count++
	}
	for r, c := row-dr, col-dc; that.InBounds(r, c) && that.At(r, c) == player; r, c = r-dr, c-dc {
		count++
	}
	return count
}

func (that *Board) Clone() *Board {
	clone := &Board{
		size:      that.size,
		winLength: that.winLength,
		cells:     make([]Player, len(that.cells)),
		moveCount: that.moveCount,
		history:   make([]Move, len(that.history), that.size*that.size),
	}
	copy(clone.cells, that.cells)
	copy(clone.history, that.history)
	return clone
}

// Cells returns a row-major snapshot of the grid.
func (that *Board) Cells() [][]Player {
	grid := make([][]Player, that.size)
	for row := range grid {
		grid[row] = make([]Player, that.size)
		copy(grid[row], that.cells[row*that.size:(row+1)*that.size])
	}
	return grid
}

// Load replaces the grid with a snapshot. The move history is lost, so the
// outcome of a loaded board is found by a whole-board scan until the next move.
func (that *Board) Load(grid [][]Player) error {
	if len(grid) != that.size {
		return fmt.Errorf("%w: expected %d rows, got %d", ErrOutOfRange, that.size, len(grid))
	}

	cells := make([]Player, len(that.cells))
	count := 0
	for row, line := range grid {
		if len(line) != that.size {
			return fmt.Errorf("%w: row %d has %d cells", ErrOutOfRange, row, len(line))
		}
		for col, cell := range line {
			if cell > PlayerO {
				return fmt.Errorf("%w: unknown cell value %d at (%d,%d)", ErrInvalidMove, cell, row, col)
			}
			if cell != Nobody {
				count++
			}
			cells[row*that.size+col] = cell
		}
	}

	that.cells = cells
	that.moveCount = count
	that.history = that.history[:0]

	return nil
}

func (that *Board) String() string {
	var sb strings.Builder

	sb.WriteString("   ")
	for col := 0; col < that.size; col++ {
		fmt.Fprintf(&sb, "%2d", col)
	}
	sb.WriteByte('\n')

	for row := 0; row < that.size; row++ {
		fmt.Fprintf(&sb, "%2d ", row)
		for col := 0; col < that.size; col++ {
			mark := that.At(row, col).String()
			if mark == "" {
				mark = "."
			}
			sb.WriteString(" " + mark)
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}
