package engine

import "math"

// MaxScore is a certain win; -MaxScore a certain loss. Heuristic scores stay
// strictly between them.
const MaxScore = math.MaxInt32

const (
	heuristicCap  = MaxScore / 2
	openEndsBonus = 10
)

type Evaluator interface {
	Score(board *Board, player Player) int
}

// LineEvaluator scores open runs along rows, columns and both diagonals.
type LineEvaluator struct{}

func NewLineEvaluator() *LineEvaluator {
	return &LineEvaluator{}
}

func (that *LineEvaluator) Score(board *Board, player Player) int {
	switch outcome := board.Outcome(); outcome.Status {
	case Win:
		if outcome.Winner == player {
			return MaxScore
		}
		return -MaxScore
	case Draw:
		return 0
	}

	own := runsValue(board, player)
	opp := runsValue(board, player.Opponent())

	return clamp(own-opp, -heuristicCap, heuristicCap)
}

// runsValue sums 10^len for every maximal run of player, times 10 when both
// ends are open. Runs with no open end, or without room to reach the win
// length, count for nothing.
func runsValue(board *Board, player Player) int {
	size := board.Size()
	total := 0

	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if board.At(row, col) != player {
				continue
			}

			for _, dir := range directions {
				dr, dc := dir[0], dir[1]

				// count each run once, from its first cell
				if board.InBounds(row-dr, col-dc) && board.At(row-dr, col-dc) == player {
					continue
				}

				total += runValue(board, row, col, dr, dc, player)
				if total >= heuristicCap {
					return heuristicCap
				}
			}
		}
	}

	return total
}

func runValue(board *Board, row, col, dr, dc int, player Player) int {
	length := 1
	r, c := row+dr, col+dc
	for board.InBounds(r, c) && board.At(r, c) == player {
		length++
		r, c = r+dr, c+dc
	}

	if length >= board.WinLength() {
		return heuristicCap
	}

	openEnds := 0
	if board.InBounds(r, c) && board.At(r, c) == Nobody {
		openEnds++
	}
	if board.InBounds(row-dr, col-dc) && board.At(row-dr, col-dc) == Nobody {
		openEnds++
	}
	if openEnds == 0 {
		return 0
	}

	room := length + freeSpan(board, r, c, dr, dc, player) + freeSpan(board, row-dr, col-dc, -dr, -dc, player)
	if room < board.WinLength() {
		return 0
	}

	value := pow10(length)
	if openEnds == 2 {
		value *= openEndsBonus
	}

	return value
}

// freeSpan counts cells from (row,col) onwards that player could still fill.
func freeSpan(board *Board, row, col, dr, dc int, player Player) int {
	span := 0
	for board.InBounds(row, col) && span < board.WinLength() {
		if cell := board.At(row, col); cell != Nobody && cell != player {
			break
		}
		span++
		row, col = row+dr, col+dc
	}
	return span
}

func pow10(n int) int {
	value := 1
	for range n {
		value *= 10
		if value >= heuristicCap {
			return heuristicCap
		}
	}
	return value
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
