package engine

import (
	"iter"
	"sort"
)

// neighbour weights by Chebyshev distance; index 0 is unused.
var proximityWeights = [...]int{0, 4, 1}

type rankedMove struct {
	move      Move
	proximity int
	centre    int
}

// LegalMoves yields every empty cell for player, best candidates first.
// Each call returns a fresh sequence and the order only depends on the board.
func LegalMoves(board *Board, player Player) iter.Seq[Move] {
	return Candidates(board, player, 0)
}

// Candidates is LegalMoves restricted to empty cells within radius of a
// piece. A radius of zero or less yields every empty cell. On an empty board
// a positive radius yields the centre only.
func Candidates(board *Board, player Player, radius int) iter.Seq[Move] {
	return func(yield func(Move) bool) {
		for _, ranked := range rankMoves(board, player, radius) {
			if !yield(ranked.move) {
				return
			}
		}
	}
}

func rankMoves(board *Board, player Player, radius int) []rankedMove {
	size := board.Size()
	if radius > 0 && board.MoveCount() == 0 {
		centre := size / 2
		return []rankedMove{{move: Move{Row: centre, Col: centre, Player: player}}}
	}

	// doubled so the centre of an even board is exact
	mid := size - 1
	ranked := make([]rankedMove, 0, size*size-board.MoveCount())

	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if board.At(row, col) != Nobody {
				continue
			}

			proximity, nearest := neighbourhood(board, row, col)
			if radius > 0 && (nearest == 0 || nearest > radius) {
				continue
			}

			ranked = append(ranked, rankedMove{
				move:      Move{Row: row, Col: col, Player: player},
				proximity: proximity,
				centre:    abs(2*row-mid) + abs(2*col-mid),
			})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].proximity != ranked[j].proximity {
			return ranked[i].proximity > ranked[j].proximity
		}
		return ranked[i].centre < ranked[j].centre
	})

	return ranked
}

// neighbourhood scores the pieces within distance 2 and reports the
// distance of the nearest one, 0 when there is none in range.
func neighbourhood(board *Board, row, col int) (int, int) {
	proximity, nearest := 0, 0
	reach := len(proximityWeights) - 1

	for dr := -reach; dr <= reach; dr++ {
		for dc := -reach; dc <= reach; dc++ {
			r, c := row+dr, col+dc
			if (dr == 0 && dc == 0) || !board.InBounds(r, c) || board.At(r, c) == Nobody {
				continue
			}

			dist := max(abs(dr), abs(dc))
			proximity += proximityWeights[dist]
			if nearest == 0 || dist < nearest {
				nearest = dist
			}
		}
	}

	return proximity, nearest
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
