package engine

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegalMoves(t *testing.T) {
	t.Run("Yields every empty cell except the taken one", func(t *testing.T) {
		// Given: X has played (5,5)
		board := NewBoard(DefaultBoardSize, DefaultWinLength)
		require.NoError(t, board.Apply(NewMove(5, 5, PlayerX)))

		// When: collecting O's legal moves
		moves := slices.Collect(LegalMoves(board, PlayerO))

		// Then: 99 distinct moves for O, none at (5,5)
		require.Len(t, moves, 99)

		seen := make(map[[2]int]struct{}, len(moves))
		for _, move := range moves {
			assert.Equal(t, PlayerO, move.Player)
			assert.False(t, move.Row == 5 && move.Col == 5)
			seen[[2]int{move.Row, move.Col}] = struct{}{}
		}
		assert.Len(t, seen, 99)
	})

	t.Run("Neighbours of existing pieces come first", func(t *testing.T) {
		// Given: a single piece at (5,5)
		board := NewBoard(DefaultBoardSize, DefaultWinLength)
		require.NoError(t, board.Apply(NewMove(5, 5, PlayerX)))

		// When: taking the first eight moves
		var first []Move
		for move := range LegalMoves(board, PlayerO) {
			first = append(first, move)
			if len(first) == 8 {
				break
			}
		}

		// Then: they are exactly the adjacent cells
		require.Len(t, first, 8)
		for _, move := range first {
			assert.LessOrEqual(t, abs(move.Row-5), 1)
			assert.LessOrEqual(t, abs(move.Col-5), 1)
		}
	})

	t.Run("Order is deterministic and the sequence restartable", func(t *testing.T) {
		// Given: a board with a few pieces
		board := NewBoard(DefaultBoardSize, DefaultWinLength)
		applyAll(t, board, PlayerX, [2]int{5, 5}, [2]int{2, 7})
		applyAll(t, board, PlayerO, [2]int{4, 4})

		// When: iterating the same sequence twice and a fresh one once
		seq := LegalMoves(board, PlayerX)
		first := slices.Collect(seq)
		second := slices.Collect(seq)
		fresh := slices.Collect(LegalMoves(board.Clone(), PlayerX))

		// Then: all three orders are identical
		assert.Equal(t, first, second)
		assert.Equal(t, first, fresh)
	})

	t.Run("Full board yields nothing", func(t *testing.T) {
		board := NewBoard(DefaultBoardSize, DefaultWinLength)
		for row := 0; row < DefaultBoardSize; row++ {
			for col := 0; col < DefaultBoardSize; col++ {
				require.NoError(t, board.Apply(NewMove(row, col, drawPattern(row, col))))
			}
		}

		assert.Empty(t, slices.Collect(LegalMoves(board, PlayerX)))
	})
}

func TestCandidates(t *testing.T) {
	t.Run("Empty board yields the centre only", func(t *testing.T) {
		board := NewBoard(DefaultBoardSize, DefaultWinLength)

		moves := slices.Collect(Candidates(board, PlayerX, 2))

		assert.Equal(t, []Move{NewMove(5, 5, PlayerX)}, moves)
	})

	t.Run("Empty board without radius yields every cell", func(t *testing.T) {
		board := NewBoard(DefaultBoardSize, DefaultWinLength)

		moves := slices.Collect(Candidates(board, PlayerX, 0))

		assert.Len(t, moves, 100)
	})

	t.Run("Radius limits moves to the neighbourhood", func(t *testing.T) {
		// Given: a single piece at (5,5)
		board := NewBoard(DefaultBoardSize, DefaultWinLength)
		require.NoError(t, board.Apply(NewMove(5, 5, PlayerX)))

		// When: asking for candidates at radius 1 and 2
		near := slices.Collect(Candidates(board, PlayerO, 1))
		wide := slices.Collect(Candidates(board, PlayerO, 2))

		// Then: the 3x3 and 5x5 rings around it
		assert.Len(t, near, 8)
		assert.Len(t, wide, 24)
		assert.Equal(t, near, wide[:8])
	})

	t.Run("Radius is clipped at the border", func(t *testing.T) {
		// Given: a single piece in the corner
		board := NewBoard(DefaultBoardSize, DefaultWinLength)
		require.NoError(t, board.Apply(NewMove(0, 0, PlayerX)))

		// When: asking for candidates at radius 1
		moves := slices.Collect(Candidates(board, PlayerO, 1))

		// Then: only three neighbours exist
		assert.ElementsMatch(t, []Move{
			NewMove(0, 1, PlayerO),
			NewMove(1, 0, PlayerO),
			NewMove(1, 1, PlayerO),
		}, moves)
	})
}
