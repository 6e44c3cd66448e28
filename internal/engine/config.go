package engine

import (
	"errors"
	"fmt"
	"time"
)

const (
	EasyDifficulty   = "easy"
	MediumDifficulty = "medium"
	HardDifficulty   = "hard"
)

var ErrInvalidConfig = errors.New("invalid engine config")

// Config is passed explicitly to every game; there is no global engine state.
type Config struct {
	BoardSize        int
	WinLength        int
	MaxSearchDepth   int
	SearchTimeBudget time.Duration
	CandidateRadius  int
	Parallel         bool
	QuickWinExit     bool
}

func DefaultConfig() Config {
	return Config{
		BoardSize:       DefaultBoardSize,
		WinLength:       DefaultWinLength,
		MaxSearchDepth:  DepthForDifficulty(MediumDifficulty),
		CandidateRadius: 2,
		QuickWinExit:    true,
	}
}

func (that Config) Validate() error {
	switch {
	case that.BoardSize < 1:
		return fmt.Errorf("%w: board size %d", ErrInvalidConfig, that.BoardSize)
	case that.WinLength < 1 || that.WinLength > that.BoardSize:
		return fmt.Errorf("%w: win length %d on a %dx%d board", ErrInvalidConfig, that.WinLength, that.BoardSize, that.BoardSize)
	case that.MaxSearchDepth < 1:
		return fmt.Errorf("%w: max search depth %d", ErrInvalidConfig, that.MaxSearchDepth)
	case that.SearchTimeBudget < 0:
		return fmt.Errorf("%w: negative search time budget", ErrInvalidConfig)
	}

	return nil
}

// WithDifficulty returns a copy searching to the difficulty's depth.
func (that Config) WithDifficulty(difficulty string) Config {
	that.MaxSearchDepth = DepthForDifficulty(difficulty)
	return that
}

func (that Config) SearchConfig() SearchConfig {
	return SearchConfig{
		MaxDepth:        that.MaxSearchDepth,
		TimeBudget:      that.SearchTimeBudget,
		CandidateRadius: that.CandidateRadius,
		Parallel:        that.Parallel,
		QuickWinExit:    that.QuickWinExit,
	}
}

func (that Config) NewBoard() *Board {
	return NewBoard(that.BoardSize, that.WinLength)
}

// DepthForDifficulty maps a difficulty name to a ply limit; unknown names get medium.
func DepthForDifficulty(difficulty string) int {
	switch difficulty {
	case EasyDifficulty:
		return 2
	case HardDifficulty:
		return 4
	default:
		return 3
	}
}
