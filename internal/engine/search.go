package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"runtime"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	ErrGameOver = errors.New("game is already over")
	ErrNoMoves  = errors.New("no legal moves")

	errSearchAborted = errors.New("search aborted")
)

// bounds strictly outside the evaluator range
const inf = math.MaxInt

type SearchConfig struct {
	MaxDepth        int
	TimeBudget      time.Duration
	CandidateRadius int
	Parallel        bool
	QuickWinExit    bool
}

type Result struct {
	Move    Move
	Score   int
	Depth   int
	Nodes   uint64
	Elapsed time.Duration

	// Completed is false when the time budget or ctx cut the search short
	// and Move comes from a shallower depth.
	Completed bool
}

// Searcher picks moves by minimax with alpha-beta pruning and iterative deepening.
type Searcher struct {
	logger    *slog.Logger
	config    SearchConfig
	evaluator Evaluator
}

func NewSearcher(logger *slog.Logger, config SearchConfig, evaluator Evaluator) *Searcher {
	if evaluator == nil {
		evaluator = NewLineEvaluator()
	}

	return &Searcher{
		logger:    logger.With("component", "searcher"),
		config:    config,
		evaluator: evaluator,
	}
}

func (that *Searcher) Config() SearchConfig {
	return that.config
}

// Search returns the best move for player on board. The board is mutated
// during the search and restored before Search returns, also on timeout.
func (that *Searcher) Search(ctx context.Context, board *Board, player Player) (Result, error) {
	log := that.logger.With("method", "Search", "player", player.String())
	start := time.Now()

	if player != PlayerX && player != PlayerO {
		return Result{}, ErrNoPlayer
	}

	if board.Outcome().IsTerminal() {
		return Result{}, ErrGameOver
	}

	moves := slices.Collect(that.moves(board, player))
	if len(moves) == 0 {
		return Result{}, ErrNoMoves
	}

	if that.config.QuickWinExit {
		if move, score, ok := that.forcedMove(board, player, moves); ok {
			log.Debug("forced move", "move", move.String(), "score", score)
			return Result{Move: move, Score: score, Depth: 1, Elapsed: time.Since(start), Completed: true}, nil
		}
	}

	if that.config.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, that.config.TimeBudget)
		defer cancel()
	}

	var nodes atomic.Uint64

	// fallback when not even depth 1 completes
	result := Result{Move: moves[0], Completed: true}

	for depth := 1; depth <= that.config.MaxDepth; depth++ {
		move, score, err := that.searchRoot(ctx, board, player, moves, depth, &nodes)
		if errors.Is(err, errSearchAborted) {
			log.Debug("search budget exceeded", "depth", depth, "nodes", nodes.Load(), "elapsed", time.Since(start))
			result.Completed = false
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("failed to search depth %d: %w", depth, err)
		}

		result.Move, result.Score, result.Depth = move, score, depth
		log.Debug("depth completed", "depth", depth, "move", move.String(), "score", score, "nodes", nodes.Load())

		// a proven win cannot get any faster at a deeper depth
		if score >= MaxScore-depth {
			break
		}
	}

	result.Nodes = nodes.Load()
	result.Elapsed = time.Since(start)

	log.Info("search finished",
		"move", result.Move.String(),
		"score", result.Score,
		"depth", result.Depth,
		"nodes", result.Nodes,
		"elapsed", result.Elapsed,
		"completed", result.Completed,
	)

	return result, nil
}

func (that *Searcher) searchRoot(ctx context.Context, board *Board, player Player, moves []Move, depth int, nodes *atomic.Uint64) (Move, int, error) {
	if that.config.Parallel && len(moves) > 1 {
		return that.searchRootParallel(ctx, board, player, moves, depth, nodes)
	}

	best, bestScore := moves[0], -inf
	alpha := -inf

	for _, move := range moves {
		score, err := that.child(ctx, board, move, depth-1, alpha, inf, false, player, 1, nodes)
		if err != nil {
			return Move{}, 0, err
		}

		// strict: ties keep the earlier move
		if score > bestScore {
			best, bestScore = move, score
		}
		alpha = max(alpha, score)
	}

	return best, bestScore, nil
}

// searchRootParallel searches every root move on its own board clone with a
// full window, so each score is exact and the merge matches searchRoot.
func (that *Searcher) searchRootParallel(ctx context.Context, board *Board, player Player, moves []Move, depth int, nodes *atomic.Uint64) (Move, int, error) {
	scores := make([]int, len(moves))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, move := range moves {
		branch := board.Clone()
		g.Go(func() error {
			score, err := that.child(gctx, branch, move, depth-1, -inf, inf, false, player, 1, nodes)
			if err != nil {
				return err
			}
			scores[i] = score
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Move{}, 0, err
	}

	best := 0
	for i := range scores {
		if scores[i] > scores[best] {
			best = i
		}
	}

	return moves[best], scores[best], nil
}

// child plays move, searches the resulting node and takes the move back,
// whichever way the search returns.
func (that *Searcher) child(ctx context.Context, board *Board, move Move, depth, alpha, beta int, maximizing bool, root Player, ply int, nodes *atomic.Uint64) (int, error) {
	release, err := board.Push(move)
	if err != nil {
		return 0, err
	}
	defer release()

	return that.alphaBeta(ctx, board, depth, alpha, beta, maximizing, root, ply, nodes)
}

func (that *Searcher) alphaBeta(ctx context.Context, board *Board, depth, alpha, beta int, maximizing bool, root Player, ply int, nodes *atomic.Uint64) (int, error) {
	nodes.Add(1)

	if ctx.Err() != nil {
		return 0, errSearchAborted
	}

	if depth == 0 || board.Outcome().IsTerminal() {
		return that.leaf(board, root, ply), nil
	}

	toMove := root
	value := -inf
	if !maximizing {
		toMove = root.Opponent()
		value = inf
	}

	searched := false
	for move := range that.moves(board, toMove) {
		score, err := that.child(ctx, board, move, depth-1, alpha, beta, !maximizing, root, ply+1, nodes)
		if err != nil {
			return 0, err
		}
		searched = true

		if maximizing {
			value = max(value, score)
			alpha = max(alpha, value)
		} else {
			value = min(value, score)
			beta = min(beta, value)
		}

		if alpha >= beta {
			break
		}
	}

	if !searched {
		return that.leaf(board, root, ply), nil
	}

	return value, nil
}

// leaf scores board for root; proven results are pulled towards zero by ply
// so that faster wins and slower losses are preferred.
func (that *Searcher) leaf(board *Board, root Player, ply int) int {
	score := that.evaluator.Score(board, root)

	switch {
	case score >= MaxScore:
		return score - ply
	case score <= -MaxScore:
		return score + ply
	default:
		return score
	}
}

// forcedMove finds an immediate win for player, or else a cell that blocks
// the opponent's immediate win.
func (that *Searcher) forcedMove(board *Board, player Player, moves []Move) (Move, int, bool) {
	for _, move := range moves {
		if completesLine(board, move) {
			return move, MaxScore - 1, true
		}
	}

	for _, move := range moves {
		threat := Move{Row: move.Row, Col: move.Col, Player: player.Opponent()}
		if !completesLine(board, threat) {
			continue
		}

		release, err := board.Push(move)
		if err != nil {
			continue
		}
		score := that.leaf(board, player, 1)
		release()

		return move, score, true
	}

	return Move{}, 0, false
}

func completesLine(board *Board, move Move) bool {
	release, err := board.Push(move)
	if err != nil {
		return false
	}
	defer release()

	return board.CheckTerminal(move).Status == Win
}

func (that *Searcher) moves(board *Board, player Player) iter.Seq[Move] {
	return Candidates(board, player, that.config.CandidateRadius)
}

// minimaxRoot is the unpruned reference for searchRoot at a fixed depth.
func (that *Searcher) minimaxRoot(board *Board, player Player, depth int) (Move, int) {
	moves := slices.Collect(that.moves(board, player))
	best, bestScore := moves[0], -inf

	for _, move := range moves {
		release, err := board.Push(move)
		if err != nil {
			continue
		}
		score := that.minimax(board, depth-1, false, player, 1)
		release()

		if score > bestScore {
			best, bestScore = move, score
		}
	}

	return best, bestScore
}

func (that *Searcher) minimax(board *Board, depth int, maximizing bool, root Player, ply int) int {
	if depth == 0 || board.Outcome().IsTerminal() {
		return that.leaf(board, root, ply)
	}

	toMove := root
	value := -inf
	if !maximizing {
		toMove = root.Opponent()
		value = inf
	}

	for move := range that.moves(board, toMove) {
		release, err := board.Push(move)
		if err != nil {
			continue
		}
		score := that.minimax(board, depth-1, !maximizing, root, ply+1)
		release()

		if maximizing {
			value = max(value, score)
		} else {
			value = min(value, score)
		}
	}

	return value
}
