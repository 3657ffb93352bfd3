package engine

import (
	"context"
	"errors"
	"math"
	"time"

	"halma/internal/board"
	"halma/internal/core"

	"github.com/rs/zerolog/log"
)

const (
	DefaultDepth = 3
	MaxDepth     = 8

	// LargeSearchLimit bounds searches with no explicit time limit once the
	// board area times the depth exceeds largeSearchWork
	LargeSearchLimit = 5 * time.Second
	largeSearchWork  = 256

	// nodes between deadline checks inside the tree
	checkInterval = 512
)

var ErrNoLegalMoves = errors.New("no legal moves")

// SearchResult is the root move chosen by a search and its score from the
// searching side's perspective.
type SearchResult struct {
	PieceID int
	From    core.Position
	To      core.Position
	Score   float64
	Depth   int
	Nodes   int
	Cutoffs int
	Elapsed time.Duration
	Partial bool // search stopped early, move is the best fully searched one
}

// Engine runs a fixed-depth minimax search with alpha-beta pruning.
//
// The tree grows as (moves per position)^depth. An 8x8 opening already offers
// 20-40 moves per side, so depth 3 visits tens of thousands of nodes and every
// extra ply multiplies that. Searches without WithTimeLimit are still capped at
// LargeSearchLimit when size*size*depth exceeds 256 (8x8 at depth 5, 10x10 at
// depth 3).
type Engine struct {
	depth     int
	eval      *Evaluator
	timeLimit time.Duration
	pruning   bool
	now       func() time.Time
}

type Option func(*Engine)

func WithDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.depth = min(depth, MaxDepth)
		}
	}
}

func WithEvaluator(eval *Evaluator) Option {
	return func(e *Engine) {
		if eval != nil {
			e.eval = eval
		}
	}
}

// WithTimeLimit bounds a search; zero means unbounded.
func WithTimeLimit(limit time.Duration) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.timeLimit = limit
		}
	}
}

// WithoutPruning makes the engine run plain minimax. Results are identical,
// only slower; used to cross-check the pruned search.
func WithoutPruning() Option {
	return func(e *Engine) {
		e.pruning = false
	}
}

func New(options ...Option) *Engine {
	e := &Engine{ // Default values
		depth:   DefaultDepth,
		eval:    NewEvaluator(DefaultWeights),
		pruning: true,
		now:     time.Now,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

func (e *Engine) Depth() int {
	return e.depth
}

type candidate struct {
	id   int
	from core.Position
	to   core.Position
}

// candidates lists every (piece, destination) pair of the mover in piece ID order
func candidates(b *board.Board, mover core.Color) []candidate {
	var moves []candidate
	for _, id := range b.PieceIDs(mover) {
		from := b.Piece(id).Pos
		for _, to := range b.LegalMoves(id) {
			moves = append(moves, candidate{id: id, from: from, to: to})
		}
	}
	return moves
}

// search holds the state of one BestMove call
type search struct {
	ctx      context.Context
	b        *board.Board
	ai       core.Color
	eval     *Evaluator
	pruning  bool
	deadline time.Time
	now      func() time.Time

	nodes   int
	cutoffs int
	stopped bool
}

// BestMove searches for ai's best move on b. The board is mutated during the
// search and restored before returning. Every leaf is scored from ai's
// perspective: nodes where ai moves maximize, the others minimize.
func (e *Engine) BestMove(ctx context.Context, b *board.Board, ai core.Color) (SearchResult, error) {
	start := e.now()
	moves := candidates(b, ai)
	if len(moves) == 0 {
		return SearchResult{}, ErrNoLegalMoves
	}

	s := &search{
		ctx:     ctx,
		b:       b,
		ai:      ai,
		eval:    e.eval,
		pruning: e.pruning,
		now:     e.now,
	}
	if limit := e.limitFor(b); limit > 0 {
		s.deadline = start.Add(limit)
	}

	best := -1
	bestScore := math.Inf(-1)
	alpha, beta := math.Inf(-1), math.Inf(1)

	for i, m := range moves {
		if s.expired(true) {
			break
		}
		v := s.child(m, ai.Opponent(), e.depth-1, alpha, beta)
		if s.stopped {
			// The subtree was cut short; its value is not trustworthy
			break
		}
		if v > bestScore {
			best, bestScore = i, v
		}
		if s.pruning && v > alpha {
			alpha = v
		}
	}

	if best < 0 {
		// Stopped before any root move finished: fall back to the first one
		best = 0
		undo := b.Apply(moves[0].id, moves[0].to)
		bestScore = e.eval.Score(b, ai)
		undo()
	}

	m := moves[best]
	result := SearchResult{
		PieceID: m.id,
		From:    m.from,
		To:      m.to,
		Score:   bestScore,
		Depth:   e.depth,
		Nodes:   s.nodes,
		Cutoffs: s.cutoffs,
		Elapsed: e.now().Sub(start),
		Partial: s.stopped,
	}

	log.Debug().
		Str("color", ai.String()).
		Int("depth", result.Depth).
		Int("nodes", result.Nodes).
		Int("cutoffs", result.Cutoffs).
		Float64("score", result.Score).
		Bool("partial", result.Partial).
		Dur("elapsed", result.Elapsed).
		Msgf("search chose piece %d %v -> %v", m.id, m.from, m.to)

	return result, nil
}

// limitFor returns the time limit for a search on b, zero when unbounded
func (e *Engine) limitFor(b *board.Board) time.Duration {
	if e.timeLimit > 0 {
		return e.timeLimit
	}
	if b.Size()*b.Size()*e.depth > largeSearchWork {
		return LargeSearchLimit
	}
	return 0
}

// child applies m, searches the resulting position and always undoes m
func (s *search) child(m candidate, mover core.Color, depth int, alpha, beta float64) float64 {
	undo := s.b.Apply(m.id, m.to)
	defer undo()
	return s.minimax(mover, depth, alpha, beta)
}

func (s *search) minimax(mover core.Color, depth int, alpha, beta float64) float64 {
	s.nodes++

	if depth == 0 || s.b.HasWon(core.ColorGreen) || s.b.HasWon(core.ColorRed) {
		return s.eval.Score(s.b, s.ai)
	}
	moves := candidates(s.b, mover)
	if len(moves) == 0 {
		return s.eval.Score(s.b, s.ai)
	}

	maximizing := mover == s.ai
	best := math.Inf(1)
	if maximizing {
		best = math.Inf(-1)
	}

	for _, m := range moves {
		if s.expired(false) {
			break
		}
		v := s.child(m, mover.Opponent(), depth-1, alpha, beta)

		if maximizing {
			best = max(best, v)
			if s.pruning {
				alpha = max(alpha, v)
			}
		} else {
			best = min(best, v)
			if s.pruning {
				beta = min(beta, v)
			}
		}
		if s.pruning && beta <= alpha {
			s.cutoffs++
			break
		}
	}
	return best
}

// expired reports whether the search must stop. Inside the tree the clock is
// only read every checkInterval nodes.
func (s *search) expired(force bool) bool {
	if s.stopped {
		return true
	}
	if !force && s.nodes%checkInterval != 0 {
		return false
	}
	if s.ctx.Err() != nil || (!s.deadline.IsZero() && !s.now().Before(s.deadline)) {
		s.stopped = true
	}
	return s.stopped
}
