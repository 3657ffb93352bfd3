package engine

import (
	"halma/internal/board"
	"halma/internal/core"

	"golang.org/x/exp/constraints"
)

// Weights tune the heuristic terms
type Weights struct {
	CornerBonus     float64 // per piece parked on the far corner of the target camp
	BlockingPenalty float64 // per (piece on target) x (unfilled target) pair
}

var DefaultWeights = Weights{
	CornerBonus:     50,
	BlockingPenalty: 1,
}

// Evaluator scores positions with a distance/bonus/penalty heuristic.
type Evaluator struct {
	w Weights
}

func NewEvaluator(w Weights) *Evaluator {
	return &Evaluator{w: w}
}

// Score rates the board from player's point of view; larger is better for player.
//
//	score = (opponent mean distance - player mean distance)
//	      + CornerBonus * (player corner - opponent corner)
//	      - BlockingPenalty * player blocking
func (e *Evaluator) Score(b *board.Board, player core.Color) float64 {
	opp := player.Opponent()

	score := MeanDistance(b, opp) - MeanDistance(b, player)
	score += e.w.CornerBonus * float64(cornerCount(b, player)-cornerCount(b, opp))
	score -= e.w.BlockingPenalty * float64(Blocking(b, player))
	return score
}

// MeanDistance is the mean squared distance of c's pieces to their nearest
// target cell. A side without pieces scores 0.
func MeanDistance(b *board.Board, c core.Color) float64 {
	ids := b.PieceIDs(c)
	sum := 0
	for _, id := range ids {
		sum += b.TargetDistance(c, b.Piece(id).Pos)
	}
	return mean(sum, len(ids))
}

// Blocking counts, for every piece of c already on a target cell, each target
// cell c has not filled yet.
func Blocking(b *board.Board, c core.Color) int {
	on := b.OnTarget(c)
	unfilled := len(b.Targets(c)) - on
	return on * unfilled
}

func cornerCount(b *board.Board, c core.Color) int {
	if p, ok := b.PieceAt(b.Corner(c)); ok && p.Color == c {
		return 1
	}
	return 0
}

func mean[T constraints.Integer](sum T, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}
