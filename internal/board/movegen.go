package board

import (
	"slices"

	"halma/internal/core"
)

// directions covers the 8 neighbors: orthogonal first, then diagonal
var directions = [8]core.Position{
	{Row: -1, Col: 0}, {Row: 1, Col: 0}, {Row: 0, Col: -1}, {Row: 0, Col: 1},
	{Row: -1, Col: -1}, {Row: -1, Col: 1}, {Row: 1, Col: -1}, {Row: 1, Col: 1},
}

type frontier struct {
	at     core.Position
	prev   core.Position
	jumped bool
}

// LegalMoves returns every cell the piece can reach this turn in row-major order:
// single steps to empty neighbors from its own cell, plus every landing cell of
// a jump chain. Each cell is expanded at most once per call, so cyclic jump
// graphs terminate.
func (b *Board) LegalMoves(id int) []core.Position {
	start := b.pieces[id].Pos
	visited := make([]bool, b.size*b.size)
	found := make([]bool, b.size*b.size)
	var moves []core.Position

	add := func(p core.Position) {
		if i := b.cell(p); !found[i] {
			found[i] = true
			moves = append(moves, p)
		}
	}

	stack := []frontier{{at: start}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[b.cell(f.at)] {
			continue
		}
		visited[b.cell(f.at)] = true

		for _, d := range directions {
			over := core.Pos(f.at.Row+d.Row, f.at.Col+d.Col)
			if !b.InBounds(over) {
				continue
			}
			if !b.Occupied(over) {
				// Steps only from the starting cell, never after a jump
				if !f.jumped {
					add(over)
				}
				continue
			}

			land := core.Pos(over.Row+d.Row, over.Col+d.Col)
			if !b.InBounds(land) || b.Occupied(land) {
				continue
			}
			if f.jumped && land == f.prev {
				continue
			}
			add(land)
			stack = append(stack, frontier{at: land, prev: f.at, jumped: true})
		}
	}

	slices.SortFunc(moves, comparePositions)
	return moves
}

// IsLegal reports whether to is among the piece's legal destinations.
func (b *Board) IsLegal(id int, to core.Position) bool {
	if !b.InBounds(to) {
		return false
	}
	_, ok := slices.BinarySearchFunc(b.LegalMoves(id), to, comparePositions)
	return ok
}

// HasMoves reports whether any piece of c can move.
func (b *Board) HasMoves(c core.Color) bool {
	for _, id := range b.PieceIDs(c) {
		if len(b.LegalMoves(id)) > 0 {
			return true
		}
	}
	return false
}
