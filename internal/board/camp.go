package board

import (
	"fmt"

	"halma/internal/core"
)

// CampShape generates the triangular home camp of green in the top-left corner.
// Red's camp is always the point reflection of green's through the board center,
// so one shape describes both camps and both win conditions.
type CampShape struct {
	Name  string
	Depth func(size int) int // cells with row+col < depth belong to the camp
}

var (
	// TriangleCamp places 6 pieces per side on an 8x8 board
	TriangleCamp = CampShape{Name: "triangle", Depth: func(n int) int { return (n+1)/2 - 1 }}
	// CornerCamp places 10 pieces per side on an 8x8 board
	CornerCamp = CampShape{Name: "corner", Depth: func(n int) int { return (n + 1) / 2 }}
)

// ShapeByName resolves a camp shape name; empty selects the triangle
func ShapeByName(name string) (CampShape, error) {
	switch name {
	case "", TriangleCamp.Name:
		return TriangleCamp, nil
	case CornerCamp.Name:
		return CornerCamp, nil
	default:
		return CampShape{}, fmt.Errorf("%w: unknown shape %q", ErrInvalidCamp, name)
	}
}

// depth clamps the shape's depth so the smallest boards still get one piece per side
func (s CampShape) depth(size int) int {
	d := s.Depth(size)
	if d < 1 {
		d = 1
	}
	return d
}

// Cells returns green's camp in row-major order.
func (s CampShape) Cells(size int) ([]core.Position, error) {
	if s.Depth == nil {
		return nil, fmt.Errorf("%w: shape has no depth function", ErrInvalidCamp)
	}
	d := s.depth(size)
	if d > size-1 {
		// Deeper camps would overlap across the anti-diagonal
		return nil, fmt.Errorf("%w: depth %d too large for size %d", ErrInvalidCamp, d, size)
	}

	var cells []core.Position
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			if r+c < d {
				cells = append(cells, core.Pos(r, c))
			}
		}
	}
	return cells, nil
}

// mirror reflects a cell through the board center
func mirror(size int, p core.Position) core.Position {
	return core.Pos(size-1-p.Row, size-1-p.Col)
}
