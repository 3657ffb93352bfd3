package board

import (
	"testing"

	"halma/internal/core"

	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, layout string) *Board {
	t.Helper()
	b, err := Parse(layout, TriangleCamp)
	require.NoError(t, err)
	return b
}

func TestLegalMovesSteps(t *testing.T) {
	b := mustParse(t, `
		. . . . .
		. . . . .
		. . G . .
		. . . . .
		. . . . .`)

	want := []core.Position{
		{Row: 1, Col: 1}, {Row: 1, Col: 2}, {Row: 1, Col: 3},
		{Row: 2, Col: 1}, {Row: 2, Col: 3},
		{Row: 3, Col: 1}, {Row: 3, Col: 2}, {Row: 3, Col: 3},
	}
	require.Equal(t, want, b.LegalMoves(0))
}

func TestLegalMovesEdges(t *testing.T) {
	b := mustParse(t, `
		G . .
		. . .
		. . .`)

	require.Equal(t, []core.Position{{Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 1, Col: 1}}, b.LegalMoves(0))
}

func TestLegalMovesSingleJump(t *testing.T) {
	b := mustParse(t, `
		. . . . .
		. . . . .
		. . G R .
		. . . . .
		. . . . .`)

	moves := b.LegalMoves(0)
	require.Contains(t, moves, core.Pos(2, 4))
	require.NotContains(t, moves, core.Pos(2, 3))
	require.Len(t, moves, 8)
}

func TestLegalMovesJumpChain(t *testing.T) {
	b := mustParse(t, `
		. . . . . . .
		. . . . . . .
		. . . . . . .
		G R . R . . .
		. . . . . . .
		. . . . . . .
		. . . . . . .`)

	want := []core.Position{
		{Row: 2, Col: 0}, {Row: 2, Col: 1},
		{Row: 3, Col: 2}, {Row: 3, Col: 4},
		{Row: 4, Col: 0}, {Row: 4, Col: 1},
	}
	moves := b.LegalMoves(0)
	require.Equal(t, want, moves)

	// No simple step is taken from an intermediate landing
	require.NotContains(t, moves, core.Pos(2, 2))
}

func TestLegalMovesBlockedJump(t *testing.T) {
	b := mustParse(t, `
		G R R
		R R .
		R . .`)

	// Jumps over (0,1) and (1,0) land on occupied cells
	require.Equal(t, []core.Position{{Row: 2, Col: 2}}, b.LegalMoves(0))
}

func TestLegalMovesCyclicJumpGraph(t *testing.T) {
	b := mustParse(t, `
		G . . . . . .
		. R . R . R .
		. . . . . . .
		. R . R . R .
		. . . . . . .
		. R . R . R .
		. . . . . . .`)

	want := []core.Position{
		{Row: 0, Col: 1}, {Row: 0, Col: 4}, {Row: 1, Col: 0},
		{Row: 2, Col: 2}, {Row: 2, Col: 6},
		{Row: 4, Col: 0}, {Row: 4, Col: 4},
		{Row: 6, Col: 2}, {Row: 6, Col: 6},
	}
	require.Equal(t, want, b.LegalMoves(0))
}

func TestLegalMovesProperties(t *testing.T) {
	for _, size := range []int{4, 8, 12} {
		b, err := New(size, CornerCamp)
		require.NoError(t, err)

		for _, piece := range b.Pieces() {
			moves := b.LegalMoves(piece.ID)
			seen := map[core.Position]bool{}
			for _, m := range moves {
				require.True(t, b.InBounds(m), "%v out of bounds", m)
				require.NotEqual(t, piece.Pos, m)
				require.False(t, b.Occupied(m), "%v is occupied", m)
				require.False(t, seen[m], "%v listed twice", m)
				seen[m] = true
				require.True(t, b.IsLegal(piece.ID, m))
			}
		}
	}
}

func TestIsLegal(t *testing.T) {
	b := mustParse(t, `
		G . .
		. . .
		. . R`)

	require.True(t, b.IsLegal(0, core.Pos(1, 1)))
	require.False(t, b.IsLegal(0, core.Pos(2, 1)))
	require.False(t, b.IsLegal(0, core.Pos(0, 0)))
	require.False(t, b.IsLegal(0, core.Pos(-1, 0)))
}

func TestHasMoves(t *testing.T) {
	b := mustParse(t, `
		G R R .
		R R R .
		R R R .
		. . . .`)

	require.Empty(t, b.LegalMoves(0))
	require.False(t, b.HasMoves(core.ColorGreen))
	require.True(t, b.HasMoves(core.ColorRed))
}
