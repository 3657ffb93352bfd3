package board

import (
	"testing"

	"halma/internal/core"

	"github.com/stretchr/testify/require"
)

func TestNewPieceCounts(t *testing.T) {
	t.Run("triangle camp on 8x8 has 6 pieces per color", func(t *testing.T) {
		b, err := New(8, TriangleCamp)
		require.NoError(t, err)
		require.Equal(t, 6, b.Count(core.ColorGreen))
		require.Equal(t, 6, b.Count(core.ColorRed))
	})

	t.Run("corner camp on 8x8 has 10 pieces per color", func(t *testing.T) {
		b, err := New(8, CornerCamp)
		require.NoError(t, err)
		require.Equal(t, 10, b.Count(core.ColorGreen))
		require.Equal(t, 10, b.Count(core.ColorRed))
	})

	t.Run("smallest board gets one piece each", func(t *testing.T) {
		b, err := New(2, TriangleCamp)
		require.NoError(t, err)
		require.Equal(t, []core.Position{core.Pos(0, 0)}, b.Home(core.ColorGreen))
		require.Equal(t, []core.Position{core.Pos(1, 1)}, b.Home(core.ColorRed))
	})
}

func TestNewRejectsInvalidSize(t *testing.T) {
	for _, size := range []int{-3, 0, 1} {
		_, err := New(size, TriangleCamp)
		require.ErrorIs(t, err, ErrInvalidSize, "size %d", size)
	}
}

func TestCampInvariants(t *testing.T) {
	for _, shape := range []CampShape{TriangleCamp, CornerCamp} {
		for size := 2; size <= 16; size++ {
			b, err := New(size, shape)
			require.NoError(t, err, "%s/%d", shape.Name, size)

			green := b.Home(core.ColorGreen)
			red := b.Home(core.ColorRed)
			require.Equal(t, len(green), len(red))
			require.NotEmpty(t, green)

			owner := map[core.Position]core.Color{}
			for _, p := range green {
				owner[p] = core.ColorGreen
			}
			for _, p := range red {
				_, clash := owner[p]
				require.False(t, clash, "%s/%d: camps overlap at %v", shape.Name, size, p)
				owner[p] = core.ColorRed
			}

			for r := 0; r < size; r++ {
				for c := 0; c < size; c++ {
					p := core.Pos(r, c)
					piece, ok := b.PieceAt(p)
					want, inCamp := owner[p]
					require.Equal(t, inCamp, ok, "%s/%d: occupancy of %v", shape.Name, size, p)
					if ok {
						require.Equal(t, want, piece.Color)
					}
				}
			}
		}
	}
}

func TestTargetsMirrorHomes(t *testing.T) {
	b, err := New(8, TriangleCamp)
	require.NoError(t, err)

	require.Equal(t, b.Home(core.ColorRed), b.Targets(core.ColorGreen))
	require.Equal(t, b.Home(core.ColorGreen), b.Targets(core.ColorRed))
	require.True(t, b.IsTarget(core.ColorGreen, core.Pos(7, 7)))
	require.False(t, b.IsTarget(core.ColorGreen, core.Pos(0, 0)))
	require.Equal(t, core.Pos(7, 7), b.Corner(core.ColorGreen))
	require.Equal(t, core.Pos(0, 0), b.Corner(core.ColorRed))
}

func TestTargetDistance(t *testing.T) {
	b, err := New(8, TriangleCamp)
	require.NoError(t, err)

	// Nearest red-camp cell from the green corner is (6,6)
	require.Equal(t, 72, b.TargetDistance(core.ColorGreen, core.Pos(0, 0)))
	require.Equal(t, 0, b.TargetDistance(core.ColorGreen, core.Pos(7, 7)))
	require.Equal(t, 72, b.TargetDistance(core.ColorRed, core.Pos(7, 7)))
}

func TestApplyAndUndo(t *testing.T) {
	b, err := New(8, TriangleCamp)
	require.NoError(t, err)
	before := b.Pieces()

	piece, ok := b.PieceAt(core.Pos(0, 2))
	require.True(t, ok)

	undo := b.Apply(piece.ID, core.Pos(1, 2))
	_, ok = b.PieceAt(core.Pos(0, 2))
	require.False(t, ok)
	moved, ok := b.PieceAt(core.Pos(1, 2))
	require.True(t, ok)
	require.Equal(t, piece.ID, moved.ID)

	undo()
	require.Equal(t, before, b.Pieces())
}

func TestMoveOntoOccupiedPanics(t *testing.T) {
	b, err := New(8, TriangleCamp)
	require.NoError(t, err)

	require.Panics(t, func() {
		b.Move(0, core.Pos(0, 1))
	})
}

func TestHasWon(t *testing.T) {
	t.Run("all targets filled", func(t *testing.T) {
		b, err := Parse(`
			R . . .
			. . . .
			. . . .
			. . . G`, TriangleCamp)
		require.NoError(t, err)
		require.True(t, b.HasWon(core.ColorGreen))
		require.True(t, b.HasWon(core.ColorRed))
	})

	t.Run("one target unfilled", func(t *testing.T) {
		b, err := Parse(`
			. . . . . . . .
			. . . . . . . .
			. . . . . . . .
			. . . . . . . .
			. . . . . . . G
			. . . . . . . G
			. . . . . . G G
			. . . . . G . G`, TriangleCamp)
		require.NoError(t, err)
		require.Equal(t, 5, b.OnTarget(core.ColorGreen))
		require.False(t, b.HasWon(core.ColorGreen))

		b.Move(0, core.Pos(7, 6))
		require.True(t, b.HasWon(core.ColorGreen))
	})

	t.Run("opponent pieces do not count", func(t *testing.T) {
		b, err := Parse(`
			R .
			. R`, TriangleCamp)
		require.NoError(t, err)
		require.False(t, b.HasWon(core.ColorGreen))
		require.True(t, b.HasWon(core.ColorRed))
	})
}

func TestParse(t *testing.T) {
	t.Run("assigns green IDs first", func(t *testing.T) {
		b, err := Parse(`
			R . G
			. . .
			G . .`, TriangleCamp)
		require.NoError(t, err)
		require.Equal(t, []int{0, 1}, b.PieceIDs(core.ColorGreen))
		require.Equal(t, []int{2}, b.PieceIDs(core.ColorRed))
		require.Equal(t, core.Pos(0, 2), b.Piece(0).Pos)
	})

	t.Run("rejects ragged rows", func(t *testing.T) {
		_, err := Parse("G..\n..\n...", TriangleCamp)
		require.Error(t, err)
	})

	t.Run("rejects unknown symbols", func(t *testing.T) {
		_, err := Parse("G.\n.x", TriangleCamp)
		require.Error(t, err)
	})
}

func TestShapeByName(t *testing.T) {
	s, err := ShapeByName("")
	require.NoError(t, err)
	require.Equal(t, TriangleCamp.Name, s.Name)

	s, err = ShapeByName("corner")
	require.NoError(t, err)
	require.Equal(t, CornerCamp.Name, s.Name)

	_, err = ShapeByName("star")
	require.ErrorIs(t, err, ErrInvalidCamp)
}

func TestToASCII(t *testing.T) {
	b, err := New(4, TriangleCamp)
	require.NoError(t, err)

	want := "   0 1 2 3\n" +
		" 0 G . . .  0\n" +
		" 1 . . . .  1\n" +
		" 2 . . . .  2\n" +
		" 3 . . . R  3\n" +
		"   0 1 2 3"
	require.Equal(t, want, b.ToASCII())
}
