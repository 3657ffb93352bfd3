package game

import (
	"slices"
	"time"

	"halma/internal/board"
	"halma/internal/core"
)

// View is a read-only snapshot of a game for renderers and transports
type View struct {
	Size       int
	Shape      string
	Turn       core.Color
	State      core.State
	Phase      Phase
	MoveCount  int
	Selected   *core.Position
	Candidates []core.Position // legal destinations of the selected piece
	Pieces     []board.Piece
	Players    [2]core.PlayerType
	Clock      [2]time.Duration
	LastMove   *MoveResult
}

func (c *Controller) View() View {
	v := View{
		Size:      c.board.Size(),
		Shape:     c.board.Shape().Name,
		Turn:      c.turn,
		State:     c.state,
		Phase:     c.phase,
		MoveCount: c.moveCount,
		Pieces:    c.board.Pieces(),
	}

	if piece, ok := c.Selected(); ok {
		pos := piece.Pos
		v.Selected = &pos
		v.Candidates = c.board.LegalMoves(piece.ID)
	}

	for _, color := range core.Colors {
		v.Players[color.Index()] = c.PlayerType(color)
		v.Clock[color.Index()] = c.Elapsed(color)
	}

	if c.lastResult != nil {
		last := *c.lastResult
		v.LastMove = &last
	}

	return v
}

// IsCandidate reports whether p is a destination of the selected piece
func (v View) IsCandidate(p core.Position) bool {
	return slices.Contains(v.Candidates, p)
}
