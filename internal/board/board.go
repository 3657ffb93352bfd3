package board

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"halma/internal/core"

	"golang.org/x/exp/constraints"
)

const MinSize = 2

var (
	ErrInvalidSize = errors.New("invalid board size")
	ErrInvalidCamp = errors.New("invalid camp shape")
)

// Piece is a value copy; the board owns the authoritative position.
type Piece struct {
	ID    int
	Color core.Color
	Pos   core.Position
}

// Board is the single source of truth for occupancy. Pieces live in an arena
// indexed by ID and a cell-indexed occupant table gives O(1) lookups.
type Board struct {
	size     int
	shape    CampShape
	pieces   []Piece
	occupant []int // cell -> piece ID, -1 when empty
	byColor  [2][]int
	homes    [2][]core.Position
	isHome   [2][]bool
	dist     [2][]int // squared distance to the nearest target cell
	onTarget [2]int
}

// New creates a board with both camps filled by their owners.
func New(size int, shape CampShape) (*Board, error) {
	b, err := newEmpty(size, shape)
	if err != nil {
		return nil, err
	}
	for _, c := range core.Colors {
		for _, p := range b.homes[c.Index()] {
			b.place(c, p)
		}
	}
	return b, nil
}

// newEmpty lays out camps and distance tables without placing any piece
func newEmpty(size int, shape CampShape) (*Board, error) {
	if size < MinSize {
		return nil, fmt.Errorf("%w: %d (minimum %d)", ErrInvalidSize, size, MinSize)
	}

	green, err := shape.Cells(size)
	if err != nil {
		return nil, err
	}

	cells := size * size
	b := &Board{
		size:     size,
		shape:    shape,
		occupant: make([]int, cells),
	}
	for i := range b.occupant {
		b.occupant[i] = -1
	}

	red := make([]core.Position, len(green))
	for i, p := range green {
		red[i] = mirror(size, p)
	}
	slices.SortFunc(red, comparePositions)

	b.homes[core.ColorGreen.Index()] = green
	b.homes[core.ColorRed.Index()] = red

	for _, c := range core.Colors {
		i := c.Index()
		b.isHome[i] = make([]bool, cells)
		for _, p := range b.homes[i] {
			b.isHome[i][b.cell(p)] = true
		}
	}
	for _, c := range core.Colors {
		b.dist[c.Index()] = b.distanceTable(b.Targets(c))
	}

	return b, nil
}

func (b *Board) place(c core.Color, p core.Position) {
	id := len(b.pieces)
	b.pieces = append(b.pieces, Piece{ID: id, Color: c, Pos: p})
	b.byColor[c.Index()] = append(b.byColor[c.Index()], id)
	b.occupant[b.cell(p)] = id
	if b.IsTarget(c, p) {
		b.onTarget[c.Index()]++
	}
}

func (b *Board) distanceTable(targets []core.Position) []int {
	table := make([]int, b.size*b.size)
	for r := 0; r < b.size; r++ {
		for c := 0; c < b.size; c++ {
			best := -1
			for _, t := range targets {
				d := square(r-t.Row) + square(c-t.Col)
				if best < 0 || d < best {
					best = d
				}
			}
			table[r*b.size+c] = best
		}
	}
	return table
}

func square[T constraints.Integer](v T) T {
	return v * v
}

func comparePositions(a, b core.Position) int {
	if a.Row != b.Row {
		return a.Row - b.Row
	}
	return a.Col - b.Col
}

func (b *Board) cell(p core.Position) int {
	return p.Row*b.size + p.Col
}

func (b *Board) Size() int {
	return b.size
}

func (b *Board) Shape() CampShape {
	return b.shape
}

func (b *Board) InBounds(p core.Position) bool {
	return p.Row >= 0 && p.Row < b.size && p.Col >= 0 && p.Col < b.size
}

func (b *Board) Occupied(p core.Position) bool {
	return b.occupant[b.cell(p)] >= 0
}

// PieceAt returns the piece on p, if any.
func (b *Board) PieceAt(p core.Position) (Piece, bool) {
	if !b.InBounds(p) {
		return Piece{}, false
	}
	id := b.occupant[b.cell(p)]
	if id < 0 {
		return Piece{}, false
	}
	return b.pieces[id], true
}

func (b *Board) Piece(id int) Piece {
	return b.pieces[id]
}

// Pieces returns a copy of every piece in ID order
func (b *Board) Pieces() []Piece {
	return slices.Clone(b.pieces)
}

// PieceIDs returns the IDs of a color's pieces. The slice is shared and must not be modified.
func (b *Board) PieceIDs(c core.Color) []int {
	return b.byColor[c.Index()]
}

func (b *Board) Count(c core.Color) int {
	return len(b.byColor[c.Index()])
}

// Home returns the camp a color starts in.
func (b *Board) Home(c core.Color) []core.Position {
	return slices.Clone(b.homes[c.Index()])
}

// Targets returns the cells a color must fill to win: the opponent's home.
func (b *Board) Targets(c core.Color) []core.Position {
	return b.Home(c.Opponent())
}

func (b *Board) IsTarget(c core.Color, p core.Position) bool {
	return b.isHome[c.Opponent().Index()][b.cell(p)]
}

// Corner is the target cell farthest from the color's own start.
func (b *Board) Corner(c core.Color) core.Position {
	if c == core.ColorGreen {
		return core.Pos(b.size-1, b.size-1)
	}
	return core.Pos(0, 0)
}

// TargetDistance is the squared Euclidean distance from p to the color's nearest target cell.
func (b *Board) TargetDistance(c core.Color, p core.Position) int {
	return b.dist[c.Index()][b.cell(p)]
}

// OnTarget counts the color's pieces already sitting on its target cells.
func (b *Board) OnTarget(c core.Color) int {
	return b.onTarget[c.Index()]
}

// HasWon reports whether every target cell of c holds a piece of c.
func (b *Board) HasWon(c core.Color) bool {
	return b.onTarget[c.Index()] == len(b.homes[c.Opponent().Index()])
}

// Move relocates a piece without checking legality. Moving onto a cell held
// by another piece breaks the occupancy invariant and panics.
func (b *Board) Move(id int, to core.Position) {
	p := &b.pieces[id]
	if p.Pos == to {
		return
	}
	if other := b.occupant[b.cell(to)]; other >= 0 {
		panic(fmt.Sprintf("board: piece %d moved onto %v held by piece %d", id, to, other))
	}

	i := p.Color.Index()
	if b.IsTarget(p.Color, p.Pos) {
		b.onTarget[i]--
	}
	if b.IsTarget(p.Color, to) {
		b.onTarget[i]++
	}

	b.occupant[b.cell(p.Pos)] = -1
	b.occupant[b.cell(to)] = id
	p.Pos = to
}

// Apply moves a piece and returns the function restoring its previous cell.
func (b *Board) Apply(id int, to core.Position) (undo func()) {
	from := b.pieces[id].Pos
	b.Move(id, to)
	return func() {
		b.Move(id, from)
	}
}

// ToASCII creates an ASCII representation of the board
func (b *Board) ToASCII() string {
	var sb strings.Builder
	header := b.columnHeader()
	sb.WriteString(header)
	sb.WriteString("\n")

	for r := 0; r < b.size; r++ {
		sb.WriteString(fmt.Sprintf("%2d ", r))
		for c := 0; c < b.size; c++ {
			sb.WriteString(fmt.Sprintf("%c ", b.symbolAt(core.Pos(r, c))))
		}
		sb.WriteString(fmt.Sprintf("%2d\n", r))
	}
	sb.WriteString(header)

	return sb.String()
}

func (b *Board) columnHeader() string {
	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < b.size; c++ {
		sb.WriteString(fmt.Sprintf("%d ", c%10))
	}
	return strings.TrimRight(sb.String(), " ")
}

func (b *Board) symbolAt(p core.Position) byte {
	piece, ok := b.PieceAt(p)
	if !ok {
		return '.'
	}
	return Symbol(piece.Color)
}

// Symbol is the single-character glyph used for a color in text renderings.
func Symbol(c core.Color) byte {
	switch c {
	case core.ColorGreen:
		return 'G'
	case core.ColorRed:
		return 'R'
	default:
		return '.'
	}
}
