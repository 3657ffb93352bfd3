package core

import "fmt"

type Color int8

const (
	ColorNone Color = iota
	ColorGreen
	ColorRed
)

// Colors lists both sides in turn order.
var Colors = [2]Color{ColorGreen, ColorRed}

func (c Color) String() string {
	switch c {
	case ColorGreen:
		return "green"
	case ColorRed:
		return "red"
	default:
		return "-"
	}
}

func (c Color) Opponent() Color {
	switch c {
	case ColorGreen:
		return ColorRed
	case ColorRed:
		return ColorGreen
	default:
		return ColorNone
	}
}

// Index maps a playing color to 0 or 1 for array-backed per-color tables.
func (c Color) Index() int {
	if c == ColorRed {
		return 1
	}
	return 0
}

// ParseColor accepts "green", "red" and "none" (or empty) in any case-folded short form.
func ParseColor(s string) (Color, error) {
	switch s {
	case "green", "g":
		return ColorGreen, nil
	case "red", "r":
		return ColorRed, nil
	case "", "none", "-":
		return ColorNone, nil
	default:
		return ColorNone, fmt.Errorf("invalid color: %q", s)
	}
}

// Position is a (row, column) cell coordinate, 0-indexed from the top-left corner.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func Pos(row, col int) Position {
	return Position{Row: row, Col: col}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

type State int

const (
	StateOngoing State = iota
	StatePending       // Computer move scheduled or calculating
	StateGreenWins
	StateRedWins
	StateTie // Both target camps filled at once
	StateStalemate
)

func (s State) String() string {
	switch s {
	case StateOngoing:
		return "ongoing"
	case StatePending:
		return "pending"
	case StateGreenWins:
		return "green wins"
	case StateRedWins:
		return "red wins"
	case StateTie:
		return "tie"
	case StateStalemate:
		return "stalemate"
	default:
		return "unknown"
	}
}

// IsOver reports whether the state ends the game.
func (s State) IsOver() bool {
	return s == StateGreenWins || s == StateRedWins || s == StateTie || s == StateStalemate
}

// WinState returns the winning state for a color.
func WinState(c Color) State {
	if c == ColorGreen {
		return StateGreenWins
	}
	return StateRedWins
}

type PlayerType int

const (
	PlayerHuman PlayerType = iota + 1
	PlayerComputer
)

func (t PlayerType) String() string {
	if t == PlayerComputer {
		return "computer"
	}
	return "human"
}
