package board

import (
	"fmt"
	"strings"

	"halma/internal/core"
)

// Parse builds a board from a text layout, one line per row, using G for
// green, R for red and . for an empty cell. Whitespace inside a row is
// ignored. Camps come from the shape; piece counts need not match them.
func Parse(layout string, shape CampShape) (*Board, error) {
	var rows []string
	for _, line := range strings.Split(layout, "\n") {
		row := strings.Join(strings.Fields(line), "")
		if row != "" {
			rows = append(rows, row)
		}
	}

	b, err := newEmpty(len(rows), shape)
	if err != nil {
		return nil, err
	}

	// Two passes keep green IDs ahead of red IDs, as in New
	for _, want := range core.Colors {
		for r, row := range rows {
			if len(row) != len(rows) {
				return nil, fmt.Errorf("invalid layout: row %d has %d cells, want %d", r, len(row), len(rows))
			}
			for c, ch := range row {
				color, err := colorOf(ch)
				if err != nil {
					return nil, fmt.Errorf("invalid layout at %v: %w", core.Pos(r, c), err)
				}
				if color == want {
					b.place(color, core.Pos(r, c))
				}
			}
		}
	}

	return b, nil
}

func colorOf(ch rune) (core.Color, error) {
	switch ch {
	case 'G', 'g':
		return core.ColorGreen, nil
	case 'R', 'r':
		return core.ColorRed, nil
	case '.':
		return core.ColorNone, nil
	default:
		return core.ColorNone, fmt.Errorf("unexpected symbol %q", ch)
	}
}
