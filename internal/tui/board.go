// Package tui is a full-screen terminal front-end: the board is drawn on a
// tview Box and played with the mouse.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"halma/internal/core"
	"halma/internal/processor"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	cellWidth   = 3
	labelWidth  = 4
	refreshRate = time.Second
)

var (
	lightCell     = tcell.NewRGBColor(238, 220, 180)
	darkCell      = tcell.NewRGBColor(205, 170, 125)
	selectedCell  = tcell.ColorGold
	candidateCell = tcell.NewRGBColor(150, 200, 150)
	greenPiece    = tcell.ColorDarkGreen
	redPiece      = tcell.ColorDarkRed
)

// BoardUI shows one game. Its fields are only touched on the tview event
// goroutine; the poller hands updates over with QueueUpdateDraw.
type BoardUI struct {
	Box     *tview.Box
	Sidebar *tview.TextView

	app    *tview.Application
	proc   *processor.Processor
	gameID string
	game   core.GameResponse
	notice string
}

func NewBoardUI(app *tview.Application, proc *processor.Processor, g core.GameResponse) *BoardUI {
	ui := &BoardUI{
		Box:     tview.NewBox(),
		Sidebar: tview.NewTextView().SetDynamicColors(true),
		app:     app,
		proc:    proc,
		gameID:  g.GameID,
		game:    g,
	}
	ui.Box.SetBorder(true).SetTitle(" Halma ")
	ui.Sidebar.SetBorder(true).SetTitle(" Game ")

	ui.Box.SetDrawFunc(ui.draw)
	ui.Box.SetMouseCapture(ui.mouse)
	ui.refreshSidebar()
	return ui
}

// Layout places the board and the sidebar side by side
func (ui *BoardUI) Layout() tview.Primitive {
	w := labelWidth + ui.game.BoardSize*cellWidth + 4
	return tview.NewFlex().
		AddItem(ui.Box, w, 0, true).
		AddItem(ui.Sidebar, 0, 1, false)
}

// Keys handles the keyboard shortcuts: r resets, q quits
func (ui *BoardUI) Keys(event *tcell.EventKey) *tcell.EventKey {
	switch {
	case event.Key() == tcell.KeyEscape:
		if ui.game.Selected != nil {
			// Selecting the selected piece again drops it
			ui.execute(processor.NewSelectCommand(ui.gameID, *ui.game.Selected))
		}
	case event.Rune() == 'r':
		ui.execute(processor.NewResetGameCommand(ui.gameID))
		ui.notice = "Game reset"
		ui.refreshSidebar()
	case event.Rune() == 'q', event.Key() == tcell.KeyCtrlC:
		ui.app.Stop()
		return nil
	default:
		return event
	}
	return nil
}

// Poll refreshes the view when the game changes and once per refreshRate
// for the clock, until ctx ends.
func (ui *BoardUI) Poll(ctx context.Context) {
	svc := ui.proc.Service()
	for {
		resp := ui.proc.Execute(processor.NewGetGameCommand(ui.gameID))
		if !resp.Success {
			log.Warn().Str("game", ui.gameID).Msg("poller stopped: game gone")
			return
		}
		g := resp.Data.(core.GameResponse)
		ui.app.QueueUpdateDraw(func() { ui.setGame(g) })

		waitCtx, cancel := context.WithTimeout(ctx, refreshRate)
		select {
		case <-svc.RegisterWait(waitCtx, ui.gameID, g.MoveCount):
		case <-waitCtx.Done():
		}
		cancel()
		if ctx.Err() != nil {
			return
		}
	}
}

func (ui *BoardUI) setGame(g core.GameResponse) {
	ui.game = g
	ui.refreshSidebar()
}

// mouse: right click selects a piece, left click moves the selection there
func (ui *BoardUI) mouse(action tview.MouseAction, event *tcell.EventMouse) (tview.MouseAction, *tcell.EventMouse) {
	if action != tview.MouseLeftClick && action != tview.MouseRightClick {
		return action, event
	}

	bx, by, _, _ := ui.Box.GetInnerRect()
	mx, my := event.Position()
	pos, ok := CellAt(bx, by, mx, my, ui.game.BoardSize)
	if !ok {
		return action, event
	}

	if action == tview.MouseRightClick {
		ui.execute(processor.NewSelectCommand(ui.gameID, pos))
	} else {
		ui.execute(processor.NewMakeMoveCommand(ui.gameID, nil, pos))
	}
	return tview.MouseConsumed, nil
}

// execute runs a command and keeps the returned game, or shows the error
func (ui *BoardUI) execute(cmd processor.Command) {
	resp := ui.proc.Execute(cmd)
	if !resp.Success {
		ui.notice = fmt.Sprintf("[red]%s[-]", resp.Error.Error)
		if resp.Error.Details != "" {
			ui.notice += "\n" + tview.Escape(resp.Error.Details)
		}
		ui.refreshSidebar()
		return
	}
	ui.notice = ""
	ui.setGame(resp.Data.(core.GameResponse))
}

func (ui *BoardUI) refreshSidebar() {
	ui.Sidebar.SetText(SidebarText(ui.game, ui.notice))
}

// CellAt maps a screen coordinate to a board cell, given the top-left corner
// of the box's inner area.
func CellAt(originX, originY, x, y, size int) (core.Position, bool) {
	dx := x - originX - labelWidth
	row := y - originY - 1
	if dx < 0 || row < 0 {
		return core.Position{}, false
	}
	col := dx / cellWidth
	if row >= size || col >= size {
		return core.Position{}, false
	}
	return core.Pos(row, col), true
}

func (ui *BoardUI) draw(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	// Inside the border
	ix, iy, iw, ih := x+1, y+1, width-2, height-2

	g := ui.game
	n := g.BoardSize
	cells := make(map[core.Position]byte, len(g.Pieces))
	for _, p := range g.Pieces {
		cells[core.Pos(p.Row, p.Col)] = p.Color[0]
	}

	for col := 0; col < n; col++ {
		tview.Print(screen, fmt.Sprintf("%2d", col), ix+labelWidth+col*cellWidth, iy, cellWidth, tview.AlignLeft, tcell.ColorGray)
	}

	for row := 0; row < n; row++ {
		sy := iy + 1 + row
		if sy >= iy+ih {
			break
		}
		tview.Print(screen, fmt.Sprintf("%2d", row), ix+1, sy, 2, tview.AlignRight, tcell.ColorGray)

		for col := 0; col < n; col++ {
			sx := ix + labelWidth + col*cellWidth
			if sx+cellWidth > ix+iw {
				break
			}
			pos := core.Pos(row, col)

			bg := darkCell
			if (row+col)%2 == 0 {
				bg = lightCell
			}
			glyph, fg := ' ', tcell.ColorBlack
			switch cells[pos] {
			case 'g':
				glyph, fg = '●', greenPiece
			case 'r':
				glyph, fg = '●', redPiece
			}
			if g.Selected != nil && *g.Selected == pos {
				bg = selectedCell
			} else if slices.Contains(g.Candidates, pos) {
				bg, glyph = candidateCell, '·'
			}

			style := tcell.StyleDefault.Background(bg).Foreground(fg)
			screen.SetContent(sx, sy, ' ', nil, style)
			screen.SetContent(sx+1, sy, glyph, nil, style)
			screen.SetContent(sx+2, sy, ' ', nil, style)
		}
	}

	return ix, iy, iw, ih
}

// SidebarText renders the game summary shown next to the board
func SidebarText(g core.GameResponse, notice string) string {
	var sb strings.Builder

	turnColor := "green"
	if g.Turn == core.ColorRed.String() {
		turnColor = "red"
	}
	fmt.Fprintf(&sb, "Turn: [%s]%s[-]\n", turnColor, g.Turn)
	fmt.Fprintf(&sb, "Moves: %d\n", g.MoveCount)
	fmt.Fprintf(&sb, "State: %s\n\n", g.State)

	fmt.Fprintf(&sb, "Green (%s): %s\n", g.Players.Green, clock(g.Clock.Green))
	fmt.Fprintf(&sb, "Red (%s): %s\n", g.Players.Red, clock(g.Clock.Red))

	if m := g.LastMove; m != nil {
		who := m.PlayerColor
		if m.Computer {
			who += " (computer)"
		}
		fmt.Fprintf(&sb, "\nLast: %s (%d,%d) -> (%d,%d)\n", who, m.From.Row, m.From.Col, m.To.Row, m.To.Col)
	}

	switch g.State {
	case core.StateGreenWins.String(), core.StateRedWins.String():
		fmt.Fprintf(&sb, "\n[yellow]%s![-]\n", strings.ToUpper(g.State[:1])+g.State[1:])
	case core.StateTie.String(), core.StateStalemate.String():
		fmt.Fprintf(&sb, "\n[yellow]Game over: %s[-]\n", g.State)
	}

	if notice != "" {
		fmt.Fprintf(&sb, "\n%s\n", notice)
	}

	sb.WriteString("\nRight click: select\nLeft click: move\nEsc: deselect\nr: reset  q: quit\n")
	return sb.String()
}

func clock(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
