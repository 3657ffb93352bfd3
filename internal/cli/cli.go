package cli

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"halma/internal/core"

	"golang.org/x/term"
)

type CommandType int

const (
	CmdNone CommandType = iota
	CmdNew
	CmdSelect
	CmdMove
	CmdPlay
	CmdMoves
	CmdBoard
	CmdClock
	CmdReset
	CmdTheme
	CmdVerbose
	CmdHelp
	CmdQuit
	CmdUnknown
)

type Command struct {
	Type CommandType
	Args []string
	Raw  string
}

// ParseCommand splits a REPL line into a command and its arguments
func ParseCommand(input string) *Command {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return &Command{Type: CmdNone}
	}

	args := parts[1:]
	cmd := &Command{Args: args, Raw: input}

	switch strings.ToLower(parts[0]) {
	case "new", "n":
		cmd.Type = CmdNew
	case "select", "s":
		cmd.Type = CmdSelect
	case "move", "m":
		cmd.Type = CmdMove
	case "play", "p":
		cmd.Type = CmdPlay
	case "moves":
		cmd.Type = CmdMoves
	case "board", "b":
		cmd.Type = CmdBoard
	case "clock":
		cmd.Type = CmdClock
	case "reset":
		cmd.Type = CmdReset
	case "theme", "color":
		cmd.Type = CmdTheme
	case "verbose", "v":
		cmd.Type = CmdVerbose
	case "help", "?":
		cmd.Type = CmdHelp
	case "quit", "exit", "q":
		cmd.Type = CmdQuit
	default:
		cmd.Type = CmdUnknown
	}
	return cmd
}

type ColorTheme string

const (
	ThemeOff   ColorTheme = "off"
	ThemeBrown ColorTheme = "brown"
	ThemeGreen ColorTheme = "green"
	ThemeGray  ColorTheme = "gray"
)

type themeColors struct {
	lightBg   string
	darkBg    string
	markBg    string
	greenFg   string
	redFg     string
	reset     string
	candidate rune
}

var themes = map[ColorTheme]themeColors{
	ThemeOff: {
		candidate: '+',
	},
	ThemeBrown: {
		lightBg:   "\033[48;5;230m", // Beige
		darkBg:    "\033[48;5;180m", // Tan
		markBg:    "\033[48;5;221m", // Gold
		greenFg:   "\033[38;5;28m",
		redFg:     "\033[38;5;160m",
		reset:     "\033[0m",
		candidate: '·',
	},
	ThemeGreen: {
		lightBg:   "\033[48;5;157m", // Light green
		darkBg:    "\033[48;5;114m", // Mid green
		markBg:    "\033[48;5;229m", // Pale yellow
		greenFg:   "\033[38;5;22m",
		redFg:     "\033[38;5;124m",
		reset:     "\033[0m",
		candidate: '·',
	},
	ThemeGray: {
		lightBg:   "\033[48;5;251m", // Light gray
		darkBg:    "\033[48;5;246m", // Mid gray
		markBg:    "\033[48;5;153m", // Light blue
		greenFg:   "\033[38;5;22m",
		redFg:     "\033[38;5;88m",
		reset:     "\033[0m",
		candidate: '·',
	},
}

// CLI renders game state as text. It is safe to call from the REPL and the
// background move watcher at the same time.
type CLI struct {
	mu      sync.Mutex
	output  io.Writer
	theme   ColorTheme
	verbose bool
}

// New creates a view writing to output. Terminals start with the brown theme.
func New(output io.Writer) *CLI {
	theme := ThemeOff
	if f, ok := output.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		theme = ThemeBrown
	}
	return &CLI{
		output: output,
		theme:  theme,
	}
}

func (c *CLI) SetTheme(theme ColorTheme) error {
	if _, ok := themes[theme]; !ok {
		return fmt.Errorf("invalid theme: %s (use: off, brown, green, gray)", theme)
	}
	c.mu.Lock()
	c.theme = theme
	c.mu.Unlock()
	return nil
}

func (c *CLI) ToggleVerbose() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verbose = !c.verbose
	return c.verbose
}

func (c *CLI) IsVerbose() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verbose
}

func (c *CLI) ShowMessage(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.output, msg)
}

func (c *CLI) ShowError(err error) {
	c.ShowMessage(fmt.Sprintf("Error: %v", err))
}

// ShowAPIError prints a processor error with its code
func (c *CLI) ShowAPIError(e *core.ErrorResponse) {
	if e == nil {
		return
	}
	msg := fmt.Sprintf("Error: %s [%s]", e.Error, e.Code)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	c.ShowMessage(msg)
}

// DisplayBoard draws the board with row and column indices. The selected
// piece and its legal destinations are marked.
func (c *CLI) DisplayBoard(g core.GameResponse) {
	c.mu.Lock()
	plain := c.theme == ThemeOff
	theme := themes[c.theme]
	c.mu.Unlock()

	n := g.BoardSize
	cells := make([][]byte, n)
	for r := range cells {
		cells[r] = make([]byte, n)
	}
	for _, p := range g.Pieces {
		if p.Row >= 0 && p.Row < n && p.Col >= 0 && p.Col < n {
			cells[p.Row][p.Col] = p.Color[0]
		}
	}

	var sb strings.Builder
	header := func() {
		sb.WriteString("   ")
		for col := 0; col < n; col++ {
			sb.WriteString(fmt.Sprintf("%-2d", col%100))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	header()
	for row := 0; row < n; row++ {
		sb.WriteString(fmt.Sprintf("%2d ", row))
		for col := 0; col < n; col++ {
			pos := core.Pos(row, col)
			selected := g.Selected != nil && *g.Selected == pos
			candidate := slices.Contains(g.Candidates, pos)

			glyph := '.'
			fg := ""
			switch cells[row][col] {
			case 'g':
				glyph, fg = 'G', theme.greenFg
			case 'r':
				glyph, fg = 'R', theme.redFg
			}
			if candidate {
				glyph = theme.candidate
			}
			if selected && plain {
				glyph += 'a' - 'A'
			}

			if plain {
				sb.WriteString(fmt.Sprintf("%c ", glyph))
				continue
			}

			bg := theme.darkBg
			if (row+col)%2 == 0 {
				bg = theme.lightBg
			}
			if selected || candidate {
				bg = theme.markBg
			}
			sb.WriteString(fmt.Sprintf("%s%s%c %s", bg, fg, glyph, theme.reset))
		}
		sb.WriteString(fmt.Sprintf(" %d\n", row))
	}
	header()

	sb.WriteString(fmt.Sprintf("Turn: %s  Moves: %d  State: %s", g.Turn, g.MoveCount, g.State))
	c.ShowMessage(sb.String())
}

// ShowMove reports a committed move; computer moves always print, human
// moves only in verbose mode.
func (c *CLI) ShowMove(m *core.MoveInfo) {
	if m == nil {
		return
	}
	verbose := c.IsVerbose()

	switch {
	case m.Computer && verbose:
		c.ShowMessage(fmt.Sprintf("Computer (%s): %s -> %s (depth=%d, nodes=%d, score=%.2f)",
			m.PlayerColor, formatPos(m.From), formatPos(m.To), m.Depth, m.Nodes, m.Score))
	case m.Computer:
		c.ShowMessage(fmt.Sprintf("Computer (%s): %s -> %s", m.PlayerColor, formatPos(m.From), formatPos(m.To)))
	case verbose:
		c.ShowMessage(fmt.Sprintf("Your move (%s): %s -> %s", m.PlayerColor, formatPos(m.From), formatPos(m.To)))
	}
}

func (c *CLI) ShowLegalMoves(resp core.LegalMovesResponse) {
	if len(resp.Destinations) == 0 {
		c.ShowMessage(fmt.Sprintf("%s has no legal moves", formatPos(resp.From)))
		return
	}
	dests := make([]string, 0, len(resp.Destinations))
	for _, d := range resp.Destinations {
		dests = append(dests, formatPos(d))
	}
	c.ShowMessage(fmt.Sprintf("%s -> %s", formatPos(resp.From), strings.Join(dests, " ")))
}

func (c *CLI) ShowClock(g core.GameResponse) {
	c.ShowMessage(fmt.Sprintf("Clock: green %s (%s), red %s (%s)",
		formatMillis(g.Clock.Green), g.Players.Green,
		formatMillis(g.Clock.Red), g.Players.Red))
}

func (c *CLI) ShowGameOver(state string) {
	c.ShowMessage(fmt.Sprintf("\nGame Over: %s", state))
	c.ShowMessage("Start a new game with 'new' or 'reset'.")
}

func (c *CLI) ShowHelp() {
	help := `Commands:
  new [size] [camp] [ai]  - Start a game (camp: triangle|corner, ai: green|red|none)
  select <row> <col>      - Select (or deselect) one of your pieces
  move <row> <col>        - Move the selected piece
  play <r1> <c1> <r2> <c2> - Move the piece on r1,c1 to r2,c2
  moves [row col]         - List destinations of a piece, default the selected one
  board                   - Show the board
  clock                   - Show each side's thinking time
  reset                   - Restart the current game
  theme <name>            - Set board color theme (off|brown|green|gray)
  verbose                 - Toggle detailed move information
  quit/exit               - Exit the program
  help/?                  - Show this help message

The computer replies on its own after a short pause.`

	c.ShowMessage(help)
}

func (c *CLI) ShowWelcome() {
	c.ShowMessage("Welcome to Halma!")
	c.ShowMessage("Green starts in the top-left camp and races to the bottom-right one.")
	c.ShowMessage("Type 'new' to start, 'help' for commands.")
	c.ShowMessage("")
}

func formatPos(p core.Position) string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

func formatMillis(ms int64) string {
	return fmt.Sprintf("%d.%01ds", ms/1000, (ms%1000)/100)
}
