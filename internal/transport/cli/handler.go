package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"halma/internal/cli"
	"halma/internal/core"
	"halma/internal/processor"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"
)

// CLIHandler drives one game at a time through the processor
type CLIHandler struct {
	proc     *processor.Processor
	view     *cli.CLI
	defaults core.CreateGameRequest

	gameID string
	game   core.GameResponse
	stop   context.CancelFunc // stops the move watcher of the current game
}

func New(proc *processor.Processor, view *cli.CLI, defaults core.CreateGameRequest) *CLIHandler {
	return &CLIHandler{
		proc:     proc,
		view:     view,
		defaults: defaults,
	}
}

// Run reads commands until quit or end of input
func (h *CLIHandler) Run(rl *readline.Instance) {
	defer h.Close()

	for {
		rl.SetPrompt(h.prompt())

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil { // io.EOF on Ctrl-D
			return
		}

		if !h.ProcessCommand(cli.ParseCommand(line)) {
			return
		}
	}
}

// Close stops the background watcher
func (h *CLIHandler) Close() {
	if h.stop != nil {
		h.stop()
		h.stop = nil
	}
}

func (h *CLIHandler) prompt() string {
	if h.gameID == "" {
		return "halma> "
	}
	if resp := h.proc.Execute(processor.NewGetGameCommand(h.gameID)); resp.Success {
		h.game = resp.Data.(core.GameResponse)
	}
	return fmt.Sprintf("halma [%s]> ", h.game.Turn)
}

// ProcessCommand handles one command; it returns false to exit
func (h *CLIHandler) ProcessCommand(cmd *cli.Command) bool {
	switch cmd.Type {
	case cli.CmdQuit:
		return false

	case cli.CmdNone:
		return true

	case cli.CmdNew:
		h.handleNewGame(cmd.Args)

	case cli.CmdHelp:
		h.view.ShowHelp()

	case cli.CmdVerbose:
		verbose := h.view.ToggleVerbose()
		h.view.ShowMessage(fmt.Sprintf("Verbose mode: %t", verbose))

	case cli.CmdTheme:
		if len(cmd.Args) < 1 {
			h.view.ShowMessage("Usage: theme <off|brown|green|gray>")
			return true
		}
		theme := cli.ColorTheme(cmd.Args[0])
		if err := h.view.SetTheme(theme); err != nil {
			h.view.ShowError(err)
			return true
		}
		h.view.ShowMessage(fmt.Sprintf("Color theme set to: %s", theme))
		if h.gameID != "" {
			h.refresh()
		}

	case cli.CmdUnknown:
		h.view.ShowMessage(fmt.Sprintf("Unknown command %q, type 'help' for the list", cmd.Raw))

	default:
		if h.gameID == "" {
			h.view.ShowMessage("No active game. Use 'new' to start one.")
			return true
		}
		h.handleGameCommand(cmd)
	}

	return true
}

func (h *CLIHandler) handleGameCommand(cmd *cli.Command) {
	switch cmd.Type {
	case cli.CmdBoard:
		h.refresh()

	case cli.CmdClock:
		if resp := h.execute(processor.NewGetGameCommand(h.gameID)); resp != nil {
			h.view.ShowClock(*resp)
		}

	case cli.CmdReset:
		if resp := h.execute(processor.NewResetGameCommand(h.gameID)); resp != nil {
			h.view.ShowMessage("Game reset.")
			h.view.DisplayBoard(*resp)
		}

	case cli.CmdSelect:
		nums, ok := h.ints(cmd.Args, 2, "Usage: select <row> <col>")
		if !ok {
			return
		}
		if resp := h.execute(processor.NewSelectCommand(h.gameID, core.Pos(nums[0], nums[1]))); resp != nil {
			h.view.DisplayBoard(*resp)
		}

	case cli.CmdMove:
		nums, ok := h.ints(cmd.Args, 2, "Usage: move <row> <col>")
		if !ok {
			return
		}
		h.move(processor.NewMakeMoveCommand(h.gameID, nil, core.Pos(nums[0], nums[1])))

	case cli.CmdPlay:
		nums, ok := h.ints(cmd.Args, 4, "Usage: play <r1> <c1> <r2> <c2>")
		if !ok {
			return
		}
		from := core.Pos(nums[0], nums[1])
		h.move(processor.NewMakeMoveCommand(h.gameID, &from, core.Pos(nums[2], nums[3])))

	case cli.CmdMoves:
		var pos core.Position
		switch len(cmd.Args) {
		case 0:
			if h.game.Selected == nil {
				h.view.ShowMessage("No piece selected. Usage: moves [row col]")
				return
			}
			pos = *h.game.Selected
		default:
			nums, ok := h.ints(cmd.Args, 2, "Usage: moves [row col]")
			if !ok {
				return
			}
			pos = core.Pos(nums[0], nums[1])
		}

		resp := h.proc.Execute(processor.NewLegalMovesCommand(h.gameID, pos))
		if !resp.Success {
			h.view.ShowAPIError(resp.Error)
			return
		}
		h.view.ShowLegalMoves(resp.Data.(core.LegalMovesResponse))
	}
}

func (h *CLIHandler) move(cmd processor.Command) {
	resp := h.execute(cmd)
	if resp == nil {
		return
	}

	h.view.ShowMove(resp.LastMove)
	h.view.DisplayBoard(*resp)

	if state := resp.State; state != core.StateOngoing.String() && state != core.StatePending.String() {
		h.view.ShowGameOver(state)
	}
}

// handleNewGame parses "new [size] [camp] [ai]" and starts watching the game
func (h *CLIHandler) handleNewGame(args []string) {
	req := h.defaults
	if len(args) > 0 {
		size, err := strconv.Atoi(args[0])
		if err != nil {
			h.view.ShowMessage("Usage: new [size] [camp] [ai]")
			return
		}
		req.BoardSize = size
	}
	if len(args) > 1 {
		req.Camp = args[1]
	}
	if len(args) > 2 {
		req.AIColor = args[2]
	}

	resp := h.proc.Execute(processor.NewCreateGameCommand(req))
	if !resp.Success {
		h.view.ShowAPIError(resp.Error)
		return
	}

	// One game at a time
	h.Close()
	if h.gameID != "" {
		h.proc.Execute(processor.NewDeleteGameCommand(h.gameID))
	}

	h.game = resp.Data.(core.GameResponse)
	h.gameID = h.game.GameID

	ctx, cancel := context.WithCancel(context.Background())
	h.stop = cancel
	go h.watch(ctx, h.gameID, h.game.MoveCount)

	h.view.ShowMessage(fmt.Sprintf("Game started: %dx%d %s camps, green %s, red %s.",
		h.game.BoardSize, h.game.BoardSize, h.game.Camp, h.game.Players.Green, h.game.Players.Red))
	h.view.DisplayBoard(h.game)
}

// watch long-polls the game and prints what the player did not do here:
// computer replies and restarts after a finished game.
func (h *CLIHandler) watch(ctx context.Context, gameID string, seen int) {
	svc := h.proc.Service()
	over := false
	for {
		waitCtx, cancel := context.WithCancel(ctx)
		notify := svc.RegisterWait(waitCtx, gameID, seen)

		resp := h.proc.Execute(processor.NewGetGameCommand(gameID))
		if !resp.Success {
			cancel()
			return
		}
		g := resp.Data.(core.GameResponse)

		if g.MoveCount == seen {
			select {
			case <-notify:
			case <-ctx.Done():
			}
			cancel()
			if ctx.Err() != nil {
				return
			}
			continue
		}
		cancel()

		switch {
		case g.MoveCount < seen && over:
			h.view.ShowMessage("\nNew game started.")
			h.view.DisplayBoard(g)
		case g.LastMove != nil && g.LastMove.Computer:
			h.view.ShowMove(g.LastMove)
			h.view.DisplayBoard(g)
			if g.State != core.StateOngoing.String() && g.State != core.StatePending.String() {
				h.view.ShowGameOver(g.State)
			}
		}
		log.Debug().Str("game", gameID).Int("moves", g.MoveCount).Msg("watcher observed update")
		seen = g.MoveCount
		over = g.State != core.StateOngoing.String() && g.State != core.StatePending.String()
	}
}

// refresh re-reads and draws the current game
func (h *CLIHandler) refresh() {
	if resp := h.execute(processor.NewGetGameCommand(h.gameID)); resp != nil {
		h.view.DisplayBoard(*resp)
	}
}

// execute runs a command returning a game, printing any error
func (h *CLIHandler) execute(cmd processor.Command) *core.GameResponse {
	resp := h.proc.Execute(cmd)
	if !resp.Success {
		h.view.ShowAPIError(resp.Error)
		if resp.Error != nil && resp.Error.Code == core.ErrGameNotFound {
			h.Close()
			h.gameID = ""
		}
		return nil
	}

	g := resp.Data.(core.GameResponse)
	h.game = g
	return &g
}

func (h *CLIHandler) ints(args []string, n int, usage string) ([]int, bool) {
	if len(args) != n {
		h.view.ShowMessage(usage)
		return nil, false
	}
	nums := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(strings.TrimSuffix(a, ","))
		if err != nil {
			h.view.ShowMessage(usage)
			return nil, false
		}
		nums[i] = v
	}
	return nums, true
}
