package processor

import (
	"errors"
	"fmt"
	"time"

	"halma/internal/board"
	"halma/internal/core"
	"halma/internal/game"
	"halma/internal/service"
)

const shutdownTimeout = 5 * time.Second

// Processor executes commands against the service on its single loop
type Processor struct {
	svc      *service.Service
	loop     *Loop
	defaults game.Config
}

// New creates a processor; defaults fill the fields a create request leaves out
func New(svc *service.Service, defaults game.Config) *Processor {
	return &Processor{
		svc:      svc,
		loop:     NewLoop(100),
		defaults: defaults,
	}
}

// Execute runs cmd on the loop and waits for its response
func (p *Processor) Execute(cmd Command) ProcessorResponse {
	var resp ProcessorResponse
	if err := p.loop.Do(func() { resp = p.dispatch(cmd) }); err != nil {
		return p.errorResponse("processor unavailable", core.ErrInternalError, err)
	}
	return resp
}

func (p *Processor) dispatch(cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdCreateGame:
		return p.handleCreateGame(cmd)
	case CmdGetGame:
		return p.handleGetGame(cmd)
	case CmdDeleteGame:
		return p.handleDeleteGame(cmd)
	case CmdSelect:
		return p.handleSelect(cmd)
	case CmdMakeMove:
		return p.handleMakeMove(cmd)
	case CmdLegalMoves:
		return p.handleLegalMoves(cmd)
	case CmdResetGame:
		return p.handleResetGame(cmd)
	case CmdGetBoard:
		return p.handleGetBoard(cmd)
	default:
		return p.errorResponse("unknown command", core.ErrInvalidRequest, nil)
	}
}

// GameConfig merges a create request into the processor defaults
func (p *Processor) GameConfig(req core.CreateGameRequest) (game.Config, error) {
	cfg := p.defaults
	cfg.Size = req.BoardSize

	shape, err := board.ShapeByName(req.Camp)
	if err != nil {
		return cfg, err
	}
	if req.Camp != "" {
		cfg.Shape = shape
	}

	if req.AIColor != "" {
		color, err := core.ParseColor(req.AIColor)
		if err != nil {
			return cfg, fmt.Errorf("%w: %v", game.ErrInvalidConfig, err)
		}
		cfg.AIColor = color
	}
	if req.AIDepth > 0 {
		cfg.AIDepth = req.AIDepth
	}
	return cfg, nil
}

func (p *Processor) handleCreateGame(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.CreateGameRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest, nil)
	}

	cfg, err := p.GameConfig(args)
	if err != nil {
		return p.errorResponse("invalid game configuration", core.ErrInvalidRequest, err)
	}

	gameID, ctrl, err := p.svc.CreateGame(cfg, p.loop)
	if err != nil {
		return p.errorResponse("failed to create game", errorCode(err), err)
	}

	return p.gameResponse(gameID, ctrl)
}

func (p *Processor) handleGetGame(cmd Command) ProcessorResponse {
	ctrl, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound, nil)
	}
	return p.gameResponse(cmd.GameID, ctrl)
}

func (p *Processor) handleDeleteGame(cmd Command) ProcessorResponse {
	if err := p.svc.DeleteGame(cmd.GameID); err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound, nil)
	}
	return ProcessorResponse{Success: true}
}

func (p *Processor) handleSelect(cmd Command) ProcessorResponse {
	pos, ok := cmd.Args.(core.Position)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest, nil)
	}

	ctrl, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound, nil)
	}

	if err := ctrl.Select(pos); err != nil {
		return p.errorResponse("selection rejected", errorCode(err), err)
	}
	return p.gameResponse(cmd.GameID, ctrl)
}

func (p *Processor) handleMakeMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(moveArgs)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest, nil)
	}

	ctrl, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound, nil)
	}

	if args.from != nil {
		err = ctrl.ApplyMove(*args.from, args.to)
	} else {
		err = ctrl.AttemptMove(args.to)
	}
	if err != nil {
		return p.errorResponse("move rejected", errorCode(err), err)
	}
	return p.gameResponse(cmd.GameID, ctrl)
}

func (p *Processor) handleLegalMoves(cmd Command) ProcessorResponse {
	pos, ok := cmd.Args.(core.Position)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest, nil)
	}

	ctrl, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound, nil)
	}

	moves, err := ctrl.LegalMoves(pos)
	if err != nil {
		return p.errorResponse("no piece on cell", errorCode(err), err)
	}
	if moves == nil {
		moves = []core.Position{}
	}

	return ProcessorResponse{
		Success: true,
		Data: core.LegalMovesResponse{
			From:         pos,
			Destinations: moves,
		},
	}
}

func (p *Processor) handleResetGame(cmd Command) ProcessorResponse {
	ctrl, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound, nil)
	}

	ctrl.Reset()
	return p.gameResponse(cmd.GameID, ctrl)
}

func (p *Processor) handleGetBoard(cmd Command) ProcessorResponse {
	ctrl, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound, nil)
	}

	return ProcessorResponse{
		Success: true,
		Data: core.BoardResponse{
			Board: ctrl.Board().ToASCII(),
		},
	}
}

func (p *Processor) gameResponse(gameID string, ctrl *game.Controller) ProcessorResponse {
	return ProcessorResponse{
		Success: true,
		Pending: ctrl.State() == core.StatePending,
		Data:    BuildGameResponse(gameID, ctrl.View()),
	}
}

// BuildGameResponse converts a game snapshot to its wire form
func BuildGameResponse(gameID string, v game.View) core.GameResponse {
	resp := core.GameResponse{
		GameID:     gameID,
		BoardSize:  v.Size,
		Camp:       v.Shape,
		Turn:       v.Turn.String(),
		State:      v.State.String(),
		Phase:      v.Phase.String(),
		MoveCount:  v.MoveCount,
		Selected:   v.Selected,
		Candidates: v.Candidates,
		Pieces:     make([]core.PieceInfo, 0, len(v.Pieces)),
		Players: core.PlayersResponse{
			Green: v.Players[core.ColorGreen.Index()].String(),
			Red:   v.Players[core.ColorRed.Index()].String(),
		},
		Clock: core.ClockResponse{
			Green: v.Clock[core.ColorGreen.Index()].Milliseconds(),
			Red:   v.Clock[core.ColorRed.Index()].Milliseconds(),
		},
	}

	for _, piece := range v.Pieces {
		resp.Pieces = append(resp.Pieces, core.PieceInfo{
			ID:    piece.ID,
			Color: piece.Color.String(),
			Row:   piece.Pos.Row,
			Col:   piece.Pos.Col,
		})
	}

	// Include last move if available
	if last := v.LastMove; last != nil {
		resp.LastMove = &core.MoveInfo{
			PlayerColor: last.PlayerColor.String(),
			From:        last.From,
			To:          last.To,
			Computer:    last.Computer,
			Score:       last.Score,
			Depth:       last.Depth,
			Nodes:       last.Nodes,
		}
	}

	return resp
}

// errorCode maps domain errors to API error codes
func errorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return core.ErrGameNotFound
	case errors.Is(err, service.ErrTooManyGames):
		return core.ErrResourceLimit
	case errors.Is(err, game.ErrInvalidMove):
		return core.ErrInvalidMove
	case errors.Is(err, game.ErrNotOwnPiece), errors.Is(err, game.ErrEmptyCell):
		return core.ErrInvalidSelection
	case errors.Is(err, game.ErrNoSelection):
		return core.ErrNoSelection
	case errors.Is(err, game.ErrNotHumanTurn):
		return core.ErrNotHumanTurn
	case errors.Is(err, game.ErrGameOver):
		return core.ErrGameOver
	case errors.Is(err, board.ErrInvalidSize), errors.Is(err, board.ErrInvalidCamp), errors.Is(err, game.ErrInvalidConfig):
		return core.ErrInvalidRequest
	default:
		return core.ErrInternalError
	}
}

// errorResponse creates error response
func (p *Processor) errorResponse(message, code string, err error) ProcessorResponse {
	resp := ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error: message,
			Code:  code,
		},
	}
	if err != nil {
		resp.Error.Details = err.Error()
	}
	return resp
}

// Service exposes the game registry, for long-poll registration
func (p *Processor) Service() *service.Service {
	return p.svc
}

// Close stops the loop; pending computer moves and resets are dropped
func (p *Processor) Close() error {
	return p.loop.Shutdown(shutdownTimeout)
}
