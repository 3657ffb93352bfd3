package processor

import (
	"halma/internal/core"
)

// CommandType defines the type of command being executed
type CommandType int

const (
	CmdCreateGame CommandType = iota
	CmdGetGame
	CmdDeleteGame
	CmdSelect
	CmdMakeMove
	CmdLegalMoves
	CmdResetGame
	CmdGetBoard
)

func (t CommandType) String() string {
	switch t {
	case CmdCreateGame:
		return "create"
	case CmdGetGame:
		return "get"
	case CmdDeleteGame:
		return "delete"
	case CmdSelect:
		return "select"
	case CmdMakeMove:
		return "move"
	case CmdLegalMoves:
		return "legal moves"
	case CmdResetGame:
		return "reset"
	case CmdGetBoard:
		return "board"
	default:
		return "unknown"
	}
}

// Command is a unified structure for all processor operations
type Command struct {
	Type   CommandType
	GameID string // For game-specific commands
	Args   any    // Command-specific arguments
}

// ProcessorResponse wraps the response with metadata
type ProcessorResponse struct {
	Success bool                `json:"success"`
	Pending bool                `json:"pending,omitempty"` // Computer reply scheduled
	Data    any                 `json:"data,omitempty"`
	Error   *core.ErrorResponse `json:"error,omitempty"`
}

func NewCreateGameCommand(req core.CreateGameRequest) Command {
	return Command{
		Type: CmdCreateGame,
		Args: req,
	}
}

func NewGetGameCommand(gameID string) Command {
	return Command{
		Type:   CmdGetGame,
		GameID: gameID,
	}
}

func NewDeleteGameCommand(gameID string) Command {
	return Command{
		Type:   CmdDeleteGame,
		GameID: gameID,
	}
}

func NewSelectCommand(gameID string, pos core.Position) Command {
	return Command{
		Type:   CmdSelect,
		GameID: gameID,
		Args:   pos,
	}
}

// NewMakeMoveCommand moves the selected piece, or the piece on from when it is not nil
func NewMakeMoveCommand(gameID string, from *core.Position, to core.Position) Command {
	return Command{
		Type:   CmdMakeMove,
		GameID: gameID,
		Args:   moveArgs{from: from, to: to},
	}
}

func NewLegalMovesCommand(gameID string, pos core.Position) Command {
	return Command{
		Type:   CmdLegalMoves,
		GameID: gameID,
		Args:   pos,
	}
}

func NewResetGameCommand(gameID string) Command {
	return Command{
		Type:   CmdResetGame,
		GameID: gameID,
	}
}

func NewGetBoardCommand(gameID string) Command {
	return Command{
		Type:   CmdGetBoard,
		GameID: gameID,
	}
}

type moveArgs struct {
	from *core.Position
	to   core.Position
}
