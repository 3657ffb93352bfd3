package core

// Request types

type CreateGameRequest struct {
	BoardSize int    `json:"boardSize" validate:"required,min=2,max=32"`
	Camp      string `json:"camp,omitempty" validate:"omitempty,oneof=triangle corner"`
	AIColor   string `json:"aiColor,omitempty" validate:"omitempty,oneof=green red none"`
	AIDepth   int    `json:"aiDepth,omitempty" validate:"omitempty,min=1,max=6"`
}

// PositionRequest addresses one cell; pointers distinguish a missing field from row/column 0
type PositionRequest struct {
	Row *int `json:"row" validate:"required,min=0,max=31"`
	Col *int `json:"col" validate:"required,min=0,max=31"`
}

func (r PositionRequest) Position() Position {
	return Position{Row: *r.Row, Col: *r.Col}
}

// MoveRequest moves the selected piece to To, or the piece on From when given
type MoveRequest struct {
	From *PositionRequest `json:"from,omitempty"`
	To   PositionRequest  `json:"to"`
}

// Response types

type GameResponse struct {
	GameID     string          `json:"gameId"`
	BoardSize  int             `json:"boardSize"`
	Camp       string          `json:"camp"`
	Turn       string          `json:"turn"`
	State      string          `json:"state"`
	Phase      string          `json:"phase"`
	MoveCount  int             `json:"moveCount"`
	Selected   *Position       `json:"selected,omitempty"`
	Candidates []Position      `json:"candidates,omitempty"`
	Pieces     []PieceInfo     `json:"pieces"`
	Players    PlayersResponse `json:"players"`
	Clock      ClockResponse   `json:"clock"`
	LastMove   *MoveInfo       `json:"lastMove,omitempty"`
}

type PieceInfo struct {
	ID    int    `json:"id"`
	Color string `json:"color"`
	Row   int    `json:"row"`
	Col   int    `json:"col"`
}

type PlayersResponse struct {
	Green string `json:"green"`
	Red   string `json:"red"`
}

// ClockResponse carries cumulative think-time in milliseconds
type ClockResponse struct {
	Green int64 `json:"green"`
	Red   int64 `json:"red"`
}

type MoveInfo struct {
	PlayerColor string   `json:"playerColor"`
	From        Position `json:"from"`
	To          Position `json:"to"`
	Computer    bool     `json:"computer"`
	Score       float64  `json:"score,omitempty"`
	Depth       int      `json:"depth,omitempty"`
	Nodes       int      `json:"nodes,omitempty"`
}

type LegalMovesResponse struct {
	From         Position   `json:"from"`
	Destinations []Position `json:"destinations"`
}

type BoardResponse struct {
	Board string `json:"board"` // ASCII representation
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
