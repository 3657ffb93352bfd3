package processor

import (
	"testing"
	"time"

	"halma/internal/core"
	"halma/internal/game"
	"halma/internal/service"

	"github.com/stretchr/testify/require"
)

func testDefaults() game.Config {
	cfg := game.DefaultConfig()
	cfg.AIDepth = 1
	cfg.AIDelay = 5 * time.Millisecond
	cfg.AutoReset = false
	return cfg
}

func newTestProcessor(t *testing.T, options ...service.Option) *Processor {
	t.Helper()
	p := New(service.New(options...), testDefaults())
	t.Cleanup(func() { p.Close() })
	return p
}

func createGame(t *testing.T, p *Processor, req core.CreateGameRequest) core.GameResponse {
	t.Helper()
	resp := p.Execute(NewCreateGameCommand(req))
	require.True(t, resp.Success, "%+v", resp.Error)
	return resp.Data.(core.GameResponse)
}

func getGame(t *testing.T, p *Processor, gameID string) core.GameResponse {
	t.Helper()
	resp := p.Execute(NewGetGameCommand(gameID))
	require.True(t, resp.Success, "%+v", resp.Error)
	return resp.Data.(core.GameResponse)
}

func requireCode(t *testing.T, resp ProcessorResponse, code string) {
	t.Helper()
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	require.Equal(t, code, resp.Error.Code, resp.Error.Details)
}

func TestCreateGame(t *testing.T) {
	p := newTestProcessor(t)

	t.Run("defaults", func(t *testing.T) {
		g := createGame(t, p, core.CreateGameRequest{BoardSize: 8})
		require.NotEmpty(t, g.GameID)
		require.Equal(t, 8, g.BoardSize)
		require.Equal(t, "triangle", g.Camp)
		require.Equal(t, "green", g.Turn)
		require.Equal(t, "ongoing", g.State)
		require.Len(t, g.Pieces, 12)
		require.Equal(t, "human", g.Players.Green)
		require.Equal(t, "computer", g.Players.Red)
	})

	t.Run("overrides", func(t *testing.T) {
		g := createGame(t, p, core.CreateGameRequest{BoardSize: 8, Camp: "corner", AIColor: "none"})
		require.Len(t, g.Pieces, 20)
		require.Equal(t, "human", g.Players.Red)
	})

	t.Run("invalid size", func(t *testing.T) {
		requireCode(t, p.Execute(NewCreateGameCommand(core.CreateGameRequest{BoardSize: 1})), core.ErrInvalidRequest)
	})

	t.Run("unknown camp", func(t *testing.T) {
		requireCode(t, p.Execute(NewCreateGameCommand(core.CreateGameRequest{BoardSize: 8, Camp: "star"})), core.ErrInvalidRequest)
	})

	t.Run("unknown ai color", func(t *testing.T) {
		requireCode(t, p.Execute(NewCreateGameCommand(core.CreateGameRequest{BoardSize: 8, AIColor: "blue"})), core.ErrInvalidRequest)
	})

	t.Run("wrong argument type", func(t *testing.T) {
		requireCode(t, p.Execute(Command{Type: CmdCreateGame, Args: "8"}), core.ErrInvalidRequest)
	})
}

func TestGameLimit(t *testing.T) {
	p := newTestProcessor(t, service.WithMaxGames(1))

	createGame(t, p, core.CreateGameRequest{BoardSize: 4})
	requireCode(t, p.Execute(NewCreateGameCommand(core.CreateGameRequest{BoardSize: 4})), core.ErrResourceLimit)
}

func TestUnknownGame(t *testing.T) {
	p := newTestProcessor(t)
	pos := core.Pos(0, 0)

	for _, cmd := range []Command{
		NewGetGameCommand("missing"),
		NewDeleteGameCommand("missing"),
		NewSelectCommand("missing", pos),
		NewMakeMoveCommand("missing", nil, pos),
		NewLegalMovesCommand("missing", pos),
		NewResetGameCommand("missing"),
		NewGetBoardCommand("missing"),
	} {
		requireCode(t, p.Execute(cmd), core.ErrGameNotFound)
	}
}

func TestSelectAndMove(t *testing.T) {
	p := newTestProcessor(t)
	g := createGame(t, p, core.CreateGameRequest{BoardSize: 8})

	t.Run("move without selection", func(t *testing.T) {
		requireCode(t, p.Execute(NewMakeMoveCommand(g.GameID, nil, core.Pos(2, 2))), core.ErrNoSelection)
	})

	t.Run("select opponent piece", func(t *testing.T) {
		requireCode(t, p.Execute(NewSelectCommand(g.GameID, core.Pos(7, 7))), core.ErrInvalidSelection)
	})

	t.Run("select shows candidates", func(t *testing.T) {
		resp := p.Execute(NewSelectCommand(g.GameID, core.Pos(1, 1)))
		require.True(t, resp.Success)
		data := resp.Data.(core.GameResponse)
		require.Equal(t, &core.Position{Row: 1, Col: 1}, data.Selected)
		require.Equal(t, []core.Position{{Row: 1, Col: 2}, {Row: 2, Col: 1}, {Row: 2, Col: 2}}, data.Candidates)
		require.Equal(t, "piece selected", data.Phase)
	})

	t.Run("illegal destination", func(t *testing.T) {
		requireCode(t, p.Execute(NewMakeMoveCommand(g.GameID, nil, core.Pos(4, 4))), core.ErrInvalidMove)
		require.Equal(t, 0, getGame(t, p, g.GameID).MoveCount)
	})

	t.Run("legal move schedules the computer", func(t *testing.T) {
		resp := p.Execute(NewMakeMoveCommand(g.GameID, nil, core.Pos(2, 2)))
		require.True(t, resp.Success, "%+v", resp.Error)
		require.True(t, resp.Pending)

		data := resp.Data.(core.GameResponse)
		require.Equal(t, 1, data.MoveCount)
		require.Equal(t, "pending", data.State)
		require.Equal(t, "red", data.Turn)
		require.NotNil(t, data.LastMove)
		require.Equal(t, core.Pos(2, 2), data.LastMove.To)
	})

	t.Run("computer replies on the loop", func(t *testing.T) {
		require.Eventually(t, func() bool {
			resp := p.Execute(NewGetGameCommand(g.GameID))
			return resp.Success && resp.Data.(core.GameResponse).MoveCount == 2
		}, 2*time.Second, 10*time.Millisecond)

		data := getGame(t, p, g.GameID)
		require.Equal(t, "green", data.Turn)
		require.Equal(t, "ongoing", data.State)
		require.True(t, data.LastMove.Computer)
		require.Equal(t, "red", data.LastMove.PlayerColor)
		require.Len(t, data.Pieces, 12)
	})

	t.Run("move with explicit origin", func(t *testing.T) {
		from := core.Pos(0, 2)
		resp := p.Execute(NewMakeMoveCommand(g.GameID, &from, core.Pos(1, 2)))
		require.True(t, resp.Success, "%+v", resp.Error)
	})
}

func TestLegalMovesCommand(t *testing.T) {
	p := newTestProcessor(t)
	g := createGame(t, p, core.CreateGameRequest{BoardSize: 8, AIColor: "none"})

	resp := p.Execute(NewLegalMovesCommand(g.GameID, core.Pos(1, 1)))
	require.True(t, resp.Success)
	data := resp.Data.(core.LegalMovesResponse)
	require.Equal(t, core.Pos(1, 1), data.From)
	require.Len(t, data.Destinations, 3)

	// Destinations are never null
	resp = p.Execute(NewLegalMovesCommand(g.GameID, core.Pos(0, 0)))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Data.(core.LegalMovesResponse).Destinations)

	requireCode(t, p.Execute(NewLegalMovesCommand(g.GameID, core.Pos(4, 4))), core.ErrInvalidSelection)
}

func TestResetBoardDelete(t *testing.T) {
	p := newTestProcessor(t)
	g := createGame(t, p, core.CreateGameRequest{BoardSize: 6, AIColor: "none"})

	from := core.Pos(1, 0)
	require.True(t, p.Execute(NewMakeMoveCommand(g.GameID, &from, core.Pos(2, 0))).Success)
	require.Equal(t, 1, getGame(t, p, g.GameID).MoveCount)

	resp := p.Execute(NewResetGameCommand(g.GameID))
	require.True(t, resp.Success)
	require.Equal(t, 0, resp.Data.(core.GameResponse).MoveCount)

	resp = p.Execute(NewGetBoardCommand(g.GameID))
	require.True(t, resp.Success)
	require.Contains(t, resp.Data.(core.BoardResponse).Board, " 0 G G . . . .  0")

	require.True(t, p.Execute(NewDeleteGameCommand(g.GameID)).Success)
	requireCode(t, p.Execute(NewGetGameCommand(g.GameID)), core.ErrGameNotFound)
	require.Zero(t, p.Service().Count())
}

func TestExecuteAfterClose(t *testing.T) {
	p := New(service.New(), testDefaults())
	require.NoError(t, p.Close())
	requireCode(t, p.Execute(NewGetGameCommand("x")), core.ErrInternalError)
}

func TestCloseInterruptsComputerSearch(t *testing.T) {
	p := New(service.New(), testDefaults())
	g := createGame(t, p, core.CreateGameRequest{BoardSize: 32, Camp: "corner", AIColor: "green", AIDepth: 6})
	require.Equal(t, "pending", g.State)

	// Past the thinking pause the search owns the loop
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	require.NoError(t, p.Close())
	require.Less(t, time.Since(start), 2*time.Second)
}
