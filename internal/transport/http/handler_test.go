package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"halma/internal/core"
	"halma/internal/game"
	"halma/internal/processor"
	"halma/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.AIDepth = 1
	cfg.AIDelay = time.Hour
	cfg.AutoReset = false

	proc := processor.New(service.New(), cfg)
	t.Cleanup(func() { proc.Close() })
	return NewFiberApp(proc, true)
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, 2000)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func createTestGame(t *testing.T, app *fiber.App, body string) core.GameResponse {
	t.Helper()
	status, data := do(t, app, http.MethodPost, "/api/v1/games", body)
	require.Equal(t, http.StatusCreated, status, string(data))
	return decode[core.GameResponse](t, data)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	status, data := do(t, app, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, status)

	body := decode[map[string]any](t, data)
	require.Equal(t, "healthy", body["status"])
	require.EqualValues(t, 0, body["games"])
}

func TestCreateGameRoute(t *testing.T) {
	app := newTestApp(t)

	g := createTestGame(t, app, `{"boardSize":8,"aiColor":"none"}`)
	require.True(t, isValidUUID(g.GameID))
	require.Equal(t, "green", g.Turn)
	require.Len(t, g.Pieces, 12)

	t.Run("validation", func(t *testing.T) {
		status, data := do(t, app, http.MethodPost, "/api/v1/games", `{"boardSize":99}`)
		require.Equal(t, http.StatusBadRequest, status)
		e := decode[core.ErrorResponse](t, data)
		require.Equal(t, core.ErrInvalidRequest, e.Code)
		require.Contains(t, e.Details, "at most 32")
	})

	t.Run("malformed json", func(t *testing.T) {
		status, _ := do(t, app, http.MethodPost, "/api/v1/games", `{"boardSize":`)
		require.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/games", strings.NewReader("boardSize=8"))
		req.Header.Set("Content-Type", "text/plain")
		resp, err := app.Test(req, 2000)
		require.NoError(t, err)
		require.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	})
}

func TestGameRoutes(t *testing.T) {
	app := newTestApp(t)
	g := createTestGame(t, app, `{"boardSize":8,"aiColor":"none"}`)
	base := "/api/v1/games/" + g.GameID

	t.Run("get", func(t *testing.T) {
		status, data := do(t, app, http.MethodGet, base, "")
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, g.GameID, decode[core.GameResponse](t, data).GameID)
	})

	t.Run("invalid id", func(t *testing.T) {
		status, _ := do(t, app, http.MethodGet, "/api/v1/games/not-a-uuid", "")
		require.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("unknown id", func(t *testing.T) {
		status, data := do(t, app, http.MethodGet, "/api/v1/games/00000000-0000-0000-0000-000000000000", "")
		require.Equal(t, http.StatusNotFound, status)
		require.Equal(t, core.ErrGameNotFound, decode[core.ErrorResponse](t, data).Code)
	})

	t.Run("legal moves", func(t *testing.T) {
		status, data := do(t, app, http.MethodGet, base+"/moves?row=1&col=1", "")
		require.Equal(t, http.StatusOK, status)
		require.Len(t, decode[core.LegalMovesResponse](t, data).Destinations, 3)

		status, _ = do(t, app, http.MethodGet, base+"/moves?row=x", "")
		require.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("select and move", func(t *testing.T) {
		status, data := do(t, app, http.MethodPost, base+"/select", `{"row":1,"col":1}`)
		require.Equal(t, http.StatusOK, status, string(data))
		require.Equal(t, "piece selected", decode[core.GameResponse](t, data).Phase)

		status, data = do(t, app, http.MethodPost, base+"/moves", `{"to":{"row":2,"col":2}}`)
		require.Equal(t, http.StatusOK, status, string(data))
		moved := decode[core.GameResponse](t, data)
		require.Equal(t, 1, moved.MoveCount)
		require.Equal(t, "red", moved.Turn)
	})

	t.Run("rejected move", func(t *testing.T) {
		status, data := do(t, app, http.MethodPost, base+"/moves", `{"from":{"row":6,"col":6},"to":{"row":0,"col":0}}`)
		require.Equal(t, http.StatusBadRequest, status)
		require.Equal(t, core.ErrInvalidMove, decode[core.ErrorResponse](t, data).Code)
	})

	t.Run("missing field", func(t *testing.T) {
		status, data := do(t, app, http.MethodPost, base+"/select", `{"row":1}`)
		require.Equal(t, http.StatusBadRequest, status)
		require.Contains(t, decode[core.ErrorResponse](t, data).Details, "Col is required")
	})

	t.Run("stale long poll returns at once", func(t *testing.T) {
		status, data := do(t, app, http.MethodGet, base+"?wait=true&moveCount=0", "")
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, 1, decode[core.GameResponse](t, data).MoveCount)
	})

	t.Run("board", func(t *testing.T) {
		status, data := do(t, app, http.MethodGet, base+"/board", "")
		require.Equal(t, http.StatusOK, status)
		require.Contains(t, decode[core.BoardResponse](t, data).Board, "G")
	})

	t.Run("reset", func(t *testing.T) {
		status, data := do(t, app, http.MethodPost, base+"/reset", "")
		require.Equal(t, http.StatusOK, status, string(data))
		require.Zero(t, decode[core.GameResponse](t, data).MoveCount)
	})

	t.Run("delete", func(t *testing.T) {
		status, _ := do(t, app, http.MethodDelete, base, "")
		require.Equal(t, http.StatusNoContent, status)

		status, _ = do(t, app, http.MethodGet, base, "")
		require.Equal(t, http.StatusNotFound, status)
	})
}

func TestComputerTurnConflict(t *testing.T) {
	app := newTestApp(t)
	// Computer plays green and its move is scheduled an hour out
	g := createTestGame(t, app, `{"boardSize":8,"aiColor":"green"}`)
	require.Equal(t, "pending", g.State)

	status, data := do(t, app, http.MethodPost, "/api/v1/games/"+g.GameID+"/select", `{"row":1,"col":1}`)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, core.ErrNotHumanTurn, decode[core.ErrorResponse](t, data).Code)
}
