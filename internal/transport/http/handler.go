package http

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"halma/internal/core"
	"halma/internal/processor"
	"halma/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const rateLimitRate = 10 // req/sec

// HTTPHandler handles HTTP requests and routes them to the processor
type HTTPHandler struct {
	proc *processor.Processor
	svc  *service.Service
}

func NewHTTPHandler(proc *processor.Processor) *HTTPHandler {
	return &HTTPHandler{proc: proc, svc: proc.Service()}
}

func NewFiberApp(proc *processor.Processor, devMode bool) *fiber.App {
	h := NewHTTPHandler(proc)

	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          service.WaitTimeout + 10*time.Second,
		IdleTimeout:           60 * time.Second,
		DisableStartupMessage: true,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	api.Post("/games", h.CreateGame)
	api.Get("/games/:gameId", h.GetGame)
	api.Delete("/games/:gameId", h.DeleteGame)
	api.Post("/games/:gameId/select", h.SelectPiece)
	api.Post("/games/:gameId/moves", h.MakeMove)
	api.Get("/games/:gameId/moves", h.LegalMoves)
	api.Post("/games/:gameId/reset", h.ResetGame)
	api.Get("/games/:gameId/board", h.GetBoard)

	return app
}

// contentTypeValidator ensures POST requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		contentType := c.Get("Content-Type")
		if contentType != "application/json" && contentType != "" {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrGameNotFound
		case fiber.StatusBadRequest:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Unix(),
		"games":  h.svc.Count(),
	})
}

// respond writes a processor response, mapping error codes to HTTP status
func respond(c *fiber.Ctx, resp processor.ProcessorResponse, okStatus int) error {
	if !resp.Success {
		status := fiber.StatusBadRequest
		switch resp.Error.Code {
		case core.ErrGameNotFound:
			status = fiber.StatusNotFound
		case core.ErrResourceLimit:
			status = fiber.StatusServiceUnavailable
		case core.ErrInternalError:
			status = fiber.StatusInternalServerError
		case core.ErrNotHumanTurn, core.ErrGameOver:
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(resp.Error)
	}

	if resp.Data == nil {
		return c.SendStatus(okStatus)
	}
	return c.Status(okStatus).JSON(resp.Data)
}

func badRequest(c *fiber.Ctx, message, details string) error {
	return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
		Error:   message,
		Code:    core.ErrInvalidRequest,
		Details: details,
	})
}

func bypassDetected(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
		Error: err.Error(),
		Code:  core.ErrInternalError,
	})
}

// gameID reads and checks the :gameId path parameter
func gameID(c *fiber.Ctx) (string, bool) {
	id := c.Params("gameId")
	return id, isValidUUID(id)
}

func invalidGameID(c *fiber.Ctx) error {
	return badRequest(c, "invalid game ID format", "game ID must be a valid UUID")
}

// CreateGame starts a new game
func (h *HTTPHandler) CreateGame(c *fiber.Ctx) error {
	req, err := validatedBody[core.CreateGameRequest](c)
	if err != nil {
		return bypassDetected(c, err)
	}

	resp := h.proc.Execute(processor.NewCreateGameCommand(*req))
	return respond(c, resp, fiber.StatusCreated)
}

// GetGame returns the game state. With wait=true and the caller's last known
// moveCount it long-polls until the move count changes or the wait times out.
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}

	resp := h.proc.Execute(processor.NewGetGameCommand(id))
	if !resp.Success || c.Query("wait", "false") != "true" {
		return respond(c, resp, fiber.StatusOK)
	}

	moveCount, err := strconv.Atoi(c.Query("moveCount", "-1"))
	if err != nil {
		moveCount = -1
	}
	if resp.Data.(core.GameResponse).MoveCount != moveCount {
		return respond(c, resp, fiber.StatusOK)
	}

	ctx, cancel := context.WithTimeout(c.Context(), service.WaitTimeout+time.Second)
	defer cancel()
	notify := h.svc.RegisterWait(ctx, id, moveCount)

	// A move may have landed between the first read and the registration
	resp = h.proc.Execute(processor.NewGetGameCommand(id))
	if !resp.Success || resp.Data.(core.GameResponse).MoveCount != moveCount {
		return respond(c, resp, fiber.StatusOK)
	}

	// Woken by a move, a delete or the wait timeout
	select {
	case <-notify:
	case <-ctx.Done():
	}
	return respond(c, h.proc.Execute(processor.NewGetGameCommand(id)), fiber.StatusOK)
}

func (h *HTTPHandler) DeleteGame(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}

	resp := h.proc.Execute(processor.NewDeleteGameCommand(id))
	return respond(c, resp, fiber.StatusNoContent)
}

// SelectPiece selects or deselects a piece of the side to move
func (h *HTTPHandler) SelectPiece(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}

	req, err := validatedBody[core.PositionRequest](c)
	if err != nil {
		return bypassDetected(c, err)
	}

	resp := h.proc.Execute(processor.NewSelectCommand(id, req.Position()))
	return respond(c, resp, fiber.StatusOK)
}

// MakeMove moves the selected piece, or the piece on "from" when given
func (h *HTTPHandler) MakeMove(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}

	req, err := validatedBody[core.MoveRequest](c)
	if err != nil {
		return bypassDetected(c, err)
	}

	var from *core.Position
	if req.From != nil {
		p := req.From.Position()
		from = &p
	}

	resp := h.proc.Execute(processor.NewMakeMoveCommand(id, from, req.To.Position()))
	return respond(c, resp, fiber.StatusOK)
}

// LegalMoves lists the destinations of the piece on ?row=&col=
func (h *HTTPHandler) LegalMoves(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}

	row, errRow := strconv.Atoi(c.Query("row"))
	col, errCol := strconv.Atoi(c.Query("col"))
	if errRow != nil || errCol != nil {
		return badRequest(c, "invalid position", "row and col query parameters must be integers")
	}

	resp := h.proc.Execute(processor.NewLegalMovesCommand(id, core.Pos(row, col)))
	return respond(c, resp, fiber.StatusOK)
}

// ResetGame restarts a game on a fresh board
func (h *HTTPHandler) ResetGame(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}

	resp := h.proc.Execute(processor.NewResetGameCommand(id))
	return respond(c, resp, fiber.StatusOK)
}

// GetBoard returns ASCII representation of the board
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	id, ok := gameID(c)
	if !ok {
		return invalidGameID(c)
	}

	resp := h.proc.Execute(processor.NewGetBoardCommand(id))
	return respond(c, resp, fiber.StatusOK)
}
