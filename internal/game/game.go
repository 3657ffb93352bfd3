package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"halma/internal/board"
	"halma/internal/core"
	"halma/internal/engine"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidMove   = errors.New("invalid move")
	ErrNoSelection   = errors.New("no piece selected")
	ErrNotOwnPiece   = errors.New("no piece of the side to move on that cell")
	ErrEmptyCell     = errors.New("no piece on that cell")
	ErrNotHumanTurn  = errors.New("computer is to move")
	ErrGameOver      = errors.New("game is over")
	ErrInvalidConfig = errors.New("invalid game config")
)

type Phase int

const (
	PhaseAwaitingSelection Phase = iota
	PhasePieceSelected
	PhaseTurnComplete // Move applied, computer reply pending
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingSelection:
		return "awaiting selection"
	case PhasePieceSelected:
		return "piece selected"
	case PhaseTurnComplete:
		return "turn complete"
	case PhaseGameOver:
		return "game over"
	default:
		return "unknown"
	}
}

// Scheduler runs fn once after delay. Callbacks must run serially with every
// other call into the controller. The context passed to fn is cancelled when
// the scheduler shuts down.
type Scheduler interface {
	ScheduleAfter(delay time.Duration, fn func(ctx context.Context))
}

// inlineScheduler ignores the delay and runs callbacks immediately
type inlineScheduler struct{}

func (inlineScheduler) ScheduleAfter(_ time.Duration, fn func(ctx context.Context)) {
	fn(context.Background())
}

type Config struct {
	Size          int
	Shape         board.CampShape
	AIColor       core.Color // ColorNone for two human players
	AIDepth       int
	AIDelay       time.Duration
	ResetDelay    time.Duration
	AutoReset     bool
	SearchTimeout time.Duration // zero leaves only the engine's large-search cap
}

func DefaultConfig() Config {
	return Config{
		Size:       8,
		Shape:      board.TriangleCamp,
		AIColor:    core.ColorRed,
		AIDepth:    engine.DefaultDepth,
		AIDelay:    time.Second,
		ResetDelay: 10 * time.Second,
		AutoReset:  true,
	}
}

// MoveResult tracks the outcome of a move
type MoveResult struct {
	PlayerColor core.Color
	PieceID     int
	From        core.Position
	To          core.Position
	GameState   core.State
	Computer    bool
	Score       float64
	Depth       int
	Nodes       int
}

type Option func(*Controller)

func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.sched = s
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithObserver registers a callback invoked after every visible state change.
func WithObserver(fn func(*Controller)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// Controller is the turn and win state machine of one game. It holds no locks:
// every call, including scheduled callbacks, must come from one goroutine.
type Controller struct {
	cfg      Config
	board    *board.Board
	engine   *engine.Engine
	sched    Scheduler
	now      func() time.Time
	observer func(*Controller)

	turn       core.Color
	phase      Phase
	state      core.State
	selected   int // piece ID, -1 when none
	moveCount  int
	elapsed    [2]time.Duration
	turnStart  time.Time
	generation int // bumped on reset, stale callbacks compare against it
	lastResult *MoveResult
}

func New(cfg Config, options ...Option) (*Controller, error) {
	if cfg.Shape.Depth == nil {
		cfg.Shape = board.TriangleCamp
	}
	if cfg.AIColor != core.ColorNone && cfg.AIColor != core.ColorGreen && cfg.AIColor != core.ColorRed {
		return nil, fmt.Errorf("%w: ai color %d", ErrInvalidConfig, cfg.AIColor)
	}

	b, err := board.New(cfg.Size, cfg.Shape)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:   cfg,
		board: b,
		engine: engine.New(
			engine.WithDepth(cfg.AIDepth),
			engine.WithTimeLimit(cfg.SearchTimeout),
		),
		sched: inlineScheduler{},
		now:   time.Now,
	}
	for _, option := range options {
		option(c)
	}

	c.start()
	return c, nil
}

// start puts a fresh board's controller into its first turn
func (c *Controller) start() {
	c.turn = core.ColorGreen
	c.phase = PhaseAwaitingSelection
	c.state = core.StateOngoing
	c.selected = -1
	c.moveCount = 0
	c.elapsed = [2]time.Duration{}
	c.turnStart = c.now()
	c.lastResult = nil

	c.beginTurn()
}

// beginTurn hands the turn to the side to move
func (c *Controller) beginTurn() {
	c.settleTurn()
	c.followUp()
}

// settleTurn sets the phase for the side now to move: stalemate, computer
// reply, or waiting for a human selection
func (c *Controller) settleTurn() {
	switch {
	case !c.board.HasMoves(c.turn):
		c.state = core.StateStalemate
		c.phase = PhaseGameOver
		log.Info().Msgf("stalemate: %s has no legal moves after %d moves", c.turn, c.moveCount)
	case c.turn == c.cfg.AIColor:
		c.state = core.StatePending
		c.phase = PhaseTurnComplete
	default:
		c.state = core.StateOngoing
		c.phase = PhaseAwaitingSelection
	}
}

// followUp schedules whatever the settled phase waits on. An inline scheduler
// runs it before followUp returns.
func (c *Controller) followUp() {
	switch c.phase {
	case PhaseGameOver:
		c.scheduleReset()
	case PhaseTurnComplete:
		c.scheduleAI()
	}
}

// Select picks up a piece of the side to move. Selecting the selected piece
// again drops it.
func (c *Controller) Select(p core.Position) error {
	if err := c.checkHumanTurn(); err != nil {
		return err
	}

	piece, ok := c.board.PieceAt(p)
	if !ok || piece.Color != c.turn {
		return fmt.Errorf("%w: %v", ErrNotOwnPiece, p)
	}

	if c.selected == piece.ID {
		c.selected = -1
		c.phase = PhaseAwaitingSelection
	} else {
		c.selected = piece.ID
		c.phase = PhasePieceSelected
	}
	c.notify()
	return nil
}

// Deselect drops the current selection, if any.
func (c *Controller) Deselect() {
	if c.phase == PhasePieceSelected {
		c.selected = -1
		c.phase = PhaseAwaitingSelection
		c.notify()
	}
}

// AttemptMove moves the selected piece to dest. A rejected move leaves the
// game, selection included, unchanged.
func (c *Controller) AttemptMove(dest core.Position) error {
	if err := c.checkHumanTurn(); err != nil {
		return err
	}
	if c.phase != PhasePieceSelected {
		return ErrNoSelection
	}
	if !c.board.IsLegal(c.selected, dest) {
		return fmt.Errorf("%w: %v -> %v", ErrInvalidMove, c.board.Piece(c.selected).Pos, dest)
	}

	c.commit(c.selected, dest, nil)
	return nil
}

// ApplyMove moves the piece on from to dest in one step, without a prior
// selection.
func (c *Controller) ApplyMove(from, dest core.Position) error {
	if err := c.checkHumanTurn(); err != nil {
		return err
	}

	piece, ok := c.board.PieceAt(from)
	if !ok || piece.Color != c.turn {
		return fmt.Errorf("%w: %v", ErrNotOwnPiece, from)
	}
	if !c.board.IsLegal(piece.ID, dest) {
		return fmt.Errorf("%w: %v -> %v", ErrInvalidMove, from, dest)
	}

	c.commit(piece.ID, dest, nil)
	return nil
}

// LegalMoves lists the destinations of the piece on p, whichever side owns it.
func (c *Controller) LegalMoves(p core.Position) ([]core.Position, error) {
	piece, ok := c.board.PieceAt(p)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrEmptyCell, p)
	}
	return c.board.LegalMoves(piece.ID), nil
}

func (c *Controller) checkHumanTurn() error {
	if c.state.IsOver() {
		return ErrGameOver
	}
	if c.turn == c.cfg.AIColor {
		return ErrNotHumanTurn
	}
	return nil
}

// commit applies an already validated move and advances the turn
func (c *Controller) commit(id int, dest core.Position, search *engine.SearchResult) {
	mover := c.turn
	from := c.board.Piece(id).Pos
	c.board.Move(id, dest)

	c.selected = -1
	c.moveCount++

	now := c.now()
	c.elapsed[mover.Index()] += now.Sub(c.turnStart)
	c.turnStart = now

	result := &MoveResult{
		PlayerColor: mover,
		PieceID:     id,
		From:        from,
		To:          dest,
	}
	if search != nil {
		result.Computer = true
		result.Score = search.Score
		result.Depth = search.Depth
		result.Nodes = search.Nodes
	}
	c.lastResult = result

	log.Debug().Msgf("move %d: %s %v -> %v", c.moveCount, mover, from, dest)

	if state := CheckWin(c.board); state.IsOver() {
		c.state = state
		c.phase = PhaseGameOver
		result.GameState = state
		log.Info().Msgf("game over after %d moves: %s", c.moveCount, state)
		c.notify()
		c.scheduleReset()
		return
	}

	// The result records the position right after this move, before a
	// computer reply or reset can replace it
	c.turn = mover.Opponent()
	c.settleTurn()
	result.GameState = c.state
	c.notify()
	c.followUp()
}

// CheckWin reports the outcome of a position. Both sides are checked; filling
// both target camps at once is a tie.
func CheckWin(b *board.Board) core.State {
	green := b.HasWon(core.ColorGreen)
	red := b.HasWon(core.ColorRed)
	switch {
	case green && red:
		return core.StateTie
	case green:
		return core.WinState(core.ColorGreen)
	case red:
		return core.WinState(core.ColorRed)
	default:
		return core.StateOngoing
	}
}

func (c *Controller) scheduleAI() {
	gen := c.generation
	c.sched.ScheduleAfter(c.cfg.AIDelay, func(ctx context.Context) {
		if gen != c.generation {
			return
		}
		if err := c.PlayAI(ctx); err != nil {
			log.Error().Err(err).Msg("computer move failed")
		}
	})
}

func (c *Controller) scheduleReset() {
	if !c.cfg.AutoReset {
		return
	}
	gen := c.generation
	c.sched.ScheduleAfter(c.cfg.ResetDelay, func(context.Context) {
		if gen != c.generation {
			return
		}
		c.Reset()
	})
}

// PlayAI searches and plays the computer's move. It is a no-op unless the
// computer is to move in an ongoing game.
func (c *Controller) PlayAI(ctx context.Context) error {
	if c.state.IsOver() || c.turn != c.cfg.AIColor {
		return nil
	}

	res, err := c.engine.BestMove(ctx, c.board, c.turn)
	if errors.Is(err, engine.ErrNoLegalMoves) {
		c.state = core.StateStalemate
		c.phase = PhaseGameOver
		log.Info().Msgf("stalemate: %s has no legal moves after %d moves", c.turn, c.moveCount)
		c.scheduleReset()
		c.notify()
		return nil
	}
	if err != nil {
		return err
	}

	c.commit(res.PieceID, res.To, &res)
	return nil
}

// Reset discards the board and starts over. Callbacks scheduled before the
// reset are ignored.
func (c *Controller) Reset() {
	b, err := board.New(c.cfg.Size, c.cfg.Shape)
	if err != nil {
		// Size and shape were accepted by New
		panic(fmt.Sprintf("game: reset failed: %v", err))
	}
	c.board = b
	c.generation++
	log.Info().Msgf("new %dx%d game (%s camps)", c.cfg.Size, c.cfg.Size, c.cfg.Shape.Name)

	c.start()
	c.notify()
}

// Close detaches the game: pending callbacks are ignored and observers are
// no longer called.
func (c *Controller) Close() {
	c.generation++
	c.observer = nil
}

func (c *Controller) notify() {
	if c.observer != nil {
		c.observer(c)
	}
}

func (c *Controller) Config() Config {
	return c.cfg
}

// Board exposes the live board for rendering; callers must not mutate it.
func (c *Controller) Board() *board.Board {
	return c.board
}

func (c *Controller) Turn() core.Color {
	return c.turn
}

func (c *Controller) Phase() Phase {
	return c.phase
}

func (c *Controller) State() core.State {
	return c.state
}

func (c *Controller) MoveCount() int {
	return c.moveCount
}

func (c *Controller) LastResult() *MoveResult {
	return c.lastResult
}

// Selected returns the selected piece, if any.
func (c *Controller) Selected() (board.Piece, bool) {
	if c.selected < 0 {
		return board.Piece{}, false
	}
	return c.board.Piece(c.selected), true
}

// PlayerType reports who plays a color.
func (c *Controller) PlayerType(color core.Color) core.PlayerType {
	if color == c.cfg.AIColor {
		return core.PlayerComputer
	}
	return core.PlayerHuman
}

// Elapsed is the cumulative think-time of a color, including the running
// turn. The clock stops when the game ends.
func (c *Controller) Elapsed(color core.Color) time.Duration {
	d := c.elapsed[color.Index()]
	if color == c.turn && !c.state.IsOver() {
		d += c.now().Sub(c.turnStart)
	}
	return d
}
