package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"halma/internal/game"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
)

const DefaultMaxGames = 64

var (
	ErrGameNotFound = errors.New("game not found")
	ErrTooManyGames = errors.New("too many active games")
)

// Service keeps the in-memory registry of live games. Controllers returned by
// the service must only be driven from the processor loop.
type Service struct {
	games    map[string]*game.Controller
	mu       sync.RWMutex
	maxGames int
	waiter   *WaitRegistry
}

type Option func(*Service)

func WithMaxGames(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxGames = n
		}
	}
}

func WithWaitTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.waiter = NewWaitRegistry(d)
	}
}

func New(options ...Option) *Service {
	s := &Service{
		games:    make(map[string]*game.Controller),
		maxGames: DefaultMaxGames,
		waiter:   NewWaitRegistry(WaitTimeout),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// GenerateGameID creates a new unique game ID
func (s *Service) GenerateGameID() string {
	return uuid.New().String()
}

// CreateGame builds a controller scheduled on sched and registers it. Waiters
// of the game are woken on every state change.
func (s *Service) CreateGame(cfg game.Config, sched game.Scheduler) (string, *game.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.games) >= s.maxGames {
		return "", nil, fmt.Errorf("%w: limit %d", ErrTooManyGames, s.maxGames)
	}

	gameID := s.GenerateGameID()
	ctrl, err := game.New(cfg,
		game.WithScheduler(sched),
		game.WithObserver(func(c *game.Controller) {
			s.waiter.NotifyGame(gameID, c.MoveCount())
		}),
	)
	if err != nil {
		return "", nil, err
	}

	s.games[gameID] = ctrl
	log.Info().Msgf("created game %s (%dx%d, ai %s)", gameID, cfg.Size, cfg.Size, cfg.AIColor)
	return gameID, ctrl, nil
}

func (s *Service) GetGame(gameID string) (*game.Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctrl, ok := s.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return ctrl, nil
}

// DeleteGame removes a game and releases its waiters. Callbacks the game
// scheduled earlier become no-ops.
func (s *Service) DeleteGame(gameID string) error {
	s.mu.Lock()
	ctrl, ok := s.games[gameID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	delete(s.games, gameID)
	s.mu.Unlock()

	ctrl.Close()
	s.waiter.RemoveGame(gameID)
	log.Info().Msgf("deleted game %s", gameID)
	return nil
}

func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// RegisterWait registers a client to wait for game state changes
func (s *Service) RegisterWait(ctx context.Context, gameID string, moveCount int) <-chan struct{} {
	return s.waiter.RegisterWait(ctx, gameID, moveCount)
}

// Shutdown releases waiters and drops every game
func (s *Service) Shutdown(timeout time.Duration) error {
	var result *multierror.Error

	if err := s.waiter.Shutdown(timeout); err != nil {
		result = multierror.Append(result, fmt.Errorf("wait registry: %w", err))
	}

	s.mu.Lock()
	for _, ctrl := range s.games {
		ctrl.Close()
	}
	s.games = make(map[string]*game.Controller)
	s.mu.Unlock()

	return result.ErrorOrNil()
}
