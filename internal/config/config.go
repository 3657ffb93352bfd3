// Package config holds the command-line configuration shared by the binaries.
package config

import (
	"flag"
	"fmt"
	"net"
	"strconv"
	"time"

	"halma/internal/board"
	"halma/internal/core"
	"halma/internal/engine"
	"halma/internal/game"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

var validate = validator.New()

// Config carries the game settings every front-end accepts
type Config struct {
	BoardSize     int           `validate:"min=2,max=32"`
	Camp          string        `validate:"oneof=triangle corner"`
	AIColor       string        `validate:"oneof=green red none"`
	AIDepth       int           `validate:"min=1,max=8"`
	AIDelay       time.Duration `validate:"gte=0"`
	ResetDelay    time.Duration `validate:"gte=0"`
	AutoReset     bool
	SearchTimeout time.Duration `validate:"gte=0"`
	LogLevel      string        `validate:"oneof=debug info warn error disabled"`
}

// Server adds the HTTP listener settings
type Server struct {
	Game     Config
	Host     string `validate:"required"`
	Port     int    `validate:"min=1,max=65535"`
	Dev      bool
	MaxGames int `validate:"min=1"`
	PIDFile  string
	PIDLock  bool
}

func Default() Config {
	d := game.DefaultConfig()
	return Config{
		BoardSize:     d.Size,
		Camp:          d.Shape.Name,
		AIColor:       d.AIColor.String(),
		AIDepth:       d.AIDepth,
		AIDelay:       d.AIDelay,
		ResetDelay:    d.ResetDelay,
		AutoReset:     d.AutoReset,
		SearchTimeout: d.SearchTimeout,
		LogLevel:      "info",
	}
}

func DefaultServer() Server {
	return Server{
		Game:     Default(),
		Host:     "localhost",
		Port:     8080,
		MaxGames: 64,
	}
}

// RegisterFlags binds the game settings to fs, using the current values as defaults
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.BoardSize, "size", c.BoardSize, "Board size (cells per side)")
	fs.StringVar(&c.Camp, "camp", c.Camp, "Camp shape: triangle or corner")
	fs.StringVar(&c.AIColor, "ai", c.AIColor, "Computer color: green, red or none")
	fs.IntVar(&c.AIDepth, "depth", c.AIDepth, "Search depth in plies")
	fs.DurationVar(&c.AIDelay, "ai-delay", c.AIDelay, "Pause before the computer moves")
	fs.DurationVar(&c.ResetDelay, "reset-delay", c.ResetDelay, "Pause before a finished game restarts")
	fs.BoolVar(&c.AutoReset, "auto-reset", c.AutoReset, "Restart finished games automatically")
	fs.DurationVar(&c.SearchTimeout, "search-timeout", c.SearchTimeout, "Search time limit, 0 caps only large searches")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error, disabled")
}

func (s *Server) RegisterFlags(fs *flag.FlagSet) {
	s.Game.RegisterFlags(fs)
	fs.StringVar(&s.Host, "host", s.Host, "Listen host")
	fs.IntVar(&s.Port, "port", s.Port, "Listen port")
	fs.BoolVar(&s.Dev, "dev", s.Dev, "Development mode (relaxed rate limit)")
	fs.IntVar(&s.MaxGames, "max-games", s.MaxGames, "Maximum concurrent games")
	fs.StringVar(&s.PIDFile, "pid", s.PIDFile, "Optional path to write PID file")
	fs.BoolVar(&s.PIDLock, "pid-lock", s.PIDLock, "Lock PID file to allow only one instance (requires -pid)")
}

// Validate reports every invalid field at once
func (c Config) Validate() error {
	return collect(validate.Struct(c))
}

func (s Server) Validate() error {
	var result *multierror.Error
	if err := collect(validate.Struct(s)); err != nil {
		result = multierror.Append(result, err)
	}
	if s.PIDLock && s.PIDFile == "" {
		result = multierror.Append(result, fmt.Errorf("-pid-lock requires -pid"))
	}
	return result.ErrorOrNil()
}

// Addr is the listen address
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// GameConfig converts the flag values into controller settings
func (c Config) GameConfig() (game.Config, error) {
	shape, err := board.ShapeByName(c.Camp)
	if err != nil {
		return game.Config{}, err
	}
	color, err := core.ParseColor(c.AIColor)
	if err != nil {
		return game.Config{}, err
	}

	return game.Config{
		Size:          c.BoardSize,
		Shape:         shape,
		AIColor:       color,
		AIDepth:       min(c.AIDepth, engine.MaxDepth),
		AIDelay:       c.AIDelay,
		ResetDelay:    c.ResetDelay,
		AutoReset:     c.AutoReset,
		SearchTimeout: c.SearchTimeout,
	}, nil
}

func collect(err error) error {
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var result *multierror.Error
	for _, fe := range errs {
		result = multierror.Append(result, fmt.Errorf("%s: invalid value %v (%s=%s)", fe.Namespace(), fe.Value(), fe.Tag(), fe.Param()))
	}
	return result.ErrorOrNil()
}
