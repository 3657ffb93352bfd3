// Package main runs the Halma HTTP API: games are created, played and
// long-polled over JSON while the computer replies on the server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"halma/internal/config"
	"halma/internal/logging"
	"halma/internal/processor"
	"halma/internal/service"
	"halma/internal/transport/http"

	"github.com/rs/zerolog/log"
)

const (
	gracefulShutdownTimeout = time.Second * 5
)

func main() {
	cfg := config.DefaultServer()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	if err := logging.Setup(cfg.Game.LogLevel, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Manage PID file if requested
	if cfg.PIDFile != "" {
		cleanup, err := managePIDFile(cfg.PIDFile, cfg.PIDLock)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to manage PID file")
		}
		defer cleanup()
		log.Info().Msgf("PID file created at: %s (lock: %v)", cfg.PIDFile, cfg.PIDLock)
	}

	defaults, err := cfg.Game.GameConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid game configuration")
	}

	// 1. Service owns the games and the long-poll registry
	svc := service.New(service.WithMaxGames(cfg.MaxGames))

	// 2. Processor runs every game operation on one loop
	proc := processor.New(svc, defaults)

	// 3. Fiber app
	app := http.NewFiberApp(proc, cfg.Dev)
	addr := cfg.Addr()

	go func() {
		log.Info().Msg("Halma API server starting...")
		log.Info().Msgf("API Listening on: http://%s", addr)
		if cfg.Dev {
			log.Info().Msg("Rate Limit: 20 requests/second per IP (DEV MODE)")
		} else {
			log.Info().Msg("Rate Limit: 10 requests/second per IP")
		}
		log.Info().Msgf("Defaults: %dx%d %s camps, computer %s, depth %d",
			defaults.Size, defaults.Size, defaults.Shape.Name, defaults.AIColor, defaults.AIDepth)
		log.Info().Msgf("API Endpoints: http://%s/api/v1/games", addr)
		log.Info().Msgf("Health: http://%s/health", addr)

		if err := app.Listen(addr); err != nil {
			log.Error().Err(err).Msg("API server listen error")
		}
	}()

	// Wait for an interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	// Wake long-polls first so the HTTP server can drain
	if err = svc.Shutdown(gracefulShutdownTimeout); err != nil {
		log.Warn().Err(err).Msg("service shutdown error")
	}

	if err = app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server forced to shutdown")
	}

	if err = proc.Close(); err != nil {
		log.Warn().Err(err).Msg("processor close error")
	}

	log.Info().Msg("Server exited")
}
