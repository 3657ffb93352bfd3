// Package main is the full-screen Halma game, played with the mouse.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"halma/internal/config"
	"halma/internal/core"
	"halma/internal/logging"
	"halma/internal/processor"
	"halma/internal/service"
	"halma/internal/tui"

	"github.com/rivo/tview"
)

func main() {
	cfg := config.Default()
	cfg.RegisterFlags(flag.CommandLine)
	logFile := flag.String("log-file", "", "Write logs to this file (the screen is taken)")
	flag.Parse()

	if err := run(cfg, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "halma-tui: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logFile string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Never log to the terminal under tview
	var w io.Writer
	if logFile == "" {
		cfg.LogLevel = "disabled"
	} else {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("cannot open log file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := logging.Setup(cfg.LogLevel, w); err != nil {
		return err
	}

	defaults, err := cfg.GameConfig()
	if err != nil {
		return err
	}

	svc := service.New()
	proc := processor.New(svc, defaults)
	defer proc.Close()

	resp := proc.Execute(processor.NewCreateGameCommand(core.CreateGameRequest{BoardSize: cfg.BoardSize}))
	if !resp.Success {
		return fmt.Errorf("%s: %s", resp.Error.Error, resp.Error.Details)
	}

	app := tview.NewApplication().EnableMouse(true)
	board := tui.NewBoardUI(app, proc, resp.Data.(core.GameResponse))
	app.SetInputCapture(board.Keys)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go board.Poll(ctx)

	return app.SetRoot(board.Layout(), true).Run()
}
