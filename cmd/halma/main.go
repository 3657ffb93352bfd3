// Package main is the interactive terminal Halma game.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"halma/internal/cli"
	"halma/internal/config"
	"halma/internal/core"
	"halma/internal/logging"
	"halma/internal/processor"
	"halma/internal/service"
	clitransport "halma/internal/transport/cli"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

func main() {
	cfg := config.Default()
	cfg.LogLevel = "warn"
	cfg.RegisterFlags(flag.CommandLine)
	history := flag.String("history", filepath.Join(os.TempDir(), ".halma_history"), "REPL history file")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}
	if err := logging.Setup(cfg.LogLevel, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}

	defaults, err := cfg.GameConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "halma> ",
		HistoryFile:     *history,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	svc := service.New()
	proc := processor.New(svc, defaults)
	defer proc.Close()

	// readline wraps stdout, so the view cannot see the terminal itself
	view := cli.New(rl.Stdout())
	if term.IsTerminal(int(os.Stdout.Fd())) {
		view.SetTheme(cli.ThemeBrown)
	}
	handler := clitransport.New(proc, view, core.CreateGameRequest{BoardSize: cfg.BoardSize})

	view.ShowWelcome()
	handler.Run(rl)
}
