package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"ctchen222/BigTicTacToe/internal/cli"
	"ctchen222/BigTicTacToe/internal/logger"

	"github.com/muesli/termenv"
)

func main() {
	size := flag.Int("size", 0, "board size n (asked interactively when 0)")
	seed := flag.Uint64("seed", 0, "seed for the engine and autopilot (0 = random)")
	autopilot := flag.Bool("autopilot", false, "play random moves for the human")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Keep engine debug logs off the board.
	slog.SetDefault(logger.New(os.Stderr, slog.LevelWarn, false))

	out := termenv.NewOutput(os.Stdout)
	_, err := cli.Play(ctx, cli.Options{
		Size:      *size,
		Seed:      *seed,
		Autopilot: *autopilot,
		In:        os.Stdin,
		Out:       out,
	})
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr)
		os.Exit(130)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
