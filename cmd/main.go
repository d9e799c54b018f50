package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/desertthunder/bpmx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runner.app().Run(ctx, os.Args); err != nil {
		stop()
		if errors.Is(err, context.Canceled) {
			logger.Warn("interrupted")
			os.Exit(130)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "bpmx",
		Usage:    "Detect tempo and key of tracks with a remote analysis service",
		Version:  "0.1.0",
		Flags:    rootFlags(),
		Before:   r.Before,
		After:    r.After,
		Writer:   r.output,
		Commands: r.register(),
	}
}
