package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/bpmx/internal/formatter"
	"github.com/desertthunder/bpmx/internal/models"
	"github.com/desertthunder/bpmx/internal/shared"
	"github.com/desertthunder/bpmx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// AnalyzeURL submits a media URL for analysis.
func (r *Runner) AnalyzeURL(ctx context.Context, cmd *cli.Command) error {
	url := strings.TrimSpace(cmd.StringArg("url"))
	if url == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	ctl, err := r.Controller(ctx, cmd)
	if err != nil {
		return err
	}

	r.logger.Info("analyzing url", "url", url)
	outcome, err := ctl.AnalyzeURL(ctx, url)
	return r.writeOutcome(ctl, cmd, outcome, err)
}

// AnalyzeFile uploads a local audio file for analysis.
func (r *Runner) AnalyzeFile(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	defer f.Close()

	ctl, err := r.Controller(ctx, cmd)
	if err != nil {
		return err
	}

	r.logger.Info("uploading file", "path", path)
	outcome, err := ctl.AnalyzeUpload(ctx, models.Upload{Name: filepath.Base(path), Content: f})
	return r.writeOutcome(ctl, cmd, outcome, err)
}

// analysisOutput is the --json shape of a completed analysis.
type analysisOutput struct {
	Title string `json:"title"`
	models.AnalysisResult
}

// writeOutcome prints a successful analysis or converts the failure into an error.
func (r *Runner) writeOutcome(ctl *tasks.Controller, cmd *cli.Command, outcome models.Outcome, err error) error {
	if err != nil {
		return err
	}
	if err := tasks.OutcomeError(outcome); err != nil {
		return err
	}

	title := ctl.Snapshot().ResultTitle
	if cmd.Bool("json") {
		return r.writeJSON(analysisOutput{Title: title, AnalysisResult: *outcome.Result}, cmd.Bool("pretty"))
	}
	return r.writePlain("%s\n", formatter.FormatResult(title, *outcome.Result))
}

// AnalyzeBatch analyzes URLs from arguments, a file or stdin, throttled by the configured rate.
func (r *Runner) AnalyzeBatch(ctx context.Context, cmd *cli.Command) error {
	urls := cmd.Args().Slice()
	if path := cmd.String("file"); path != "" {
		lines, err := readLines(path)
		if err != nil {
			return err
		}
		urls = append(urls, lines...)
	}

	ctl, err := r.Controller(ctx, cmd)
	if err != nil {
		return err
	}

	rate := cmd.Float("rate")
	if rate <= 0 {
		rate = r.config.Batch.RateLimit
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if update.Phase == tasks.BatchStopped {
				r.writePlainln("%s", update.Message)
				continue
			}
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := ctl.AnalyzeBatch(ctx, urls, tasks.BatchOpts{RateLimit: rate}, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Batch Complete")
	r.writePlain("Succeeded: %d/%d\n", result.Succeeded, result.Total)
	if result.Failed > 0 {
		r.writePlain("Failed: %d\n", result.Failed)
	}

	if result.Stopped != nil {
		return result.Stopped
	}
	return nil
}

// readLines reads path line by line; "-" reads stdin.
func readLines(path string) ([]string, error) {
	var in io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		defer f.Close()
		in = f
	}

	var lines []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}
