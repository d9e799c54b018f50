package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/bpmx/internal/formatter"
	"github.com/urfave/cli/v3"
)

// HistoryList prints recent analyses, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	ctl, err := r.Controller(ctx, cmd)
	if err != nil {
		return err
	}

	entries := ctl.Ledger().Entries()
	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		return r.writePlain("No analyses yet.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Recent analyses (%d)", len(entries)))
	i := 0
	for entry := range ctl.History() {
		i++
		link := ""
		if entry.DownloadURL != "" {
			link = " [wav]"
		}
		r.writePlain("%2d. %s%s\n    %s · %s\n", i, entry.Title, link,
			entry.Result().Summary(), entry.CompletedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// HistoryExport writes recent analyses in the requested format to a file or stdout.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	ctl, err := r.Controller(ctx, cmd)
	if err != nil {
		return err
	}

	entries := ctl.Ledger().Entries()
	format := cmd.String("format")

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(entries, format, path); err != nil {
			return err
		}
		r.logger.Info("history exported", "format", format, "path", path, "entries", len(entries))
		return r.writePlain("✓ Exported %d analyses to %s\n", len(entries), path)
	}

	data, err := formatter.Export(entries, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// HistoryClear forgets all recent analyses.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	ctl, err := r.Controller(ctx, cmd)
	if err != nil {
		return err
	}

	n := ctl.Ledger().Len()
	ctl.Ledger().Clear(ctx)
	return r.writePlain("✓ Cleared %d analyses\n", n)
}
