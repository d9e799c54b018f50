package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/desertthunder/bpmx/internal/formatter"
	"github.com/desertthunder/bpmx/internal/shared"
	"github.com/desertthunder/bpmx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Upgrade requests the pro plan and opens the returned checkout link.
func (r *Runner) Upgrade(ctx context.Context, cmd *cli.Command) error {
	ctl, err := r.Controller(ctx, cmd)
	if err != nil {
		return err
	}

	outcome, err := ctl.RequestUpgrade(ctx)
	if err != nil {
		return err
	}
	if err := tasks.OutcomeError(outcome); err != nil {
		return err
	}

	up := outcome.Upgrade
	if up.AlreadyPro {
		return r.writePlain("✓ You're already on PRO\n")
	}

	r.writePlain("Checkout: %s\n", up.InvoiceURL)
	if cmd.Bool("no-browser") {
		return nil
	}
	if err := r.openBrowser(up.InvoiceURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		return r.writePlain("Open the link above to finish the upgrade.\n")
	}
	return nil
}

// Download saves the WAV of a history entry, or opens its link with --open.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	ctl, err := r.Controller(ctx, cmd)
	if err != nil {
		return err
	}

	index := cmd.IntArg("index")
	entry, ok := ctl.Ledger().Get(index - 1)
	if !ok {
		return fmt.Errorf("%w: no analysis at position %d (have %d)", shared.ErrInvalidArgument, index, ctl.Ledger().Len())
	}
	if entry.DownloadURL == "" {
		return fmt.Errorf("%w: No download link for this item.", shared.ErrNoDownload)
	}

	if cmd.Bool("open") {
		return r.openBrowser(entry.DownloadURL)
	}

	dest := filepath.Join(cmd.String("output"), formatter.ArtifactFilename(entry.DownloadURL, entry.Title))
	r.logger.Info("downloading artifact", "title", entry.Title, "dest", dest)

	n, err := formatter.DownloadArtifact(ctx, r.httpClient, entry.DownloadURL, dest)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Saved %s (%d bytes)\n", dest, n)
}
