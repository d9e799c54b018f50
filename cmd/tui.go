package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/bpmx/internal/formatter"
	"github.com/desertthunder/bpmx/internal/shared"
	"github.com/desertthunder/bpmx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive analyzer.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	logPath := filepath.Join("tmp", "bpmx-tui.log")
	if r.config != nil && r.config.Log.File != "" {
		logPath = r.config.Log.File
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	if r.config != nil {
		shared.ConfigureLogger(fileLogger, r.config.Log)
	}
	r.SetLogger(fileLogger)

	ctl, err := r.Controller(ctx, cmd)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Options{
		Controller:  ctl,
		DownloadDir: cmd.String("download-dir"),
		OpenBrowser: r.openBrowser,
		Download: func(ctx context.Context, url, dest string) (int64, error) {
			return formatter.DownloadArtifact(ctx, r.httpClient, url, dest)
		},
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
