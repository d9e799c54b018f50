// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// rootFlags are inherited by every subcommand.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:  "ephemeral",
			Usage: "Keep the session in memory only and skip the history cache",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

// setupCommand handles setup operations for the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create config.toml if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles account operations
func authCommand(r *Runner) *cli.Command {
	credentialFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "Account email",
				Sources: cli.EnvVars("BPMX_EMAIL"),
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password",
				Sources: cli.EnvVars("BPMX_PASSWORD"),
			},
		}
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the analysis service account",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Log in and store the session",
				Flags:  credentialFlags(),
				Action: r.AuthLogin,
			},
			{
				Name:   "register",
				Usage:  "Create an account and store the session",
				Flags:  credentialFlags(),
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the current account",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// analyzeCommand handles tempo and key analysis
func analyzeCommand(r *Runner) *cli.Command {
	outputFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		}
	}

	return &cli.Command{
		Name:    "analyze",
		Aliases: []string{"a"},
		Usage:   "Analyze tempo and key of a track",
		Commands: []*cli.Command{
			{
				Name:  "url",
				Usage: "Analyze a YouTube (or other media) URL",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url"},
				},
				Flags:  outputFlags(),
				Action: r.AnalyzeURL,
			},
			{
				Name:  "file",
				Usage: "Upload and analyze a local audio file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags:  outputFlags(),
				Action: r.AnalyzeFile,
			},
			{
				Name:      "batch",
				Usage:     "Analyze many URLs, one per line",
				ArgsUsage: "[url...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "File with one URL per line (- for stdin)",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Analyses started per second (default from config)",
					},
				},
				Action: r.AnalyzeBatch,
			},
		},
	}
}

// upgradeCommand requests the pro plan
func upgradeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "upgrade",
		Usage: "Upgrade to the pro plan",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the checkout link instead of opening it",
			},
		},
		Action: r.Upgrade,
	}
}

// historyCommand handles recent analyses
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Recent analyses",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent analyses, newest first",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "export",
				Usage: "Export recent analyses",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: csv, markdown, txt or json",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: stdout)",
					},
				},
				Action: r.HistoryExport,
			},
			{
				Name:   "clear",
				Usage:  "Forget all recent analyses",
				Action: r.HistoryClear,
			},
		},
	}
}

// downloadCommand saves a rendered artifact
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download the WAV of a recent analysis (1 = newest)",
		Arguments: []cli.Argument{
			&cli.IntArg{Name: "index", Value: 1},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Destination directory",
				Value:   ".",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the link in the browser instead of saving it",
			},
		},
		Action: r.Download,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive analyzer",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "download-dir",
				Usage: "Directory for downloaded WAV files",
				Value: ".",
			},
		},
		Action: r.TUI,
	}
}
