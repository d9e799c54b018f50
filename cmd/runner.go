package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bpmx/internal/history"
	"github.com/desertthunder/bpmx/internal/repositories"
	"github.com/desertthunder/bpmx/internal/services"
	"github.com/desertthunder/bpmx/internal/session"
	"github.com/desertthunder/bpmx/internal/shared"
	"github.com/desertthunder/bpmx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The session, dispatcher and controller are wired on first use so that commands like
// `setup database` never touch the credential store.
type Runner struct {
	config      *shared.Config
	configPath  string
	logger      *log.Logger
	output      io.Writer
	httpClient  *http.Client
	openBrowser func(string) error

	store      repositories.CredentialStore
	cache      history.Cache
	db         *sql.DB
	session    *session.Manager
	client     *services.AnalysisClient
	controller *tasks.Controller
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Logger      *log.Logger
	Output      io.Writer
	HTTPClient  *http.Client
	OpenBrowser func(string) error
	Store       repositories.CredentialStore // replaces the SQLite credential store when set
	Cache       history.Cache                // only used together with Store
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		logger:      opts.Logger,
		output:      opts.Output,
		httpClient:  opts.HTTPClient,
		openBrowser: opts.OpenBrowser,
		store:       opts.Store,
		cache:       opts.Cache,
	}
}

// SetLogger swaps the logger used by every component wired after the call.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Before resolves the configuration named by --config and applies its log level.
// A config passed through [RunnerOpts] wins over the flag.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config == nil {
		if path := cmd.String("config"); path != "" {
			r.configPath = path
		}

		config, err := shared.ResolveConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	if err := r.config.Validate(); err != nil {
		return ctx, err
	}

	shared.ConfigureLogger(r.logger, r.config.Log)
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, nil
}

// After releases the database handle, if one was opened.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close closes the database handle.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// Controller wires the session, dispatcher and history ledger on first use.
//
// With --ephemeral the session lives in memory and history is not cached.
func (r *Runner) Controller(ctx context.Context, cmd *cli.Command) (*tasks.Controller, error) {
	if r.controller != nil {
		return r.controller, nil
	}
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}

	store, cache := r.store, r.cache
	if store == nil {
		if cmd.Bool("ephemeral") {
			store = repositories.NewMemoryCredentialStore()
		} else {
			db, err := shared.OpenDatabase(r.config.Database)
			if err != nil {
				return nil, fmt.Errorf("failed to open database: %w", err)
			}
			r.db = db
			store = repositories.NewCredentialRepository(db)
			cache = repositories.NewHistoryRepository(db)
		}
	}

	httpClient := r.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: r.config.API.Timeout()}
	}

	r.session = session.NewManager(store, shared.WithLogger(r.logger, "component", "session"))
	if s := r.session.Restore(ctx); s != nil {
		r.logger.Debug("restored session", "account", s.Label())
	}

	r.client = services.NewAnalysisClient(r.config.API.BaseURL, httpClient, shared.WithLogger(r.logger, "component", "dispatcher"))

	ledger := history.New(r.config.History.Limit, cache, shared.WithLogger(r.logger, "component", "history"))
	if err := ledger.Load(ctx); err != nil {
		r.logger.Warn("failed to load history cache", "error", err)
	}

	r.controller = tasks.NewController(tasks.ControllerOpts{
		Session:       r.session,
		Dispatcher:    r.client,
		Authenticator: r.client,
		History:       ledger,
		Logger:        shared.WithLogger(r.logger, "component", "controller"),
	})
	return r.controller, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, analyzeCommand, upgradeCommand, historyCommand, downloadCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
