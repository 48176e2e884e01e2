package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"docq/internal/repositories"
	"docq/internal/services"
	"docq/internal/session"
	"docq/internal/shared"
	"docq/internal/tasks"
	"docq/internal/ui"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	svc        services.Service
	store      *session.TokenStore
	router     *ui.ChannelRouter
	controller *session.Controller
	pipeline   *tasks.UploadPipeline
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    services.Service
	Store      *session.TokenStore
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Service == nil {
		opts.Service = services.NewBackendService(opts.Config.Backend.BaseURL, nil)
	}
	if opts.Store == nil {
		opts.Store = session.NewTokenStore(opts.Config.Auth.TokenPath)
	}

	router := ui.NewChannelRouter(session.PathLanding)
	controller := session.NewController(opts.Service, opts.Store, router, opts.Logger)
	pipeline := tasks.NewUploadPipeline(opts.Service, opts.Logger)

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		svc:        opts.Service,
		store:      opts.Store,
		router:     router,
		controller: controller,
		pipeline:   pipeline,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the runner's logger and rebinds dependent components.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.controller = session.NewController(r.svc, r.store, r.router, logger)
	r.pipeline = tasks.NewUploadPipeline(r.svc, logger)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, uploadCommand, chatCommand, historyCommand, statsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// ensureSession restores the stored session and fails when no valid token is
// available, so protected commands never hit the backend unauthenticated.
func (r *Runner) ensureSession(ctx context.Context) error {
	if err := r.controller.Initialize(ctx); err != nil {
		return err
	}
	if r.controller.State() != session.StateAuthenticated {
		return fmt.Errorf("%w: run 'docq auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

// openRepo opens the local history cache, running migrations as needed. The
// returned closer must be called when the command finishes.
func (r *Runner) openRepo() (*repositories.SessionRepository, func(), error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}
	return repositories.NewSessionRepository(db), func() { db.Close() }, nil
}

func (r *Runner) batchOpts() tasks.BatchOpts {
	return tasks.BatchOpts{
		NumWorkers:   r.config.Upload.NumWorkers,
		RateLimit:    r.config.Upload.RateLimit,
		MaxSizeBytes: r.config.Upload.MaxSizeBytes,
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
