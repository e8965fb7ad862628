package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/bbruceyuan/vmarker/internal/auth"
	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/bbruceyuan/vmarker/internal/repositories"
	"github.com/bbruceyuan/vmarker/internal/services"
	"github.com/bbruceyuan/vmarker/internal/shared"
	"github.com/bbruceyuan/vmarker/internal/storage"
	"github.com/bbruceyuan/vmarker/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	backend    *services.Backend
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	// set up by bootstrap
	db      *sql.DB
	auth    *auth.Store
	archive *storage.Archive
	engine  *tasks.VideoEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	Backend    *services.Backend
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	// Archive and Engine override what bootstrap would build.
	Archive *storage.Archive
	Engine  *tasks.VideoEngine
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(opts.Config.API.BaseURL, opts.HTTPClient).WithLogger(opts.Logger)
	}
	if opts.Backend == nil {
		opts.Backend = services.NewBackend(opts.API)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		backend:    opts.Backend,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		archive:    opts.Archive,
		engine:     opts.Engine,
	}
}

// SetLogger replaces the logger used by the runner and the API client.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.api.WithLogger(l)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, chapterBarCommand, progressBarCommand, showNotesCommand,
		subtitleCommand, videoCommand, youtubeCommand, historyCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// bootstrap opens the database and wires persistence, auth and the video engine.
//
// Nothing here is fatal: a missing database disables history and falls back to
// in-memory auth sessions.
func (r *Runner) bootstrap(ctx context.Context) {
	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			r.logger.Warn("database unavailable, history disabled", "path", r.config.Database.Path, "error", err)
		} else {
			r.db = db
		}
	}

	if r.archive == nil {
		sink, err := storage.New(ctx, r.config.Storage)
		if err != nil {
			r.logger.Warn("storage unavailable, using local output dir", "error", err)
			sink = storage.NewLocalSink(r.config.Storage.OutputDir)
		}
		var recorder storage.Recorder
		if r.db != nil {
			recorder = repositories.NewArtifactRepository(r.db)
		}
		r.archive = storage.NewArchive(sink, recorder)
	}

	if r.engine == nil {
		r.engine = tasks.NewVideoEngine(r.backend).WithLogger(r.logger)
		if r.db != nil {
			r.engine.WithSessions(repositories.NewVideoSessionRepository(r.db))
		}
		if r.config.Video.Probe {
			r.engine.WithProber(tasks.FFProbe{})
		}
	}

	if r.auth == nil && r.config.Auth.Enabled() {
		var sessions auth.SessionStore = auth.NewMemoryStore()
		if r.db != nil {
			sessions = repositories.NewAuthSessionRepository(r.db)
		}
		provider, err := auth.NewGoTrueProvider(r.config.Auth.SupabaseURL, r.config.Auth.AnonKey, sessions, r.httpClient)
		if err != nil {
			r.logger.Warn("auth disabled", "error", err)
			return
		}
		r.auth = auth.NewStore(provider.WithLogger(r.logger), r.logger).
			WithRedirectURL(r.config.Server.BaseURL() + "/auth/callback")
		if err := r.auth.Start(ctx); err != nil {
			r.logger.Debug("no usable session", "error", err)
		}
		r.api.WithTokenSource(r.auth)
	}
}

// shutdown releases what bootstrap opened.
func (r *Runner) shutdown() {
	if r.auth != nil {
		r.auth.Close()
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			r.logger.Warn("failed to close database", "error", err)
		}
		r.db = nil
	}
}

// save writes out to path when given, or stores it in the archive.
func (r *Runner) save(ctx context.Context, source string, out models.Output, path string) error {
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		if err := os.WriteFile(path, out.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		r.logger.Info("output written", "path", path, "bytes", len(out.Data))
		return r.writePlain("✓ Saved %s\n", path)
	}

	if r.archive == nil {
		return fmt.Errorf("%w: no output path and no storage configured", shared.ErrMissingConfig)
	}
	artifact, err := r.archive.StoreOutput(ctx, source, out)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Saved %s (%s)\n", artifact.Location(), artifact.Backend())
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
