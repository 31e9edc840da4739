package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/repositories"
	"github.com/desertthunder/moovie/internal/services"
	"github.com/desertthunder/moovie/internal/shared"
	"github.com/desertthunder/moovie/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	accounts   services.Accounts
	catalog    services.Catalog
	favorites  services.FavoritesAPI
	media      services.StockMedia
	tokens     *services.TokenStore
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	now        func() time.Time
	open       func(url, player string) error

	db     *sql.DB
	movies *repositories.MovieRepository
	faves  *repositories.FavoriteRepository
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Services left nil are built on top of API, which itself is built from Config when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	Accounts   services.Accounts
	Catalog    services.Catalog
	Favorites  services.FavoritesAPI
	Media      services.StockMedia
	Tokens     *services.TokenStore
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.RequestTimeout()}
	}
	if opts.Tokens == nil {
		opts.Tokens = services.NewTokenStore("")
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(
			opts.Config.API.BaseURL,
			services.NewAuthorizedClient(opts.Tokens, opts.HTTPClient),
			services.WithRateLimit(opts.Config.API.RateLimit, opts.Config.API.Burst),
			services.WithLogger(opts.Logger),
		)
	}
	if opts.Accounts == nil {
		opts.Accounts = services.NewAuthService(opts.API)
	}
	if opts.Catalog == nil {
		opts.Catalog = services.NewMovieService(opts.API)
	}
	if opts.Favorites == nil {
		opts.Favorites = services.NewFavoritesService(opts.API)
	}
	if opts.Media == nil {
		opts.Media = services.NewStockMediaService(opts.API, opts.Logger)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		accounts:   opts.Accounts,
		catalog:    opts.Catalog,
		favorites:  opts.Favorites,
		media:      opts.Media,
		tokens:     opts.Tokens,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		now:        time.Now,
		open:       shared.OpenMedia,
	}
}

// SetLogger replaces the logger used by the runner.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the cache database if it was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.movies, r.faves = nil, nil, nil
	return err
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, moviesCommand, favoritesCommand, commentsCommand, playCommand,
		mediaCommand, cacheCommand, exportCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openCache lazily opens the SQLite cache. A cache that cannot be opened is logged and
// skipped; every command still works against the API alone.
func (r *Runner) openCache() bool {
	if r.db != nil {
		return true
	}
	if r.config.Database.Path == "" {
		return false
	}

	db, err := shared.OpenCache(r.config.Database)
	if err != nil {
		r.logger.Warn("cache unavailable", "path", r.config.Database.Path, "error", err)
		return false
	}
	r.db = db
	r.movies = repositories.NewMovieRepository(db)
	r.faves = repositories.NewFavoriteRepository(db)
	return true
}

// session returns the persisted login, or nil when signed out.
func (r *Runner) session() *shared.Session {
	s, err := shared.LoadSession(r.config.Session.SessionPath())
	if err != nil {
		if !errors.Is(err, shared.ErrNoSession) {
			r.logger.Warn("ignoring unreadable session", "error", err)
		}
		return nil
	}
	if r.tokens.Current() == "" {
		r.tokens.Set(s.Token)
	}
	if s.UserID == "" {
		if claims, err := shared.ParseTokenClaims(s.Token); err == nil {
			s.UserID = claims.UserID
		}
	}
	return s
}

// viewer identifies the logged-in user for comment ownership, anonymous when signed out.
func (r *Runner) viewer() models.Viewer {
	s := r.session()
	if s == nil {
		return models.Viewer{}
	}
	return models.Viewer{ID: s.UserID, Name: s.DisplayName}
}

// requireUser returns the session of the logged-in user or [shared.ErrNotAuthenticated].
func (r *Runner) requireUser() (*shared.Session, error) {
	s := r.session()
	if s == nil || s.UserID == "" {
		return nil, fmt.Errorf("%w: run 'moovie auth login' first", shared.ErrNotAuthenticated)
	}
	return s, nil
}

func (r *Runner) favoriteSync(userID string) *tasks.FavoriteSync {
	opts := tasks.FavoriteSyncOpts{
		TTL:       r.config.Cache.TTL(),
		Reconcile: r.config.API.ReconcileFavorites,
		Logger:    r.logger,
	}
	if opts.TTL > 0 && r.openCache() {
		opts.Cache = r.faves
	}
	return tasks.NewFavoriteSync(r.favorites, userID, opts)
}

// engine wires the task layer for the current session.
func (r *Runner) engine() *tasks.Engine {
	opts := tasks.EngineOpts{
		Catalog: r.catalog,
		Media:   r.media,
		API:     r.api,
		BaseURL: r.api.BaseURL(),
		Logger:  r.logger,
		Viewer:  r.viewer(),
	}
	if opts.Viewer.ID != "" {
		opts.Favorites = r.favoriteSync(opts.Viewer.ID)
	}
	if r.openCache() {
		opts.Movies = r.movies
	}
	return tasks.NewEngine(opts)
}

// printProgress drains progress updates onto the output until the channel is closed.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			if u.Total > 1 {
				r.writePlain("[%d/%d] %s\n", u.Step, u.Total, u.Message)
			} else {
				r.writePlain("%s\n", u.Message)
			}
		}
	}()
	return done
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

// saveJSON writes data as indented JSON to path.
func (r *Runner) saveJSON(path string, data any) error {
	out, err := shared.MarshalJSON(data, true)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to save output: %w", err)
	}
	r.logger.Info("output saved", "file", path)
	return nil
}
