package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tandem/internal/repositories"
	"github.com/desertthunder/tandem/internal/shared"
	"github.com/desertthunder/tandem/internal/spotify"
	"github.com/desertthunder/tandem/internal/station"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, stationCommand, serveCommand, watchCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// deps bundles the database-backed collaborators a command needs.
type deps struct {
	db          *sql.DB
	stations    *repositories.StationRepository
	players     *repositories.PlayerRepository
	tokens      *repositories.TokenRepository
	client      *spotify.Client
	auth        *spotify.Authenticator
	tokenSvc    *spotify.TokenService
	coordinator *station.Coordinator
}

func (d *deps) Close() error {
	return d.db.Close()
}

// connect opens the database and wires the synchronization engine from the
// loaded configuration.
func (r *Runner) connect() (*deps, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	auth, err := spotify.NewAuthenticator(
		r.config.Credentials.Spotify.ClientID,
		r.config.Credentials.Spotify.ClientSecret,
		r.config.Credentials.Spotify.RedirectURI,
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	stations := repositories.NewStationRepository(db)
	players := repositories.NewPlayerRepository(db)
	tokens := repositories.NewTokenRepository(db)

	client := spotify.NewClient(spotify.ClientOpts{
		HTTPClient:      r.httpClient,
		RateLimitPerSec: r.config.Sync.RateLimitPerSec,
		Logger:          r.logger,
	})
	tokenSvc := spotify.NewTokenService(auth, tokens, r.logger)

	prober := station.NewProber(station.ProberOpts{
		Tokens:   tokenSvc,
		Player:   client,
		Logger:   r.logger,
		Attempts: r.config.Sync.ProbeAttempts,
		Delay:    r.config.Sync.ProbeDelay(),
	})
	devices := station.NewDeviceController(tokenSvc, client, r.logger)

	coordinator := station.NewCoordinator(station.CoordinatorOpts{
		Stations: stations,
		Players:  players,
		Prober:   prober,
		Devices:  devices,
		Logger:   r.logger,
		MaxError: r.config.Sync.MaxError(),
		LeaseTTL: r.config.Sync.LeaseTTL(),
	})

	return &deps{
		db:          db,
		stations:    stations,
		players:     players,
		tokens:      tokens,
		client:      client,
		auth:        auth,
		tokenSvc:    tokenSvc,
		coordinator: coordinator,
	}, nil
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

// writeResult prints a workflow outcome for terminal consumption.
func (r *Runner) writeResult(res *station.Result) error {
	marker := "✗"
	if res.Success {
		marker = "✓"
	}
	if err := r.writePlain("%s %s\n", marker, res.Message); err != nil {
		return err
	}
	if res.Code != "" {
		return r.writePlain("  reason: %s\n", res.Code)
	}
	return nil
}
