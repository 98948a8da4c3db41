package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/jukebot/jukebot/internal/catalog"
	"github.com/jukebot/jukebot/internal/jukebox"
	"github.com/jukebot/jukebot/internal/models"
	"github.com/jukebot/jukebot/internal/ranking"
	"github.com/jukebot/jukebot/internal/repositories"
	"github.com/jukebot/jukebot/internal/shared"
)

// VolumeController is implemented by players that expose volume control.
type VolumeController interface {
	GetVolume(ctx context.Context) (int, error)
	SetVolume(ctx context.Context, percent int) error
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config       *shared.Config
	catalog      catalog.Catalog
	player       jukebox.Player
	orchestrator *jukebox.Orchestrator
	blacklist    *repositories.BlacklistRepository
	logger       *log.Logger
	output       io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config       *shared.Config
	Catalog      catalog.Catalog
	Player       jukebox.Player
	Orchestrator *jukebox.Orchestrator
	Blacklist    *repositories.BlacklistRepository
	Logger       *log.Logger
	Output       io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) (*Runner, error) {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config:       opts.Config,
		catalog:      opts.Catalog,
		player:       opts.Player,
		orchestrator: opts.Orchestrator,
		blacklist:    opts.Blacklist,
		logger:       opts.Logger,
		output:       opts.Output,
	}

	if r.orchestrator == nil && r.player != nil {
		orch, err := jukebox.New(jukebox.Opts{
			Player:       r.player,
			Blacklist:    r.predicate(),
			NotifyAdmin:  func(msg string) { r.logger.Error("admin notice", "message", msg) },
			Logger:       r.logger,
			PollAttempts: opts.Config.Jukebox.PollAttempts,
			PollDelay:    opts.Config.Jukebox.PollDelay(),
			SettleDelay:  opts.Config.Jukebox.SettleDelay(),
		})
		if err != nil {
			return nil, err
		}
		r.orchestrator = orch
	}

	return r, nil
}

// predicate builds the blacklist predicate from the repository, degrading to
// allow-everything when no database is wired.
func (r *Runner) predicate() jukebox.BlacklistFunc {
	if r.blacklist == nil {
		return nil
	}
	pred, err := r.blacklist.Predicate()
	if err != nil {
		r.logger.Warn("failed to load blacklist, allowing everything", "error", err)
		return nil
	}
	return pred
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		searchCommand, addCommand, appendCommand, queueCommand, volumeCommand, blacklistCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) searchLimit() int {
	if n := r.config.Jukebox.SearchLimit; n > 0 {
		return n
	}
	return 10
}

// resolve turns raw query text into ranked, blacklist-filtered candidates of
// the requested kind. Returns the allowed candidates plus the blocked ones so
// callers can report skips.
func (r *Runner) resolve(ctx context.Context, kind models.ItemKind, query string) (allowed, blocked []models.CatalogItem, err error) {
	if r.catalog == nil {
		return nil, nil, fmt.Errorf("%w: catalog not configured", shared.ErrMissingConfig)
	}

	var candidates []models.CatalogItem
	switch kind {
	case models.KindAlbum:
		candidates, err = r.catalog.SearchAlbums(ctx, query, r.searchLimit())
		candidates = ranking.RankAlbums(candidates, query)
	case models.KindPlaylist:
		candidates, err = r.catalog.SearchPlaylists(ctx, query, r.searchLimit())
		candidates = ranking.RankPlaylists(candidates, query)
	default:
		candidates, err = r.catalog.SearchTracks(ctx, query, r.searchLimit())
		candidates = ranking.RankTracks(candidates, query)
	}
	if err != nil {
		return nil, nil, err
	}

	allowed, blocked = jukebox.Partition(candidates, r.predicate())
	return allowed, blocked, nil
}

// expand resolves an album or playlist winner into its enqueueable tracks.
func (r *Runner) expand(ctx context.Context, item models.CatalogItem) ([]models.CatalogItem, error) {
	switch item.Kind {
	case models.KindAlbum:
		return r.catalog.GetAlbumTracks(ctx, catalogID(item.URI))
	case models.KindPlaylist:
		return r.catalog.GetPlaylistTracks(ctx, catalogID(item.URI))
	default:
		return nil, nil
	}
}

// catalogID strips the "spotify:kind:" prefix from a catalog URI, leaving the
// bare ID the expansion endpoints expect.
func catalogID(uri string) string {
	for i := len(uri) - 1; i >= 0; i-- {
		if uri[i] == ':' {
			return uri[i+1:]
		}
	}
	return uri
}

// orchestrate submits the winning item (and batch, when expanding) and reports
// the synchronous outcome to the user.
func (r *Runner) orchestrate(ctx context.Context, item models.CatalogItem, mode models.RequestMode, batch []models.CatalogItem) (models.OrchestrationOutcome, error) {
	if r.orchestrator == nil {
		return models.OrchestrationOutcome{}, fmt.Errorf("%w: playback device not configured", shared.ErrMissingConfig)
	}
	return r.orchestrator.Orchestrate(ctx, models.OrchestrationRequest{
		Item:  item,
		Mode:  mode,
		Batch: batch,
	})
}
