// submodule cmd contains command definitions
package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jukebot/jukebot/internal/formatter"
	"github.com/jukebot/jukebot/internal/jukebox"
	"github.com/jukebot/jukebot/internal/models"
	"github.com/jukebot/jukebot/internal/shared"
)

func kindFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "kind",
		Aliases: []string{"k"},
		Usage:   "Candidate kind: track, album, or playlist",
		Value:   "track",
	}
}

func parseKind(raw string) (models.ItemKind, error) {
	switch raw {
	case "track", "":
		return models.KindTrack, nil
	case "album":
		return models.KindAlbum, nil
	case "playlist":
		return models.KindPlaylist, nil
	default:
		return models.KindTrack, fmt.Errorf("%w: kind must be track, album, or playlist", shared.ErrInvalidFlag)
	}
}

// searchCommand ranks catalog candidates without touching the device
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the catalog and show ranked candidates",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			kindFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// addCommand resolves a query and replaces/starts the queue with the winner
func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add the best match to the queue (may clear a stopped device)",
		ArgsUsage: "<query>",
		Flags:     []cli.Flag{kindFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return r.Add(ctx, cmd, models.ModeReplace)
		},
	}
}

// appendCommand resolves a query and appends the winner, never clearing
func appendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "append",
		Usage:     "Append the best match to the end of the queue",
		ArgsUsage: "<query>",
		Flags:     []cli.Flag{kindFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return r.Add(ctx, cmd, models.ModeAppend)
		},
	}
}

// queueCommand shows the device's live queue
func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "Show the device's current play queue",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Queue,
	}
}

// volumeCommand reads or sets the device volume
func volumeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "volume",
		Usage:     "Show or set the device volume",
		ArgsUsage: "[percent]",
		Action:    r.Volume,
	}
}

// blacklistCommand manages the disallowed-content list
func blacklistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "blacklist",
		Usage: "Manage blacklisted tracks",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Blacklist a name/artist pair",
				ArgsUsage: "<name> [artist]",
				Action:    r.BlacklistAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove a name/artist pair from the blacklist",
				ArgsUsage: "<name> [artist]",
				Action:    r.BlacklistRemove,
			},
			{
				Name:   "list",
				Usage:  "List blacklist entries",
				Action: r.BlacklistList,
			},
		},
	}
}

// setupCommand writes a starter config file
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write a starter config.toml",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to write the configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// Search resolves and ranks candidates for display only.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	kind, err := parseKind(cmd.String("kind"))
	if err != nil {
		return err
	}

	allowed, blocked, err := r.resolve(ctx, kind, query)
	if err != nil {
		r.logger.Debug("search failed", "query", query, "error", err)
		return r.writePlainln("Nothing found for %q. Try rephrasing.", query)
	}

	if cmd.Bool("json") {
		return r.writeJSON(allowed, true)
	}

	if err := r.writePlainln("%s", formatter.Results(allowed)); err != nil {
		return err
	}
	if len(blocked) > 0 {
		return r.writePlainln("Hidden %d blacklisted: %s", len(blocked), jukebox.SkippedSummary(blocked))
	}
	return nil
}

// Add resolves a query and hands the winner to the orchestrator.
func (r *Runner) Add(ctx context.Context, cmd *cli.Command, mode models.RequestMode) error {
	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	kind, err := parseKind(cmd.String("kind"))
	if err != nil {
		return err
	}

	allowed, blocked, err := r.resolve(ctx, kind, query)
	if err != nil {
		r.logger.Debug("resolve failed", "query", query, "error", err)
		return r.writePlainln("Nothing found for %q. Try rephrasing.", query)
	}

	if len(allowed) == 0 {
		return r.writePlainln("Every match for %q is blacklisted. Nothing was added.", query)
	}

	winner := allowed[0]

	var batch []models.CatalogItem
	if kind != models.KindTrack {
		batch, err = r.expand(ctx, winner)
		if err != nil {
			r.logger.Debug("expansion failed", "uri", winner.URI, "error", err)
			return r.writePlainln("Couldn't fetch the tracks for %s. Try again in a moment.", winner.Name)
		}
	}

	outcome, err := r.orchestrate(ctx, winner, mode, batch)
	if err != nil {
		return err
	}

	if len(blocked) > 0 && outcome.Accepted && len(batch) == 0 {
		outcome.Message += fmt.Sprintf(" Skipped %d blacklisted: %s.", len(blocked), jukebox.SkippedSummary(blocked))
	}
	return r.writePlainln("%s", formatter.Outcome(outcome))
}

// Queue shows the device's current play queue.
func (r *Runner) Queue(ctx context.Context, cmd *cli.Command) error {
	if r.player == nil {
		return fmt.Errorf("%w: playback device not configured", shared.ErrMissingConfig)
	}

	items, err := r.player.GetQueue(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch queue: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, true)
	}
	return r.writePlainln("%s", formatter.Queue(items))
}

// Volume reads or sets the device volume, honoring the configured ceiling.
func (r *Runner) Volume(ctx context.Context, cmd *cli.Command) error {
	vc, ok := r.player.(VolumeController)
	if !ok {
		return fmt.Errorf("%w: device does not expose volume control", shared.ErrInvalidArgument)
	}

	if cmd.Args().Len() == 0 {
		current, err := vc.GetVolume(ctx)
		if err != nil {
			return fmt.Errorf("failed to read volume: %w", err)
		}
		return r.writePlainln("Volume is %d%%", current)
	}

	var percent int
	if _, err := fmt.Sscanf(cmd.Args().First(), "%d", &percent); err != nil {
		return fmt.Errorf("%w: volume must be a number", shared.ErrInvalidArgument)
	}

	if max := r.config.Jukebox.MaxVolume; max > 0 && percent > max {
		percent = max
	}

	if err := vc.SetVolume(ctx, percent); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	return r.writePlainln("Volume set to %d%%", percent)
}

// BlacklistAdd records a name/artist pair that must never be enqueued.
func (r *Runner) BlacklistAdd(ctx context.Context, cmd *cli.Command) error {
	if r.blacklist == nil {
		return fmt.Errorf("%w: database not configured", shared.ErrMissingConfig)
	}

	name := cmd.Args().Get(0)
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}
	artist := cmd.Args().Get(1)

	entry := models.NewBlacklistEntry(name, artist, "cli")
	if err := r.blacklist.Create(entry); err != nil {
		return fmt.Errorf("failed to add blacklist entry: %w", err)
	}
	return r.writePlainln("Blacklisted %q / %q", name, artist)
}

// BlacklistRemove removes a name/artist pair from the blacklist.
func (r *Runner) BlacklistRemove(ctx context.Context, cmd *cli.Command) error {
	if r.blacklist == nil {
		return fmt.Errorf("%w: database not configured", shared.ErrMissingConfig)
	}

	name := cmd.Args().Get(0)
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}
	artist := cmd.Args().Get(1)

	if err := r.blacklist.Remove(name, artist); err != nil {
		return fmt.Errorf("failed to remove blacklist entry: %w", err)
	}
	return r.writePlainln("Removed %q / %q from the blacklist", name, artist)
}

// BlacklistList prints every active blacklist entry.
func (r *Runner) BlacklistList(ctx context.Context, cmd *cli.Command) error {
	if r.blacklist == nil {
		return fmt.Errorf("%w: database not configured", shared.ErrMissingConfig)
	}

	entries, err := r.blacklist.List(nil)
	if err != nil {
		return fmt.Errorf("failed to list blacklist entries: %w", err)
	}

	if len(entries) == 0 {
		return r.writePlainln("The blacklist is empty.")
	}
	for i, e := range entries {
		if err := r.writePlainln("%3d. %s / %s", i+1, e.Name, e.Artist); err != nil {
			return err
		}
	}
	return nil
}

// Setup writes the embedded starter config.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	return r.writePlainln("Wrote starter config to %s", path)
}
