package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/jukebot/jukebot/internal/catalog"
	"github.com/jukebot/jukebot/internal/device"
	"github.com/jukebot/jukebot/internal/jukebox"
	"github.com/jukebot/jukebot/internal/repositories"
	"github.com/jukebot/jukebot/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var cat catalog.Catalog
	if c, err := catalog.NewSpotifyCatalog(config.Credentials.Spotify); err == nil {
		cat = c
	} else {
		logger.Warn("catalog disabled", "error", err)
	}

	var player jukebox.Player
	if config.Device.BridgeURL != "" {
		player = device.NewHTTPPlayer(config.Device.BridgeURL, config.Device.Room, config.Device.Timeout())
	}

	var blacklist *repositories.BlacklistRepository
	if config.Database.Path != "" {
		if db, err := shared.NewDatabase(config.Database.Path); err == nil {
			shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
			if err := shared.RunMigrations(db); err != nil {
				logger.Warn("migrations failed", "error", err)
			} else {
				blacklist = repositories.NewBlacklistRepository(db)
			}
		} else {
			logger.Warn("database disabled", "error", err)
		}
	}

	runner, err := NewRunner(RunnerOpts{
		Config:    config,
		Catalog:   cat,
		Player:    player,
		Blacklist: blacklist,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatalf("failed to initialize: %v", err)
	}

	app := &cli.Command{
		Name:     "jukebot",
		Usage:    "Democratic jukebox control for a networked playback device",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
