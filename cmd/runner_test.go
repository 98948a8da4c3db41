package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/jukebot/jukebot/internal/models"
	"github.com/jukebot/jukebot/internal/repositories"
	"github.com/jukebot/jukebot/internal/shared"
	mocks "github.com/jukebot/jukebot/internal/testing"
)

// fakeCatalog serves canned candidates for command tests.
type fakeCatalog struct {
	tracks    []models.CatalogItem
	albums    []models.CatalogItem
	playlists []models.CatalogItem
	expansion []models.CatalogItem
	err       error
}

func (f *fakeCatalog) Name() string { return "fake" }

func (f *fakeCatalog) SearchTracks(ctx context.Context, query string, limit int) ([]models.CatalogItem, error) {
	return f.tracks, f.err
}

func (f *fakeCatalog) SearchAlbums(ctx context.Context, query string, limit int) ([]models.CatalogItem, error) {
	return f.albums, f.err
}

func (f *fakeCatalog) SearchPlaylists(ctx context.Context, query string, limit int) ([]models.CatalogItem, error) {
	return f.playlists, f.err
}

func (f *fakeCatalog) GetAlbumTracks(ctx context.Context, id string) ([]models.CatalogItem, error) {
	return f.expansion, f.err
}

func (f *fakeCatalog) GetPlaylistTracks(ctx context.Context, id string) ([]models.CatalogItem, error) {
	return f.expansion, f.err
}

type volumePlayer struct {
	*mocks.MockPlayer
	volume int
}

func (v *volumePlayer) GetVolume(ctx context.Context) (int, error) { return v.volume, nil }

func (v *volumePlayer) SetVolume(ctx context.Context, percent int) error {
	v.volume = percent
	return nil
}

func newTestRunner(t *testing.T, opts RunnerOpts) (*Runner, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	opts.Output = out
	r, err := NewRunner(opts)
	if err != nil {
		t.Fatalf("failed to create runner: %v", err)
	}
	if r.orchestrator != nil {
		t.Cleanup(r.orchestrator.Close)
	}
	return r, out
}

func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	root := &cli.Command{Name: "jukebot", Commands: r.register()}
	return root.Run(context.Background(), append([]string{"jukebot"}, args...))
}

func TestSearchCommand(t *testing.T) {
	cat := &fakeCatalog{tracks: []models.CatalogItem{
		{URI: "spotify:track:1", Name: "Everlong", Artist: "Foo Fighters", Popularity: 82, Kind: models.KindTrack},
		{URI: "spotify:track:2", Name: "Everlong - Acoustic", Artist: "Foo Fighters", Popularity: 70, Kind: models.KindTrack},
	}}
	r, out := newTestRunner(t, RunnerOpts{Catalog: cat})

	if err := run(t, r, "search", "everlong"); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(out.String(), "Everlong") {
		t.Errorf("output missing result: %q", out.String())
	}
	if !strings.Contains(out.String(), "2 results") {
		t.Errorf("output missing count: %q", out.String())
	}
}

func TestSearchCommand_NothingFound(t *testing.T) {
	cat := &fakeCatalog{err: shared.ErrNothingFound}
	r, out := newTestRunner(t, RunnerOpts{Catalog: cat})

	if err := run(t, r, "search", "zxqw"); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(out.String(), "Nothing found") {
		t.Errorf("got %q", out.String())
	}
}

func TestSearchCommand_MissingQuery(t *testing.T) {
	r, _ := newTestRunner(t, RunnerOpts{Catalog: &fakeCatalog{}})
	if err := run(t, r, "search"); err == nil {
		t.Error("expected an error for a missing query")
	}
}

func TestAddCommand(t *testing.T) {
	cat := &fakeCatalog{tracks: []models.CatalogItem{
		{URI: "spotify:track:1", Name: "Everlong", Artist: "Foo Fighters", Popularity: 82, Kind: models.KindTrack},
	}}
	player := &mocks.MockPlayer{State: models.StatePlaying}
	r, out := newTestRunner(t, RunnerOpts{Catalog: cat, Player: player})

	if err := run(t, r, "add", "everlong"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !strings.Contains(out.String(), "Added Everlong by Foo Fighters") {
		t.Errorf("got %q", out.String())
	}
	if got := player.Enqueued(); len(got) != 1 || got[0] != "spotify:track:1" {
		t.Errorf("got enqueues %v", got)
	}
}

func TestAddCommand_AlbumExpands(t *testing.T) {
	cat := &fakeCatalog{
		albums: []models.CatalogItem{
			{URI: "spotify:album:abc", Name: "The Colour and the Shape", Artist: "Foo Fighters", Kind: models.KindAlbum},
		},
		expansion: []models.CatalogItem{
			{URI: "spotify:track:1", Name: "Monkey Wrench", Artist: "Foo Fighters", Kind: models.KindTrack},
			{URI: "spotify:track:2", Name: "Everlong", Artist: "Foo Fighters", Kind: models.KindTrack},
		},
	}
	player := &mocks.MockPlayer{State: models.StatePlaying}
	r, out := newTestRunner(t, RunnerOpts{Catalog: cat, Player: player})

	if err := run(t, r, "add", "--kind", "album", "colour shape"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !strings.Contains(out.String(), "Queued 2 tracks") {
		t.Errorf("got %q", out.String())
	}
	if len(player.Enqueued()) != 2 {
		t.Errorf("got %d enqueues, want 2", len(player.Enqueued()))
	}
}

func TestAddCommand_AllBlacklisted(t *testing.T) {
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	repo := repositories.NewBlacklistRepository(db)
	if err := repo.Create(models.NewBlacklistEntry("Baby Shark", "Pinkfong", "test")); err != nil {
		t.Fatalf("failed to blacklist: %v", err)
	}

	cat := &fakeCatalog{tracks: []models.CatalogItem{
		{URI: "spotify:track:1", Name: "Baby Shark", Artist: "Pinkfong", Kind: models.KindTrack},
	}}
	player := &mocks.MockPlayer{State: models.StatePlaying}
	r, out := newTestRunner(t, RunnerOpts{Catalog: cat, Player: player, Blacklist: repo})

	if err := run(t, r, "add", "baby shark"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !strings.Contains(out.String(), "blacklisted") {
		t.Errorf("got %q", out.String())
	}
	if len(player.Enqueued()) != 0 {
		t.Errorf("nothing should be enqueued, got %v", player.Enqueued())
	}
}

func TestQueueCommand(t *testing.T) {
	player := &mocks.MockPlayer{
		State: models.StatePlaying,
		Queue: []models.QueueItem{
			{Title: "Everlong", Artist: "Foo Fighters", URI: "spotify:track:1", Position: 0},
		},
	}
	r, out := newTestRunner(t, RunnerOpts{Player: player})

	if err := run(t, r, "queue"); err != nil {
		t.Fatalf("queue failed: %v", err)
	}
	if !strings.Contains(out.String(), "Everlong") {
		t.Errorf("got %q", out.String())
	}
}

func TestVolumeCommand_CeilingClamped(t *testing.T) {
	config := shared.DefaultConfig()
	config.Jukebox.MaxVolume = 75
	player := &volumePlayer{MockPlayer: &mocks.MockPlayer{State: models.StatePlaying}, volume: 30}
	r, out := newTestRunner(t, RunnerOpts{Config: config, Player: player})

	if err := run(t, r, "volume", "90"); err != nil {
		t.Fatalf("volume failed: %v", err)
	}
	if player.volume != 75 {
		t.Errorf("got volume %d, want ceiling 75", player.volume)
	}
	if !strings.Contains(out.String(), "75%") {
		t.Errorf("got %q", out.String())
	}
}

func TestVolumeCommand_Read(t *testing.T) {
	player := &volumePlayer{MockPlayer: &mocks.MockPlayer{State: models.StatePlaying}, volume: 42}
	r, out := newTestRunner(t, RunnerOpts{Player: player})

	if err := run(t, r, "volume"); err != nil {
		t.Fatalf("volume failed: %v", err)
	}
	if !strings.Contains(out.String(), "42%") {
		t.Errorf("got %q", out.String())
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		raw     string
		want    models.ItemKind
		wantErr bool
	}{
		{"track", models.KindTrack, false},
		{"", models.KindTrack, false},
		{"album", models.KindAlbum, false},
		{"playlist", models.KindPlaylist, false},
		{"podcast", models.KindTrack, true},
	}
	for _, tc := range tests {
		got, err := parseKind(tc.raw)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseKind(%q) error = %v", tc.raw, err)
		}
		if got != tc.want {
			t.Errorf("parseKind(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestCatalogID(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"spotify:track:abc123", "abc123"},
		{"spotify:album:xyz", "xyz"},
		{"bare-id", "bare-id"},
	}
	for _, tc := range tests {
		if got := catalogID(tc.uri); got != tc.want {
			t.Errorf("catalogID(%q) = %q, want %q", tc.uri, got, tc.want)
		}
	}
}
