package jukebox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jukebot/jukebot/internal/models"
	"github.com/jukebot/jukebot/internal/shared"
	mocks "github.com/jukebot/jukebot/internal/testing"
)

func newOrchestrator(t *testing.T, player *mocks.MockPlayer, blacklist BlacklistFunc, notify func(string)) *Orchestrator {
	t.Helper()
	o, err := New(Opts{
		Player:      player,
		Blacklist:   blacklist,
		NotifyAdmin: notify,
		PollDelay:   time.Millisecond,
		SettleDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	t.Cleanup(o.Close)
	return o
}

func waitDone(t *testing.T, out models.OrchestrationOutcome) {
	t.Helper()
	select {
	case <-out.Done:
	case <-time.After(5 * time.Second):
		t.Fatal("background phase never finished")
	}
}

// indexOf returns the position of the nth occurrence of call, or -1.
func indexOf(calls []string, call string, nth int) int {
	seen := 0
	for i, c := range calls {
		if c == call {
			seen++
			if seen == nth {
				return i
			}
		}
	}
	return -1
}

func requireOrder(t *testing.T, calls []string, sequence ...string) {
	t.Helper()
	last := -1
	for _, want := range sequence {
		found := false
		for i := last + 1; i < len(calls); i++ {
			if calls[i] == want {
				last = i
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("call %q missing after position %d in %v", want, last, calls)
		}
	}
}

func candidate() models.CatalogItem {
	return models.CatalogItem{
		URI:        "spotify:track:ever",
		Name:       "Everlong",
		Artist:     "Foo Fighters",
		Popularity: 80,
		Kind:       models.KindTrack,
	}
}

func TestOrchestrate_ReplaceStopped(t *testing.T) {
	player := &mocks.MockPlayer{
		State: models.StateStopped,
		QueueAfterEnqueue: []models.QueueItem{
			{Title: "Everlong", Artist: "Foo Fighters", URI: "spotify:track:ever", Position: 0},
		},
	}
	o := newOrchestrator(t, player, nil, nil)

	out, err := o.Orchestrate(context.Background(), models.OrchestrationRequest{Item: candidate(), Mode: models.ModeReplace})
	if err != nil {
		t.Fatalf("orchestrate failed: %v", err)
	}
	if !out.Accepted {
		t.Fatalf("outcome rejected: %s", out.Message)
	}

	// The mutation sequence must be confirmed before the response.
	requireOrder(t, player.Calls(), "stop", "flush", "enqueue")

	waitDone(t, out)
	calls := player.Calls()
	requireOrder(t, calls, "enqueue", "seek", "play")

	// Activation (seek, play) only ever runs after the enqueue.
	if seek := indexOf(calls, "seek", 1); seek < indexOf(calls, "enqueue", 1) {
		t.Errorf("seek before enqueue: %v", calls)
	}
	if len(player.Enqueued()) != 1 {
		t.Errorf("got %d enqueues, want 1", len(player.Enqueued()))
	}
}

func TestOrchestrate_ReplacePlayingDuplicate(t *testing.T) {
	player := &mocks.MockPlayer{
		State: models.StatePlaying,
		Queue: []models.QueueItem{
			{Title: "Yellow", Artist: "Coldplay", URI: "spotify:track:yellow", Position: 0},
			{Title: "Clocks", Artist: "Coldplay", URI: "spotify:track:clocks", Position: 1},
			{Title: "Fix You", Artist: "Coldplay", URI: "spotify:track:fix", Position: 2},
			{Title: "Everlong", Artist: "Foo Fighters", URI: "spotify:track:ever", Position: 3},
		},
	}
	o := newOrchestrator(t, player, nil, nil)

	out, err := o.Orchestrate(context.Background(), models.OrchestrationRequest{Item: candidate(), Mode: models.ModeReplace})
	if err != nil {
		t.Fatalf("orchestrate failed: %v", err)
	}

	if out.Accepted {
		t.Error("duplicate should be refused")
	}
	if !strings.Contains(out.Message, "position 3") {
		t.Errorf("message should reference position 3: %q", out.Message)
	}
	for _, call := range player.Calls() {
		if call == "enqueue" || call == "flush" || call == "stop" {
			t.Errorf("no mutation expected, got %v", player.Calls())
		}
	}
}

func TestOrchestrate_AppendStoppedIdle(t *testing.T) {
	player := &mocks.MockPlayer{State: models.StateStopped}
	o := newOrchestrator(t, player, nil, nil)

	out, err := o.Orchestrate(context.Background(), models.OrchestrationRequest{Item: candidate(), Mode: models.ModeAppend})
	if err != nil {
		t.Fatalf("orchestrate failed: %v", err)
	}
	if !out.Accepted {
		t.Fatalf("outcome rejected: %s", out.Message)
	}
	waitDone(t, out)

	calls := player.Calls()
	for _, call := range calls {
		if call == "flush" || call == "stop" {
			t.Fatalf("append must never clear or stop: %v", calls)
		}
	}
	// Post-enqueue poll saw the device still idle: play must be nudged.
	requireOrder(t, calls, "enqueue", "getstate", "play")
}

func TestOrchestrate_AppendAlreadyPlaying(t *testing.T) {
	player := &mocks.MockPlayer{State: models.StatePlaying}
	o := newOrchestrator(t, player, nil, nil)

	out, err := o.Orchestrate(context.Background(), models.OrchestrationRequest{Item: candidate(), Mode: models.ModeAppend})
	if err != nil {
		t.Fatalf("orchestrate failed: %v", err)
	}
	waitDone(t, out)

	for _, call := range player.Calls() {
		if call == "play" {
			t.Errorf("play must not be issued while the device is playing: %v", player.Calls())
		}
	}
}

func TestOrchestrate_PausedResumes(t *testing.T) {
	player := &mocks.MockPlayer{State: models.StatePaused}
	o := newOrchestrator(t, player, nil, nil)

	out, err := o.Orchestrate(context.Background(), models.OrchestrationRequest{Item: candidate(), Mode: models.ModeReplace})
	if err != nil {
		t.Fatalf("orchestrate failed: %v", err)
	}
	if !out.Accepted {
		t.Fatalf("outcome rejected: %s", out.Message)
	}
	waitDone(t, out)

	calls := player.Calls()
	for _, call := range calls {
		if call == "flush" {
			t.Fatalf("paused device must not be cleared: %v", calls)
		}
	}
	requireOrder(t, calls, "enqueue", "play")
}

func TestOrchestrate_UnknownStateHandledLikePlaying(t *testing.T) {
	player := &mocks.MockPlayer{State: models.StateUnknown}
	o := newOrchestrator(t, player, nil, nil)

	out, err := o.Orchestrate(context.Background(), models.OrchestrationRequest{Item: candidate(), Mode: models.ModeReplace})
	if err != nil {
		t.Fatalf("orchestrate failed: %v", err)
	}
	if !out.Accepted {
		t.Fatalf("outcome rejected: %s", out.Message)
	}

	for _, call := range player.Calls() {
		if call == "flush" || call == "stop" {
			t.Errorf("unknown state must not trigger destructive actions: %v", player.Calls())
		}
	}
}

func TestOrchestrate_EnqueueHardFailure(t *testing.T) {
	player := &mocks.MockPlayer{
		State:      models.StatePlaying,
		EnqueueErr: fmt.Errorf("%w: status 503", shared.ErrDeviceRequest),
	}
	o := newOrchestrator(t, player, nil, nil)

	out, err := o.Orchestrate(context.Background(), models.OrchestrationRequest{Item: candidate(), Mode: models.ModeReplace})
	if err != nil {
		t.Fatalf("orchestrate failed: %v", err)
	}

	if out.Accepted {
		t.Error("hard enqueue failure must be refused")
	}
	if !strings.Contains(out.Message, "Try again") {
		t.Errorf("message should suggest retrying: %q", out.Message)
	}
}

func TestOrchestrate_RegionUnavailableNotifiesAdmin(t *testing.T) {
	player := &mocks.MockPlayer{
		State:      models.StatePlaying,
		EnqueueErr: fmt.Errorf("%w: not in catalog", shared.ErrRegionUnavailable),
	}
	var notices []string
	o := newOrchestrator(t, player, nil, func(msg string) { notices = append(notices, msg) })

	out, err := o.Orchestrate(context.Background(), models.OrchestrationRequest{Item: candidate(), Mode: models.ModeReplace})
	if err != nil {
		t.Fatalf("orchestrate failed: %v", err)
	}

	if out.Accepted {
		t.Error("region failure must be refused")
	}
	if len(notices) != 1 {
		t.Fatalf("got %d admin notices, want 1", len(notices))
	}
	if !strings.Contains(notices[0], "spotify:track:ever") {
		t.Errorf("notice should identify the item: %q", notices[0])
	}
}

func TestOrchestrate_QueueSnapshotFailureDoesNotBlockAdd(t *testing.T) {
	player := &mocks.MockPlayer{
		State:    models.StatePlaying,
		QueueErr: errors.New("bridge unreachable"),
	}
	o := newOrchestrator(t, player, nil, nil)

	out, err := o.Orchestrate(context.Background(), models.OrchestrationRequest{Item: candidate(), Mode: models.ModeReplace})
	if err != nil {
		t.Fatalf("orchestrate failed: %v", err)
	}

	if !out.Accepted {
		t.Errorf("a failed snapshot must not block a legitimate add: %s", out.Message)
	}
	if len(player.Enqueued()) != 1 {
		t.Errorf("got %d enqueues, want 1", len(player.Enqueued()))
	}
}

func TestOrchestrate_Batch(t *testing.T) {
	blockList := map[string]bool{"Track 3": true, "Track 7": true}
	blacklist := func(name, artist string) bool { return blockList[name] }

	var batch []models.CatalogItem
	for i := 1; i <= 10; i++ {
		batch = append(batch, models.CatalogItem{
			URI:    fmt.Sprintf("spotify:track:%d", i),
			Name:   fmt.Sprintf("Track %d", i),
			Artist: "Someone",
			Kind:   models.KindTrack,
		})
	}

	album := models.CatalogItem{URI: "spotify:album:x", Name: "Some Album", Artist: "Someone", Kind: models.KindAlbum}

	t.Run("skips blacklisted and reports counts", func(t *testing.T) {
		player := &mocks.MockPlayer{State: models.StatePlaying}
		o := newOrchestrator(t, player, blacklist, nil)

		out, err := o.Orchestrate(context.Background(), models.OrchestrationRequest{Item: album, Mode: models.ModeAppend, Batch: batch})
		if err != nil {
			t.Fatalf("orchestrate failed: %v", err)
		}
		if !out.Accepted {
			t.Fatalf("outcome rejected: %s", out.Message)
		}
		waitDone(t, out)

		if got := len(player.Enqueued()); got != 8 {
			t.Errorf("got %d enqueue calls, want 8", got)
		}
		if !strings.Contains(out.Message, "8 tracks") {
			t.Errorf("message should report 8 tracks: %q", out.Message)
		}
		if !strings.Contains(out.Message, "Skipped 2 blacklisted") {
			t.Errorf("message should report 2 skipped: %q", out.Message)
		}
	})

	t.Run("fully blacklisted batch is refused", func(t *testing.T) {
		player := &mocks.MockPlayer{State: models.StatePlaying}
		o := newOrchestrator(t, player, func(string, string) bool { return true }, nil)

		out, err := o.Orchestrate(context.Background(), models.OrchestrationRequest{Item: album, Mode: models.ModeAppend, Batch: batch})
		if err != nil {
			t.Fatalf("orchestrate failed: %v", err)
		}

		if out.Accepted {
			t.Error("fully blacklisted batch must be refused")
		}
		if len(player.Enqueued()) != 0 {
			t.Errorf("no enqueues expected, got %d", len(player.Enqueued()))
		}
	})

	t.Run("fully failed batch refused", func(t *testing.T) {
		player := &mocks.MockPlayer{
			State:      models.StateStopped,
			EnqueueErr: errors.New("flaky"),
		}
		o := newOrchestrator(t, player, nil, nil)

		out, err := o.Orchestrate(context.Background(), models.OrchestrationRequest{Item: album, Mode: models.ModeReplace, Batch: batch})
		if err != nil {
			t.Fatalf("orchestrate failed: %v", err)
		}

		// Every enqueue failed: the batch as a whole is a hard failure.
		if out.Accepted {
			t.Errorf("all-failed batch must be refused: %s", out.Message)
		}
	})
}

func TestOrchestrate_Closed(t *testing.T) {
	player := &mocks.MockPlayer{State: models.StatePlaying}
	o, err := New(Opts{Player: player, PollDelay: time.Millisecond, SettleDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	o.Close()

	_, err = o.Orchestrate(context.Background(), models.OrchestrationRequest{Item: candidate()})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("got %v, want ErrClosed", err)
	}
}

func TestOrchestrate_SerializesRequests(t *testing.T) {
	player := &mocks.MockPlayer{State: models.StatePlaying}
	o := newOrchestrator(t, player, nil, nil)

	// Two rapid-fire adds must not interleave their device calls; each pair
	// of getstate/getqueue/enqueue stays contiguous.
	first, err := o.Orchestrate(context.Background(), models.OrchestrationRequest{
		Item: models.CatalogItem{URI: "spotify:track:a", Name: "A", Artist: "X"},
		Mode: models.ModeReplace,
	})
	if err != nil {
		t.Fatalf("first orchestrate failed: %v", err)
	}
	second, err := o.Orchestrate(context.Background(), models.OrchestrationRequest{
		Item: models.CatalogItem{URI: "spotify:track:b", Name: "B", Artist: "Y"},
		Mode: models.ModeReplace,
	})
	if err != nil {
		t.Fatalf("second orchestrate failed: %v", err)
	}

	if !first.Accepted || !second.Accepted {
		t.Fatalf("both adds should succeed: %q / %q", first.Message, second.Message)
	}

	enqueued := player.Enqueued()
	if len(enqueued) != 2 || enqueued[0] != "spotify:track:a" || enqueued[1] != "spotify:track:b" {
		t.Errorf("enqueues out of order: %v", enqueued)
	}
}

func TestNew_RequiresPlayer(t *testing.T) {
	if _, err := New(Opts{}); err == nil {
		t.Error("expected an error for a missing player")
	}
}
