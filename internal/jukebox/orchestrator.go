package jukebox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/jukebot/jukebot/internal/models"
	"github.com/jukebot/jukebot/internal/shared"
)

// Player is the remote playback device. Every method is an independent network
// call that may fail or time out; implementations carry their own per-call
// timeouts.
type Player interface {
	GetState(ctx context.Context) (models.DeviceState, error)
	GetQueue(ctx context.Context) ([]models.QueueItem, error)
	Stop(ctx context.Context) error
	Play(ctx context.Context) error
	FlushQueue(ctx context.Context) error
	Enqueue(ctx context.Context, uri string) error
	SeekToFirst(ctx context.Context) error
	SkipNext(ctx context.Context) error
}

// Default pacing for device mutations. The device applies queue changes
// asynchronously, so each mutation gets a short settle delay and readiness is
// confirmed by bounded polling rather than trust.
const (
	DefaultPollAttempts = 5
	DefaultPollDelay    = 300 * time.Millisecond
	DefaultSettleDelay  = 300 * time.Millisecond

	// backgroundTimeout bounds the detached activation phase as a whole.
	backgroundTimeout = 30 * time.Second
)

// Opts contains configuration options for creating an [Orchestrator].
type Opts struct {
	Player       Player
	Blacklist    BlacklistFunc // nil blocks nothing
	NotifyAdmin  func(message string)
	Logger       *log.Logger
	PollAttempts int
	PollDelay    time.Duration
	SettleDelay  time.Duration
}

// Orchestrator sequences device mutations for a single playback device.
//
// All requests pass through one worker goroutine. The synchronous phase
// (state inspection, clearing when required, the enqueue call) completes
// before the caller's acknowledgment is sent; the activation phase (extra
// stop, readiness poll, seek or skip nudge, final play) runs afterwards and
// its failures are only logged.
type Orchestrator struct {
	player       Player
	blacklist    BlacklistFunc
	notifyAdmin  func(string)
	logger       *log.Logger
	pollAttempts int
	pollDelay    time.Duration
	settleDelay  time.Duration

	requests chan *job
	quit     chan struct{}
	idle     chan struct{}
	once     sync.Once
}

type job struct {
	ctx   context.Context
	req   models.OrchestrationRequest
	reply chan models.OrchestrationOutcome
}

// ErrClosed is returned by Orchestrate after Close.
var ErrClosed = errors.New("orchestrator is closed")

// New creates an Orchestrator and starts its worker goroutine.
func New(opts Opts) (*Orchestrator, error) {
	if opts.Player == nil {
		return nil, fmt.Errorf("%w: player is required", shared.ErrInvalidArgument)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.NotifyAdmin == nil {
		opts.NotifyAdmin = func(string) {}
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = DefaultPollAttempts
	}
	if opts.PollDelay <= 0 {
		opts.PollDelay = DefaultPollDelay
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}

	o := &Orchestrator{
		player:       opts.Player,
		blacklist:    opts.Blacklist,
		notifyAdmin:  opts.NotifyAdmin,
		logger:       opts.Logger,
		pollAttempts: opts.PollAttempts,
		pollDelay:    opts.PollDelay,
		settleDelay:  opts.SettleDelay,
		requests:     make(chan *job),
		quit:         make(chan struct{}),
		idle:         make(chan struct{}),
	}

	go o.worker()
	return o, nil
}

// Close stops the worker. Requests already acknowledged finish their
// activation phase first; requests not yet accepted receive [ErrClosed].
func (o *Orchestrator) Close() {
	o.once.Do(func() { close(o.quit) })
	<-o.idle
}

// Orchestrate submits one request and blocks until the synchronous phase has
// finished. The returned outcome is final for the caller: activation-phase
// failures never surface as a second message.
func (o *Orchestrator) Orchestrate(ctx context.Context, req models.OrchestrationRequest) (models.OrchestrationOutcome, error) {
	if req.ID == "" {
		req.ID = shared.GenerateID()
	}

	j := &job{ctx: ctx, req: req, reply: make(chan models.OrchestrationOutcome, 1)}

	select {
	case o.requests <- j:
	case <-o.quit:
		return models.OrchestrationOutcome{}, ErrClosed
	case <-ctx.Done():
		return models.OrchestrationOutcome{}, ctx.Err()
	}

	select {
	case out := <-j.reply:
		return out, nil
	case <-ctx.Done():
		return models.OrchestrationOutcome{}, ctx.Err()
	}
}

func (o *Orchestrator) worker() {
	defer close(o.idle)
	for {
		select {
		case j := <-o.requests:
			o.handle(j)
		case <-o.quit:
			return
		}
	}
}

// handle runs one request end to end: the synchronous phase replies to the
// caller, then the activation phase (if any) runs before the next request is
// picked up, so device calls from different requests never interleave.
func (o *Orchestrator) handle(j *job) {
	logger := o.logger.With("request", j.req.ID, "mode", j.req.Mode.String())

	if len(j.req.Batch) > 0 {
		o.handleBatch(j, logger)
		return
	}
	o.handleSingle(j, logger)
}

// reply sends the synchronous outcome. The reply channel is buffered, so a
// caller that already gave up does not wedge the worker.
func (o *Orchestrator) reply(j *job, accepted bool, message string, done chan struct{}) {
	out := models.OrchestrationOutcome{Accepted: accepted, Message: message}
	if done == nil {
		closed := make(chan struct{})
		close(closed)
		out.Done = closed
	} else {
		out.Done = done
	}
	j.reply <- out
}

func (o *Orchestrator) handleSingle(j *job, logger *log.Logger) {
	item := j.req.Item
	ctx := j.ctx

	state := o.observeState(ctx, logger)

	if j.req.Mode == models.ModeReplace && state == models.StateStopped {
		// Nothing is flowing: replace the queue wholesale. Stop and flush are
		// best-effort; only the enqueue itself can fail the request.
		o.tryStep(ctx, logger, "stop", o.player.Stop)
		o.settle()
		o.tryStep(ctx, logger, "flush", o.player.FlushQueue)
		o.settle()

		if err := o.player.Enqueue(ctx, item.URI); err != nil {
			o.failEnqueue(j, logger, item, err)
			return
		}

		done := make(chan struct{})
		o.reply(j, true, fmt.Sprintf("Added %s by %s to the queue.", item.Name, item.Artist), done)
		o.activate(logger, done)
		return
	}

	// Something is (or may be) flowing, or the caller asked to append:
	// no destructive clearing, duplicate avoidance is the only mutation guard.
	if pos, found := o.findQueued(ctx, logger, item); found {
		logger.Info("refusing duplicate", "uri", item.URI, "position", pos)
		o.reply(j, false, fmt.Sprintf("%s is already in the queue at position %d.", item.Name, pos), nil)
		return
	}

	if err := o.player.Enqueue(ctx, item.URI); err != nil {
		o.failEnqueue(j, logger, item, err)
		return
	}

	switch {
	case j.req.Mode == models.ModeAppend:
		done := make(chan struct{})
		o.reply(j, true, fmt.Sprintf("Added %s by %s to the end of the queue.", item.Name, item.Artist), done)
		o.nudgeIfIdle(logger, done)
	case state == models.StatePaused:
		done := make(chan struct{})
		o.reply(j, true, fmt.Sprintf("Added %s by %s to the queue.", item.Name, item.Artist), done)
		o.resume(logger, done)
	default:
		o.reply(j, true, fmt.Sprintf("Added %s by %s to the queue.", item.Name, item.Artist), nil)
	}
}

// handleBatch enqueues the non-blacklisted subset of an album or playlist
// expansion. Enqueue calls are issued concurrently and individual failures
// are tolerated and counted; only a fully failed batch refuses the request.
func (o *Orchestrator) handleBatch(j *job, logger *log.Logger) {
	ctx := j.ctx
	allowed, blocked := Partition(j.req.Batch, o.blacklist)

	if len(allowed) == 0 {
		logger.Info("refusing fully blacklisted batch", "blocked", len(blocked))
		o.reply(j, false, "Every track in there is blacklisted. Nothing was added.", nil)
		return
	}

	state := o.observeState(ctx, logger)
	replace := j.req.Mode == models.ModeReplace && state == models.StateStopped

	if replace {
		o.tryStep(ctx, logger, "stop", o.player.Stop)
		o.settle()
		o.tryStep(ctx, logger, "flush", o.player.FlushQueue)
		o.settle()
	}

	var failed atomic.Int64
	var g errgroup.Group
	for _, track := range allowed {
		uri := track.URI
		g.Go(func() error {
			if err := o.player.Enqueue(ctx, uri); err != nil {
				failed.Add(1)
				logger.Warn("batch enqueue failed", "uri", uri, "error", err)
			}
			return nil
		})
	}
	g.Wait()

	queued := len(allowed) - int(failed.Load())
	if queued == 0 {
		o.failEnqueue(j, logger, j.req.Item, fmt.Errorf("all %d enqueue calls failed", len(allowed)))
		return
	}

	message := fmt.Sprintf("Queued %d tracks from %s.", queued, j.req.Item.Name)
	if len(blocked) > 0 {
		message += fmt.Sprintf(" Skipped %d blacklisted: %s.", len(blocked), SkippedSummary(blocked))
	}
	if n := failed.Load(); n > 0 {
		message += fmt.Sprintf(" %d tracks could not be added.", n)
	}

	done := make(chan struct{})
	o.reply(j, true, message, done)

	switch {
	case replace:
		o.activate(logger, done)
	case j.req.Mode == models.ModeAppend:
		o.nudgeIfIdle(logger, done)
	case state == models.StatePaused:
		o.resume(logger, done)
	default:
		close(done)
	}
}

// failEnqueue reports the one hard failure the caller is told about.
// Region-unavailability additionally pings the admin channel.
func (o *Orchestrator) failEnqueue(j *job, logger *log.Logger, item models.CatalogItem, err error) {
	logger.Error("enqueue failed", "uri", item.URI, "error", err)
	if errors.Is(err, shared.ErrRegionUnavailable) {
		o.notifyAdmin(fmt.Sprintf("%s (%s) is not available in the device's region", item.Name, item.URI))
		o.reply(j, false, fmt.Sprintf("%s isn't available here. Someone has been notified.", item.Name), nil)
		return
	}
	o.reply(j, false, fmt.Sprintf("Couldn't add %s right now. Try again in a moment.", item.Name), nil)
}

// observeState polls the device transport state. A failed poll degrades to
// Unknown, which is handled like Playing: no destructive action.
func (o *Orchestrator) observeState(ctx context.Context, logger *log.Logger) models.DeviceState {
	state, err := o.player.GetState(ctx)
	if err != nil {
		logger.Warn("state poll failed, assuming unknown", "error", err)
		return models.StateUnknown
	}
	logger.Debug("observed device state", "state", state.String())
	return state
}

// findQueued checks the candidate against a fresh queue snapshot. A failed
// snapshot must never block a legitimate add, so it reports no duplicate.
func (o *Orchestrator) findQueued(ctx context.Context, logger *log.Logger, item models.CatalogItem) (int, bool) {
	queue, err := o.player.GetQueue(ctx)
	if err != nil {
		logger.Warn("queue snapshot failed, skipping duplicate check", "error", err)
		return 0, false
	}
	return FindDuplicate(queue, item)
}

// tryStep runs a best-effort device call. Failure is logged, never propagated:
// a stop on an already stopped device or a seek before the queue is ready must
// not abort the surrounding sequence.
func (o *Orchestrator) tryStep(ctx context.Context, logger *log.Logger, step string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		logger.Warn("best-effort step failed", "step", step, "error", err)
	}
}

func (o *Orchestrator) settle() {
	time.Sleep(o.settleDelay)
}

// activate is the background continuation after a replace on a stopped
// device. The device will not switch its active source to the queue on its
// own, so playback needs an explicit nudge before play engages the queue
// rather than silence or a stale external source.
func (o *Orchestrator) activate(logger *log.Logger, done chan struct{}) {
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()

	o.tryStep(ctx, logger, "stop", o.player.Stop)

	ready := false
	for attempt := 1; attempt <= o.pollAttempts; attempt++ {
		queue, err := o.player.GetQueue(ctx)
		if err == nil && len(queue) > 0 {
			ready = true
			break
		}
		logger.Debug("queue not ready", "attempt", attempt, "error", err)
		time.Sleep(o.pollDelay)
	}
	if !ready {
		// Exceeding the poll budget degrades, it does not abort.
		logger.Warn("queue never reported the new items, activating anyway")
	}

	if err := o.player.SeekToFirst(ctx); err != nil {
		logger.Warn("seek to first failed, falling back to skip", "error", err)
		o.tryStep(ctx, logger, "skip-next", o.player.SkipNext)
	}
	o.settle()

	o.tryStep(ctx, logger, "play", o.player.Play)
	logger.Debug("activation finished")
}

// nudgeIfIdle starts playback after an append only when the freshly polled
// state shows the device fully idle rather than merely between tracks.
func (o *Orchestrator) nudgeIfIdle(logger *log.Logger, done chan struct{}) {
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()

	state := o.observeState(ctx, logger)
	if state == models.StatePlaying || state == models.StateTransitioning {
		return
	}
	o.tryStep(ctx, logger, "play", o.player.Play)
}

// resume nudges playback back on after a mid-pause queue mutation.
func (o *Orchestrator) resume(logger *log.Logger, done chan struct{}) {
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()

	o.tryStep(ctx, logger, "play", o.player.Play)
}
