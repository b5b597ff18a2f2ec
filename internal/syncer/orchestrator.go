package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/harborline/harbormaster/internal/api"
	"github.com/harborline/harbormaster/internal/connectivity"
	"github.com/harborline/harbormaster/internal/metrics"
	"github.com/harborline/harbormaster/internal/provider"
	"github.com/harborline/harbormaster/internal/settings"
)

// DefaultFeedTimeout bounds every feed fetch.
const DefaultFeedTimeout = 8 * time.Second

// Settings is the part of the settings store the orchestrator reads.
type Settings interface {
	Mode() settings.Mode
	Frequency() time.Duration
}

// Factory resolves the provider for a mode.
type Factory interface {
	New(mode settings.Mode) provider.Provider
}

// Gate reports the connectivity state used to suspend timer ticks.
type Gate interface {
	State() connectivity.State
}

// Options tunes an Orchestrator. Zero values select the defaults.
type Options struct {
	FeedTimeout time.Duration
	Gate        Gate
	Metrics     *metrics.Metrics
	Logger      zerolog.Logger
	Now         func() time.Time
	// OnStart and OnFinish are called outside the orchestrator's lock
	// around every tick that actually runs.
	OnStart  func(Trigger)
	OnFinish func(TickResult)
	// OnSchedule is called whenever Run arms its timer.
	OnSchedule func(last, next time.Time)
}

// cycle is the handle of the tick in flight.
type cycle struct {
	trigger Trigger
	started time.Time
}

// Orchestrator runs sync ticks. At most one tick is in flight at a time.
type Orchestrator struct {
	settings Settings
	factory  Factory
	gate     Gate
	timeout  time.Duration
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
	onStart  func(Trigger)
	onFinish func(TickResult)
	onArm    func(last, next time.Time)

	rearm chan struct{}

	mu       sync.Mutex
	current  *cycle
	lastRun  time.Time
	lastSync time.Time
	nextSync time.Time
}

// New builds an Orchestrator.
func New(s Settings, f Factory, opts Options) *Orchestrator {
	if opts.FeedTimeout <= 0 {
		opts.FeedTimeout = DefaultFeedTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		settings: s,
		factory:  f,
		gate:     opts.Gate,
		timeout:  opts.FeedTimeout,
		metrics:  opts.Metrics,
		log:      opts.Logger.With().Str("component", "syncer").Logger(),
		now:      opts.Now,
		onStart:  opts.OnStart,
		onFinish: opts.OnFinish,
		onArm:    opts.OnSchedule,
		rearm:    make(chan struct{}, 1),
	}
}

// Tick runs one sync cycle. It returns false, without touching the network,
// when another cycle is already in flight.
func (o *Orchestrator) Tick(ctx context.Context, trigger Trigger) (TickResult, bool) {
	o.mu.Lock()
	if o.current != nil {
		inflight := o.current.trigger
		o.mu.Unlock()
		o.log.Debug().Str("trigger", string(trigger)).Str("in_flight", string(inflight)).Msg("tick dropped, cycle in flight")
		return TickResult{}, false
	}
	c := &cycle{trigger: trigger, started: o.now()}
	o.current = c
	o.mu.Unlock()

	if o.onStart != nil {
		o.onStart(trigger)
	}

	result := o.run(ctx, c)

	o.mu.Lock()
	o.current = nil
	o.lastRun = result.StartedAt
	o.lastSync = result.CompletedAt
	o.nextSync = result.NextSync
	o.mu.Unlock()

	o.signalRearm()
	o.observe(result)
	if o.onFinish != nil {
		o.onFinish(result.Clone())
	}
	return result, true
}

func (o *Orchestrator) run(ctx context.Context, c *cycle) TickResult {
	p := o.factory.New(o.settings.Mode())
	result := TickResult{Trigger: c.trigger, StartedAt: c.started}

	// settle-all: every goroutine returns nil so no feed cancels another
	var g errgroup.Group
	g.Go(func() error {
		result.Status = fetch(ctx, o, FeedStatus, p.SyncStatus, stubStatus)
		return nil
	})
	g.Go(func() error {
		result.Operations = fetch(ctx, o, FeedOperations, p.Operations, stubOperations)
		return nil
	})
	g.Go(func() error {
		result.Notifications = fetch(ctx, o, FeedNotifications, p.Notifications, stubNotifications)
		return nil
	})
	_ = g.Wait()

	result.CompletedAt = o.now()
	result.NextSync = result.CompletedAt.Add(o.settings.Frequency())
	if !result.OK() {
		result.Err = newAggregateError(result.Status.Err, result.Operations.Err, result.Notifications.Err)
	}
	return result
}

type fetched[T any] struct {
	v   T
	err error
}

// fetch runs call under its own timeout. A call that ignores its context is
// abandoned when the deadline passes.
func fetch[T any](ctx context.Context, o *Orchestrator, feed Feed, call func(context.Context) (T, error), stub func() T) FeedResult[T] {
	fctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	done := make(chan fetched[T], 1)
	go func() {
		v, err := call(fctx)
		done <- fetched[T]{v: v, err: err}
	}()

	var got fetched[T]
	select {
	case got = <-done:
	case <-fctx.Done():
		got.err = fctx.Err()
	}

	r := FeedResult[T]{Feed: feed, CompletedAt: o.now()}
	switch {
	case got.err == nil:
		r.Outcome = OutcomeSuccess
		r.Payload = got.v
		return r
	case errors.Is(got.err, context.DeadlineExceeded) || errors.Is(fctx.Err(), context.DeadlineExceeded):
		r.Outcome = OutcomeTimedOut
		r.Err = fmt.Errorf("%s feed timed out after %s: %w", feed, o.timeout, got.err)
	default:
		r.Outcome = OutcomeFailure
		r.Err = fmt.Errorf("%s feed: %w", feed, got.err)
	}
	r.Payload = stub()
	r.Stub = true
	return r
}

func stubStatus() api.SyncStatus {
	return api.SyncStatus{IsOnline: false, Source: "stub"}
}

func stubOperations() []api.Operation {
	return []api.Operation{}
}

func stubNotifications() []api.Notification {
	return []api.Notification{}
}

func (o *Orchestrator) observe(r TickResult) {
	o.metrics.ObserveTick(string(r.Trigger), r.OK())
	for _, feed := range Feeds {
		o.metrics.ObserveFeed(string(feed), r.Outcome(feed).String())
	}

	var ev *zerolog.Event
	switch {
	case r.Err != nil:
		ev = o.log.Warn().Err(r.Err)
	case r.Degraded():
		ev = o.log.Warn().Interface("failed", r.Failed())
	default:
		ev = o.log.Info()
	}
	ev.Str("trigger", string(r.Trigger)).
		Dur("took", r.CompletedAt.Sub(r.StartedAt)).
		Time("next_sync", r.NextSync).
		Msg("sync tick completed")
}

// SyncNow runs a manual tick. Manual ticks are not suspended while offline.
func (o *Orchestrator) SyncNow(ctx context.Context) (TickResult, bool) {
	return o.Tick(ctx, TriggerManual)
}

// OnReconnect runs the single tick that follows a transition to online.
// since is when the back office was seen online again; a tick that started
// after it counts as the reconnect tick.
func (o *Orchestrator) OnReconnect(ctx context.Context, since time.Time) (TickResult, bool) {
	o.mu.Lock()
	lastRun := o.lastRun
	o.mu.Unlock()
	if !since.IsZero() && !lastRun.Before(since) {
		o.log.Debug().Time("last_run", lastRun).Msg("reconnect tick skipped, feeds already synced")
		return TickResult{}, false
	}
	return o.Tick(ctx, TriggerReconnect)
}

// Rearm restarts the timer from now, typically after a frequency change.
func (o *Orchestrator) Rearm() {
	o.signalRearm()
}

func (o *Orchestrator) signalRearm() {
	select {
	case o.rearm <- struct{}{}:
	default:
	}
}

// Run drives timer ticks until ctx is done. The timer restarts after every
// completed tick, whatever triggered it. Timer ticks are skipped while the
// gate reports offline.
func (o *Orchestrator) Run(ctx context.Context) {
	timer := time.NewTimer(o.settings.Frequency())
	defer timer.Stop()

	var armed time.Time
	arm := func(d time.Duration) {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(d)
		armed = o.now()
		o.publishNext(armed.Add(d))
	}
	drainRearm := func() {
		select {
		case <-o.rearm:
		default:
		}
	}
	arm(o.settings.Frequency())

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.rearm:
			arm(o.settings.Frequency())
		case <-timer.C:
			// a manual or reconnect tick finished after the timer was armed
			// and its rearm has not been seen yet
			if last, _ := o.Schedule(); last.After(armed) {
				drainRearm()
				wait := last.Add(o.settings.Frequency()).Sub(o.now())
				if wait < 0 {
					wait = 0
				}
				arm(wait)
				continue
			}
			if o.gate != nil && o.gate.State() == connectivity.StateOffline {
				o.metrics.SkipTick()
				o.log.Debug().Msg("timer tick skipped, back office offline")
			} else if _, ran := o.Tick(ctx, TriggerTimer); !ran {
				o.metrics.SkipTick()
			}
			// drain the rearm raised by our own tick; arm covers it
			drainRearm()
			arm(o.settings.Frequency())
		}
	}
}

func (o *Orchestrator) publishNext(next time.Time) {
	o.mu.Lock()
	o.nextSync = next
	last := o.lastSync
	o.mu.Unlock()
	if o.onArm != nil {
		o.onArm(last, next)
	}
}

// Schedule returns the last completed sync time and the next planned one.
func (o *Orchestrator) Schedule() (last, next time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastSync, o.nextSync
}

// InFlight reports whether a tick is running.
func (o *Orchestrator) InFlight() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current != nil
}
