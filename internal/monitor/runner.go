package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/harborline/harbormaster/internal/connectivity"
	"github.com/harborline/harbormaster/internal/metrics"
	"github.com/harborline/harbormaster/internal/settings"
	"github.com/harborline/harbormaster/internal/state"
	"github.com/harborline/harbormaster/internal/syncer"
)

// RunnerOptions tunes the prober and the orchestrator. Zero durations use
// their package defaults.
type RunnerOptions struct {
	ProbeTimeout    time.Duration
	FeedTimeout     time.Duration
	OfflineInterval time.Duration
	RestoredNotice  time.Duration
	// Interval, when positive, replaces the operator's check frequency for
	// both the probe loop and the sync timer.
	Interval time.Duration
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// cadence is the settings store with an optional fixed frequency.
type cadence struct {
	*settings.Store
	fixed time.Duration
}

func (c cadence) Frequency() time.Duration {
	if c.fixed > 0 {
		return c.fixed
	}
	return c.Store.Frequency()
}

// Runner wires the settings store, the prober, the sync orchestrator and the
// state store together.
type Runner struct {
	settings *settings.Store
	cadence  cadence
	prober   *connectivity.Prober
	sync     *syncer.Orchestrator
	store    *state.Store
	log      zerolog.Logger
}

// NewRunner builds a Runner. factory resolves the provider for a mode; it is
// consulted afresh on every probe and every tick.
func NewRunner(s *settings.Store, factory connectivity.Factory, opts RunnerOptions) *Runner {
	store := state.NewStore(opts.RestoredNotice)
	store.ApplySettings(s.Values())

	prober := connectivity.NewProber(s, factory, connectivity.Options{
		Timeout:         opts.ProbeTimeout,
		OfflineInterval: opts.OfflineInterval,
		Metrics:         opts.Metrics,
		Logger:          opts.Logger,
	})
	c := cadence{Store: s, fixed: opts.Interval}
	orchestrator := syncer.New(c, factory, syncer.Options{
		FeedTimeout: opts.FeedTimeout,
		Gate:        prober,
		Metrics:     opts.Metrics,
		Logger:      opts.Logger,
		OnStart:     store.SetSyncing,
		OnFinish:    store.PublishTick,
		OnSchedule:  store.PublishSchedule,
	})

	return &Runner{
		settings: s,
		cadence:  c,
		prober:   prober,
		sync:     orchestrator,
		store:    store,
		log:      opts.Logger.With().Str("component", "monitor").Logger(),
	}
}

// State returns the snapshot store the UI reads.
func (r *Runner) State() *state.Store { return r.store }

// Settings returns the settings store.
func (r *Runner) Settings() *settings.Store { return r.settings }

// Step runs one probe cycle and publishes the result. When the back office
// comes online the reconnect tick runs before Step returns.
func (r *Runner) Step(ctx context.Context) connectivity.Observation {
	obs := r.prober.Probe(ctx)
	r.store.PublishObservation(obs)
	if obs.CameOnline() {
		if _, ran := r.sync.OnReconnect(ctx, obs.Snapshot.LastCheckedAt); !ran {
			r.log.Debug().Msg("reconnect tick skipped, another tick covers it")
		}
	}
	return obs
}

// SyncNow runs a manual tick; it works while offline.
func (r *Runner) SyncNow(ctx context.Context) (syncer.TickResult, bool) {
	return r.sync.SyncNow(ctx)
}

// Run probes at the current cadence and drives the sync timer until ctx is
// done. Settings changes are mirrored into the state store and may trigger
// an early probe.
func (r *Runner) Run(ctx context.Context) error {
	events, unsubscribe := r.settings.Subscribe(16)
	defer unsubscribe()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.sync.Run(ctx)
		return nil
	})
	g.Go(func() error {
		r.probeLoop(ctx, events)
		return nil
	})
	return g.Wait()
}

func (r *Runner) probeLoop(ctx context.Context, events <-chan settings.Event) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	reset := func(d time.Duration) {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(d)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			r.store.ApplySettings(ev.Values)
			switch ev.Kind {
			case settings.FrequencyChanged:
				r.sync.Rearm()
				reset(r.prober.NextDelay(r.cadence.Frequency()))
			case settings.Reset:
				r.sync.Rearm()
				reset(0)
			case settings.ModeChanged, settings.ForcedModeChanged, settings.SimulationChanged:
				reset(0)
			}
		case <-timer.C:
			r.Step(ctx)
			timer.Reset(r.prober.NextDelay(r.cadence.Frequency()))
		}
	}
}
