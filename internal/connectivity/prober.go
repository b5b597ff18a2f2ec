package connectivity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/rs/zerolog"

	"github.com/harborline/harbormaster/internal/metrics"
	"github.com/harborline/harbormaster/internal/provider"
	"github.com/harborline/harbormaster/internal/settings"
)

const (
	DefaultTimeout         = 8 * time.Second
	DefaultOfflineInterval = 10 * time.Second
	sketchAccuracy         = 0.01
)

// ErrSimulatedOffline is the probe error reported while the offline
// simulation switch is on.
var ErrSimulatedOffline = errors.New("offline simulation enabled")

// Settings is the part of the settings store the prober reads.
type Settings interface {
	Mode() settings.Mode
	SimulatedOffline() bool
}

// Factory resolves the provider for a mode.
type Factory interface {
	New(mode settings.Mode) provider.Provider
}

// Options tunes a Prober. Zero values select the defaults.
type Options struct {
	Timeout         time.Duration
	OfflineInterval time.Duration
	Metrics         *metrics.Metrics
	Logger          zerolog.Logger
	Now             func() time.Time
}

// Prober owns the connectivity state machine. Probe may be called from any
// goroutine; settlement is serialized.
type Prober struct {
	settings Settings
	factory  Factory
	timeout  time.Duration
	offline  time.Duration
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	state    State
	snap     Snapshot
	failures int
	sketch   *ddsketch.DDSketch
}

// NewProber builds a Prober in StateUnknown.
func NewProber(s Settings, f Factory, opts Options) *Prober {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.OfflineInterval <= 0 {
		opts.OfflineInterval = DefaultOfflineInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	sketch, err := ddsketch.NewDefaultDDSketch(sketchAccuracy)
	if err != nil {
		opts.Logger.Warn().Err(err).Msg("latency sketch disabled")
		sketch = nil
	}
	return &Prober{
		settings: s,
		factory:  f,
		timeout:  opts.Timeout,
		offline:  opts.OfflineInterval,
		metrics:  opts.Metrics,
		log:      opts.Logger.With().Str("component", "prober").Logger(),
		now:      opts.Now,
		sketch:   sketch,
	}
}

// Probe checks the back office through the provider for the current mode.
// Failures and timeouts become an offline snapshot; Probe never returns an
// error. When ctx is canceled before the probe settles the previous state is
// kept and no transition is reported.
func (p *Prober) Probe(ctx context.Context) Observation {
	mode := p.settings.Mode()
	simulated := p.settings.SimulatedOffline()

	start := p.now()
	var err error
	var status statusFields
	if simulated {
		err = ErrSimulatedOffline
	} else {
		status, err = p.check(ctx, mode)
	}
	latency := p.now().Sub(start)

	if ctx.Err() != nil {
		p.mu.Lock()
		defer p.mu.Unlock()
		return Observation{Snapshot: p.snap, Previous: p.state}
	}
	// the switch may have flipped while the request was out
	if !simulated && p.settings.SimulatedOffline() {
		simulated, err = true, ErrSimulatedOffline
	}
	return p.settle(mode, simulated, status, latency, err)
}

type statusFields struct {
	source   string
	lastSync time.Time
	nextSync time.Time
}

func (p *Prober) check(ctx context.Context, mode settings.Mode) (statusFields, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	status, err := p.factory.New(mode).SyncStatus(ctx)
	if err != nil {
		return statusFields{}, err
	}
	return statusFields{source: status.Source, lastSync: status.LastSync, nextSync: status.NextSync}, nil
}

func (p *Prober) settle(mode settings.Mode, simulated bool, status statusFields, latency time.Duration, err error) Observation {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.state
	snap := Snapshot{
		Mode:          mode,
		Simulated:     simulated,
		LastCheckedAt: p.now(),
		LastSync:      p.snap.LastSync,
		NextSync:      p.snap.NextSync,
	}
	if err == nil {
		p.failures = 0
		snap.Online = true
		snap.State = StateOnline
		snap.Latency = latency
		snap.Source = status.source
		if !status.lastSync.IsZero() {
			snap.LastSync = status.lastSync
		}
		if !status.nextSync.IsZero() {
			snap.NextSync = status.nextSync
		}
		if p.sketch != nil {
			_ = p.sketch.Add(float64(latency) / float64(time.Millisecond))
		}
	} else {
		p.failures++
		snap.State = StateOffline
		snap.Err = err.Error()
	}
	snap.ConsecutiveFailures = p.failures
	snap.P95Latency = p.quantileLocked(0.95)

	p.state = snap.State
	p.snap = snap

	obs := Observation{
		Snapshot:   snap,
		Previous:   prev,
		Transition: transition(prev, snap.State),
		Restored:   prev == StateOffline && snap.State == StateOnline,
	}
	p.metrics.ObserveProbe(snap.Online, simulated, latency)
	p.logObservation(obs)
	return obs
}

func (p *Prober) logObservation(obs Observation) {
	snap := obs.Snapshot
	switch {
	case obs.Restored:
		p.log.Info().Dur("latency", snap.Latency).Str("mode", string(snap.Mode)).Msg("connectivity restored")
	case obs.Transition == TransitionOnline:
		p.log.Info().Dur("latency", snap.Latency).Str("mode", string(snap.Mode)).Msg("back office online")
	case obs.Transition == TransitionOffline:
		p.log.Warn().Str("error", snap.Err).Bool("simulated", snap.Simulated).Msg("back office offline")
	default:
		p.log.Debug().
			Str("state", snap.State.String()).
			Int("failures", snap.ConsecutiveFailures).
			Dur("latency", snap.Latency).
			Msg("probe settled")
	}
}

func (p *Prober) quantileLocked(q float64) time.Duration {
	if p.sketch == nil || p.sketch.IsEmpty() {
		return 0
	}
	v, err := p.sketch.GetValueAtQuantile(q)
	if err != nil {
		return 0
	}
	return time.Duration(v * float64(time.Millisecond))
}

// State returns the current state.
func (p *Prober) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Snapshot returns the latest snapshot.
func (p *Prober) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Online reports whether the last settled probe succeeded.
func (p *Prober) Online() bool {
	return p.State() == StateOnline
}

// NextDelay returns how long to wait before the next probe: interval while
// online or unknown, never less than the offline interval while offline.
func (p *Prober) NextDelay(interval time.Duration) time.Duration {
	if p.State() == StateOffline && interval < p.offline {
		return p.offline
	}
	return interval
}
