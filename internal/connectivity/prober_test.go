package connectivity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/harbormaster/internal/api"
	"github.com/harborline/harbormaster/internal/provider"
	"github.com/harborline/harbormaster/internal/settings"
)

type fakeSettings struct {
	mu        sync.Mutex
	mode      settings.Mode
	simulated bool
}

func (f *fakeSettings) Mode() settings.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

func (f *fakeSettings) SimulatedOffline() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.simulated
}

func (f *fakeSettings) simulate(on bool) {
	f.mu.Lock()
	f.simulated = on
	f.mu.Unlock()
}

// scripted answers SyncStatus from a queue of results; the last one repeats.
type scripted struct {
	provider.Provider
	mu      sync.Mutex
	results []error
	calls   int
	block   bool
}

func (s *scripted) SyncStatus(ctx context.Context) (api.SyncStatus, error) {
	s.mu.Lock()
	s.calls++
	block := s.block
	var err error
	if len(s.results) > 0 {
		err = s.results[0]
		if len(s.results) > 1 {
			s.results = s.results[1:]
		}
	}
	s.mu.Unlock()
	if block {
		<-ctx.Done()
		return api.SyncStatus{}, &provider.Error{Kind: provider.KindUnavailable, Op: "sync status", Err: ctx.Err()}
	}
	if err != nil {
		return api.SyncStatus{}, err
	}
	return api.SyncStatus{IsOnline: true, Source: "test", LastSync: time.Unix(1700000000, 0)}, nil
}

func (s *scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type factoryFunc func(settings.Mode) provider.Provider

func (f factoryFunc) New(m settings.Mode) provider.Provider { return f(m) }

var errDown = &provider.Error{Kind: provider.KindUnavailable, Op: "sync status", Err: errors.New("connection refused")}

func newTestProber(t *testing.T, s *fakeSettings, p *scripted, opts Options) *Prober {
	t.Helper()
	opts.Logger = zerolog.Nop()
	return NewProber(s, factoryFunc(func(settings.Mode) provider.Provider { return p }), opts)
}

func TestProbe_RestoredFiresOnceAfterOffline(t *testing.T) {
	s := &fakeSettings{mode: settings.ModeDatabase}
	p := &scripted{results: []error{errDown, errDown, nil, nil}}
	prober := newTestProber(t, s, p, Options{})
	ctx := context.Background()

	var restored []int
	var states []State
	for i := 1; i <= 4; i++ {
		obs := prober.Probe(ctx)
		states = append(states, obs.Snapshot.State)
		if obs.Restored {
			restored = append(restored, i)
		}
	}

	assert.Equal(t, []State{StateOffline, StateOffline, StateOnline, StateOnline}, states)
	assert.Equal(t, []int{3}, restored, "restored fires on the first success after offline only")
	assert.Equal(t, 0, prober.Snapshot().ConsecutiveFailures)
}

func TestProbe_UnknownToOnlineIsNotRestored(t *testing.T) {
	s := &fakeSettings{mode: settings.ModeMock}
	prober := newTestProber(t, s, &scripted{}, Options{})

	require.Equal(t, StateUnknown, prober.State())
	obs := prober.Probe(context.Background())
	assert.Equal(t, TransitionOnline, obs.Transition)
	assert.True(t, obs.CameOnline())
	assert.False(t, obs.Restored)
	assert.Equal(t, StateUnknown, obs.Previous)
	assert.Equal(t, "test", obs.Snapshot.Source)
}

func TestProbe_ConsecutiveFailuresAndTransitions(t *testing.T) {
	s := &fakeSettings{mode: settings.ModeDatabase}
	p := &scripted{results: []error{nil, errDown, errDown}}
	prober := newTestProber(t, s, p, Options{})
	ctx := context.Background()

	prober.Probe(ctx)
	obs := prober.Probe(ctx)
	assert.True(t, obs.WentOffline())
	assert.Equal(t, 1, obs.Snapshot.ConsecutiveFailures)
	assert.Contains(t, obs.Snapshot.Err, "connection refused")
	assert.False(t, obs.Snapshot.LastSync.IsZero(), "last known sync time survives going offline")

	obs = prober.Probe(ctx)
	assert.Equal(t, TransitionNone, obs.Transition)
	assert.Equal(t, 2, obs.Snapshot.ConsecutiveFailures)
}

func TestProbe_SimulationForcesOffline(t *testing.T) {
	s := &fakeSettings{mode: settings.ModeDatabase, simulated: true}
	p := &scripted{}
	prober := newTestProber(t, s, p, Options{})
	ctx := context.Background()

	obs := prober.Probe(ctx)
	assert.Equal(t, StateOffline, obs.Snapshot.State)
	assert.True(t, obs.Snapshot.Simulated)
	assert.Zero(t, p.Calls(), "no network call while simulating")

	s.simulate(false)
	obs = prober.Probe(ctx)
	assert.True(t, obs.Restored)
	assert.False(t, obs.Snapshot.Simulated)
}

func TestProbe_TimeoutBecomesOfflineSnapshot(t *testing.T) {
	s := &fakeSettings{mode: settings.ModeDatabase}
	p := &scripted{block: true}
	prober := newTestProber(t, s, p, Options{Timeout: 20 * time.Millisecond})

	start := time.Now()
	obs := prober.Probe(context.Background())
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, StateOffline, obs.Snapshot.State)
	assert.Contains(t, obs.Snapshot.Err, "deadline exceeded")
}

func TestProbe_CanceledContextKeepsState(t *testing.T) {
	s := &fakeSettings{mode: settings.ModeDatabase}
	p := &scripted{}
	prober := newTestProber(t, s, p, Options{})
	prober.Probe(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.block = true
	obs := prober.Probe(ctx)
	assert.Equal(t, StateOnline, obs.Snapshot.State)
	assert.Equal(t, TransitionNone, obs.Transition)
}

func TestNextDelay(t *testing.T) {
	s := &fakeSettings{mode: settings.ModeDatabase}
	p := &scripted{results: []error{errDown}}
	prober := newTestProber(t, s, p, Options{})

	assert.Equal(t, 5*time.Second, prober.NextDelay(5*time.Second), "unknown uses the interval")
	prober.Probe(context.Background())
	assert.Equal(t, 10*time.Second, prober.NextDelay(5*time.Second))
	assert.Equal(t, 60*time.Second, prober.NextDelay(60*time.Second))
}

func TestProbe_TracksLatencyQuantile(t *testing.T) {
	s := &fakeSettings{mode: settings.ModeMock}
	clock := time.Unix(0, 0)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(50 * time.Millisecond)
		return clock
	}
	prober := newTestProber(t, s, &scripted{}, Options{Now: now})

	var obs Observation
	for i := 0; i < 5; i++ {
		obs = prober.Probe(context.Background())
	}
	assert.Equal(t, 50*time.Millisecond, obs.Snapshot.Latency)
	assert.InDelta(t, float64(50*time.Millisecond), float64(obs.Snapshot.P95Latency), float64(time.Millisecond))
}
