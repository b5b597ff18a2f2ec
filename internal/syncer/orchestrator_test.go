package syncer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/harbormaster/internal/api"
	"github.com/harborline/harbormaster/internal/connectivity"
	"github.com/harborline/harbormaster/internal/provider"
	"github.com/harborline/harbormaster/internal/settings"
)

type fakeSettings struct {
	freq time.Duration
}

func (f fakeSettings) Mode() settings.Mode { return settings.ModeDatabase }
func (f fakeSettings) Frequency() time.Duration { return f.freq }

type fakeGate struct{ state atomic.Int32 }

func (g *fakeGate) State() connectivity.State { return connectivity.State(g.state.Load()) }
func (g *fakeGate) set(s connectivity.State) { g.state.Store(int32(s)) }

// feeds is a provider whose three feed reads are configurable.
type feeds struct {
	provider.Provider
	release chan struct{}

	statusErr, opsErr, notesErr error
	hangOps                     bool

	statusCalls, opsCalls, notesCalls atomic.Int32
}

func (f *feeds) wait(ctx context.Context) error {
	if f.release == nil {
		return nil
	}
	select {
	case <-f.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *feeds) SyncStatus(ctx context.Context) (api.SyncStatus, error) {
	f.statusCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return api.SyncStatus{}, err
	}
	return api.SyncStatus{IsOnline: true, Source: "live"}, f.statusErr
}

func (f *feeds) Operations(ctx context.Context) ([]api.Operation, error) {
	f.opsCalls.Add(1)
	if f.hangOps {
		select {} // ignores its context entirely
	}
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.opsErr != nil {
		return nil, f.opsErr
	}
	return []api.Operation{{ID: "op-1"}}, nil
}

func (f *feeds) Notifications(ctx context.Context) ([]api.Notification, error) {
	f.notesCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.notesErr != nil {
		return nil, f.notesErr
	}
	return []api.Notification{{ID: "n-1"}}, nil
}

type factoryFunc func(settings.Mode) provider.Provider

func (f factoryFunc) New(m settings.Mode) provider.Provider { return f(m) }

func unavailable(op string) error {
	return &provider.Error{Kind: provider.KindUnavailable, Op: op, Err: errors.New("connection refused")}
}

func newOrchestrator(p *feeds, opts Options) *Orchestrator {
	opts.Logger = zerolog.Nop()
	freq := 5 * time.Second
	return New(fakeSettings{freq: freq}, factoryFunc(func(settings.Mode) provider.Provider { return p }), opts)
}

func TestTick_AtMostOneInFlight(t *testing.T) {
	p := &feeds{release: make(chan struct{})}
	o := newOrchestrator(p, Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	var first bool
	go func() {
		defer wg.Done()
		_, first = o.Tick(context.Background(), TriggerTimer)
	}()
	require.Eventually(t, o.InFlight, time.Second, time.Millisecond)

	_, ran := o.Tick(context.Background(), TriggerManual)
	assert.False(t, ran, "second trigger is a no-op while a tick runs")

	close(p.release)
	wg.Wait()
	assert.True(t, first)
	assert.False(t, o.InFlight())
	assert.EqualValues(t, 1, p.statusCalls.Load())
	assert.EqualValues(t, 1, p.opsCalls.Load())
	assert.EqualValues(t, 1, p.notesCalls.Load())
}

func TestTick_PartialFailureIsSuccessful(t *testing.T) {
	p := &feeds{opsErr: unavailable("operations")}
	o := newOrchestrator(p, Options{})

	res, ran := o.Tick(context.Background(), TriggerManual)
	require.True(t, ran)
	assert.True(t, res.OK())
	assert.True(t, res.Degraded())
	assert.NoError(t, res.Err)
	assert.Equal(t, []Feed{FeedOperations}, res.Failed())

	assert.Equal(t, OutcomeFailure, res.Operations.Outcome)
	assert.True(t, res.Operations.Stub)
	assert.NotNil(t, res.Operations.Payload)
	assert.True(t, provider.IsUnavailable(res.Operations.Err))

	assert.False(t, res.Status.Stub)
	assert.Equal(t, "live", res.Status.Payload.Source)
	assert.Equal(t, []api.Notification{{ID: "n-1"}}, res.Notifications.Payload)
}

func TestTick_AllFeedsFailedIsAggregate(t *testing.T) {
	p := &feeds{
		statusErr: unavailable("sync status"),
		opsErr:    unavailable("operations"),
		notesErr:  unavailable("notifications"),
	}
	o := newOrchestrator(p, Options{})

	res, _ := o.Tick(context.Background(), TriggerTimer)
	assert.False(t, res.OK())
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, ErrAggregateSyncFailure)
	assert.ErrorIs(t, res.Err, provider.ErrUnavailable, "feed errors remain reachable")

	var agg *AggregateError
	require.ErrorAs(t, res.Err, &agg)
	assert.Len(t, agg.Unwrap(), 3)
	assert.Contains(t, res.Err.Error(), "system may be offline")
	assert.True(t, res.Status.Stub && res.Operations.Stub && res.Notifications.Stub)
}

func TestTick_FeedTimeoutAbandonsCall(t *testing.T) {
	p := &feeds{hangOps: true}
	o := newOrchestrator(p, Options{FeedTimeout: 30 * time.Millisecond})

	start := time.Now()
	res, _ := o.Tick(context.Background(), TriggerManual)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, OutcomeTimedOut, res.Operations.Outcome)
	assert.True(t, res.Operations.Stub)
	assert.ErrorIs(t, res.Operations.Err, context.DeadlineExceeded)
	assert.True(t, res.OK())
}

func TestTick_RecordsScheduleOnCompletion(t *testing.T) {
	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	p := &feeds{statusErr: unavailable("sync status"), opsErr: unavailable("operations"), notesErr: unavailable("notifications")}
	o := newOrchestrator(p, Options{Now: now})

	res, _ := o.Tick(context.Background(), TriggerTimer)
	last, next := o.Schedule()
	assert.Equal(t, res.CompletedAt, last, "last sync is recorded even when every feed failed")
	assert.Equal(t, last.Add(5*time.Second), next)
	assert.True(t, res.CompletedAt.After(res.StartedAt))
	assert.Equal(t, res.NextSync, next)
}

func TestTick_Hooks(t *testing.T) {
	var started []Trigger
	var finished []TickResult
	p := &feeds{}
	o := newOrchestrator(p, Options{
		OnStart:  func(tr Trigger) { started = append(started, tr) },
		OnFinish: func(r TickResult) { finished = append(finished, r) },
	})

	o.OnReconnect(context.Background(), time.Time{})
	assert.Equal(t, []Trigger{TriggerReconnect}, started)
	require.Len(t, finished, 1)
	assert.True(t, finished[0].OK())
}

func TestRun_SuspendedWhileOffline(t *testing.T) {
	gate := &fakeGate{}
	gate.set(connectivity.StateOffline)
	p := &feeds{}
	o := New(fakeSettings{freq: 10 * time.Millisecond}, factoryFunc(func(settings.Mode) provider.Provider { return p }),
		Options{Gate: gate, Logger: zerolog.Nop()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, p.statusCalls.Load(), "timer ticks are skipped while offline")

	_, ran := o.SyncNow(ctx)
	assert.True(t, ran, "manual sync is exempt from the suspension")
	assert.EqualValues(t, 1, p.statusCalls.Load())

	gate.set(connectivity.StateOnline)
	assert.Eventually(t, func() bool { return p.statusCalls.Load() > 1 }, time.Second, 5*time.Millisecond)
}

func TestRun_StopsOnCancel(t *testing.T) {
	p := &feeds{}
	o := New(fakeSettings{freq: time.Hour}, factoryFunc(func(settings.Mode) provider.Provider { return p }),
		Options{Logger: zerolog.Nop()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Run(ctx)
		close(done)
	}()
	o.Rearm()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestOnReconnect_SkipsWhenFeedsAlreadySynced(t *testing.T) {
	p := &feeds{}
	o := newOrchestrator(p, Options{})
	ctx := context.Background()

	cameOnline := time.Now()
	_, ran := o.Tick(ctx, TriggerTimer)
	require.True(t, ran)

	_, ran = o.OnReconnect(ctx, cameOnline)
	assert.False(t, ran, "the timer tick after the transition already fetched the feeds")
	assert.EqualValues(t, 1, p.statusCalls.Load())

	_, ran = o.OnReconnect(ctx, time.Now().Add(time.Millisecond))
	assert.True(t, ran)
	assert.EqualValues(t, 2, p.statusCalls.Load())
}

func TestRun_TimerRestartsAfterManualTick(t *testing.T) {
	const freq = 60 * time.Millisecond
	p := &feeds{}
	var mu sync.Mutex
	var nexts []time.Time
	o := New(fakeSettings{freq: freq}, factoryFunc(func(settings.Mode) provider.Provider { return p }),
		Options{Logger: zerolog.Nop(), OnSchedule: func(_, next time.Time) {
			mu.Lock()
			nexts = append(nexts, next)
			mu.Unlock()
		}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	time.Sleep(freq - 15*time.Millisecond)
	_, ran := o.SyncNow(ctx)
	require.True(t, ran)
	manualDone := time.Now()

	require.Eventually(t, func() bool { return p.statusCalls.Load() >= 2 }, time.Second, 2*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(manualDone), freq-10*time.Millisecond,
		"the timer restarts from the end of the manual tick")

	_, next := o.Schedule()
	assert.False(t, next.IsZero())
	mu.Lock()
	defer mu.Unlock()
	assert.NotEmpty(t, nexts, "arming the timer publishes the next sync")
}
