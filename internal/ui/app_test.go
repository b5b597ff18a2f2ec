package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/harborline/harbormaster/internal/api"
	"github.com/harborline/harbormaster/internal/connectivity"
	"github.com/harborline/harbormaster/internal/provider"
	"github.com/harborline/harbormaster/internal/settings"
	"github.com/harborline/harbormaster/internal/state"
	"github.com/harborline/harbormaster/internal/syncer"
)

func newTestModel(t *testing.T) (Model, *settings.Store) {
	t.Helper()
	s := settings.Open(settings.NewMemoryStore(), zerolog.Nop())
	t.Cleanup(s.Close)
	m := New(Options{
		Settings:  s,
		Store:     state.NewStore(0),
		Providers: provider.NewFactory(nil, nil),
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return updated.(Model), s
}

func press(t *testing.T, m Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
	return updated.(Model), cmd
}

func TestToggleModeSwitchesDataSource(t *testing.T) {
	m, s := newTestModel(t)

	m, _ = press(t, m, "m")
	if s.Mode() != settings.ModeDatabase {
		t.Fatalf("mode = %s, want database", s.Mode())
	}
	if !strings.Contains(m.notice.text, "Production") || m.notice.err {
		t.Fatalf("notice = %#v, want production notice", m.notice)
	}
}

func TestToggleModeWhileLockedShowsNotice(t *testing.T) {
	m, s := newTestModel(t)
	if err := s.SetForced(settings.ForcedMock); err != nil {
		t.Fatalf("SetForced: %v", err)
	}

	m, _ = press(t, m, "m")
	if s.Mode() != settings.ModeMock {
		t.Fatalf("mode = %s, want mock while locked", s.Mode())
	}
	if !m.notice.err || !strings.Contains(m.notice.text, "locked") {
		t.Fatalf("notice = %#v, want locked error", m.notice)
	}
	if strings.Contains(m.notice.text, "unlock") {
		t.Fatalf("notice = %q, L moves a demo lock to production rather than unlocking", m.notice.text)
	}
}

func TestLockCyclesForcedMode(t *testing.T) {
	m, s := newTestModel(t)

	m, _ = press(t, m, "L")
	if s.Forced() != settings.ForcedMock {
		t.Fatalf("forced = %s, want mock", s.Forced())
	}
	m, _ = press(t, m, "L")
	if s.Forced() != settings.ForcedDatabase || s.Mode() != settings.ModeDatabase {
		t.Fatalf("forced/mode = %s/%s, want database/database", s.Forced(), s.Mode())
	}
	m, _ = press(t, m, "L")
	if s.Forced() != settings.ForcedNone {
		t.Fatalf("forced = %s, want none", s.Forced())
	}
	if m.notice.text != "Mode unlocked" {
		t.Fatalf("notice = %q", m.notice.text)
	}
}

func TestSimulationFrequencyAndResetKeys(t *testing.T) {
	m, s := newTestModel(t)

	m, _ = press(t, m, "o")
	if !s.SimulatedOffline() {
		t.Fatalf("simulation should be on after o")
	}
	m, _ = press(t, m, "f")
	if got := s.Values().FrequencySeconds; got != 10 {
		t.Fatalf("frequency = %d, want 10", got)
	}
	m, _ = press(t, m, "T")
	if s.Theme() != "Kanagawa" || m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q/%q, want Kanagawa", s.Theme(), m.theme.Name)
	}

	m, _ = press(t, m, "R")
	v := s.Values()
	if v.SimulateOffline || v.FrequencySeconds != 5 || v.Mode != settings.ModeMock {
		t.Fatalf("values after reset = %#v", v)
	}
	if v.Theme != "Kanagawa" {
		t.Fatalf("reset should keep theme, got %q", v.Theme)
	}
	if !strings.Contains(m.notice.text, "reset") {
		t.Fatalf("notice = %q", m.notice.text)
	}
}

func TestSyncKeyRunsManualTick(t *testing.T) {
	s := settings.Open(settings.NewMemoryStore(), zerolog.Nop())
	t.Cleanup(s.Close)
	calls := 0
	m := New(Options{
		Settings: s,
		Store:    state.NewStore(0),
		SyncNow: func(context.Context) (syncer.TickResult, bool) {
			calls++
			return syncer.TickResult{Trigger: syncer.TriggerManual}, calls == 1
		},
	})

	m, cmd := press(t, m, "s")
	if cmd == nil {
		t.Fatalf("s should return a sync command")
	}
	updated, _ := m.Update(cmd())
	m = updated.(Model)
	if m.notice.text != "Sync complete" {
		t.Fatalf("notice = %q, want Sync complete", m.notice.text)
	}

	_, cmd = press(t, m, "s")
	updated, _ = m.Update(cmd())
	if got := updated.(Model).notice.text; got != "Sync already in progress" {
		t.Fatalf("notice = %q, want dedup notice", got)
	}
}

func TestHeaderShowsLockAndConnectivity(t *testing.T) {
	m, _ := newTestModel(t)
	m.snapshot = state.Snapshot{
		HasConnectivity: true,
		Connectivity:    connectivity.Snapshot{State: connectivity.StateOnline, Latency: 42 * time.Millisecond},
		Mode:            settings.ModeDatabase,
		Forced:          settings.ForcedDatabase,
		Frequency:       30 * time.Second,
	}

	header := m.renderHeader()
	for _, want := range []string{"ONLINE", "Production", "LOCKED", "42ms", "30s"} {
		if !strings.Contains(header, want) {
			t.Fatalf("header missing %q:\n%s", want, header)
		}
	}
}

func TestBannerPrecedence(t *testing.T) {
	m, _ := newTestModel(t)
	now := time.Now()
	m.now = now

	m.snapshot = state.Snapshot{
		HasConnectivity: true,
		Connectivity:    connectivity.Snapshot{State: connectivity.StateOnline},
		RestoredUntil:   now.Add(3 * time.Second),
	}
	if got := m.renderBanner(); !strings.Contains(got, "Connectivity restored") {
		t.Fatalf("banner = %q, want restored notice", got)
	}

	m.now = now.Add(4 * time.Second)
	if got := m.renderBanner(); got != "" {
		t.Fatalf("banner after window = %q, want none", got)
	}

	m.snapshot = state.Snapshot{
		HasConnectivity: true,
		Connectivity:    connectivity.Snapshot{State: connectivity.StateOffline, Simulated: true},
	}
	if got := m.renderBanner(); !strings.Contains(got, "SIMULATED OFFLINE") {
		t.Fatalf("banner = %q, want simulated offline", got)
	}

	m.snapshot = state.Snapshot{
		HasConnectivity: true,
		Connectivity:    connectivity.Snapshot{State: connectivity.StateOnline},
		Tick: &syncer.TickResult{
			Status:        syncer.FeedResult[api.SyncStatus]{Outcome: syncer.OutcomeSuccess},
			Operations:    syncer.FeedResult[[]api.Operation]{Outcome: syncer.OutcomeTimedOut, Stub: true},
			Notifications: syncer.FeedResult[[]api.Notification]{Outcome: syncer.OutcomeSuccess},
		},
	}
	if got := m.renderBanner(); !strings.Contains(got, "operations") {
		t.Fatalf("banner = %q, want degraded banner naming operations", got)
	}
}

func TestFeedsViewLabelsStubs(t *testing.T) {
	m, _ := newTestModel(t)
	m.snapshot = state.Snapshot{
		Tick: &syncer.TickResult{
			Trigger:       syncer.TriggerTimer,
			Status:        syncer.FeedResult[api.SyncStatus]{Outcome: syncer.OutcomeSuccess},
			Operations:    syncer.FeedResult[[]api.Operation]{Outcome: syncer.OutcomeTimedOut, Stub: true, Err: errors.New("deadline exceeded")},
			Notifications: syncer.FeedResult[[]api.Notification]{Outcome: syncer.OutcomeSuccess, Payload: []api.Notification{{ID: "n1", Level: "critical", Title: "Bilge alarm"}}},
		},
	}

	out := m.formatFeeds()
	for _, want := range []string{"timed out", "placeholder", "Bilge alarm", "deadline exceeded"} {
		if !strings.Contains(out, want) {
			t.Fatalf("feeds view missing %q:\n%s", want, out)
		}
	}
}

func TestDashboardLoadsFromDemoData(t *testing.T) {
	m, _ := newTestModel(t)
	factory := provider.NewFactory(nil, nil)

	msg := loadDashboardCmd(context.Background(), factory.New(settings.ModeMock), settings.ModeMock)().(dashboardMsg)
	if msg.statsErr != nil || msg.overviewErr != nil || msg.profileErr != nil {
		t.Fatalf("demo dashboard errors: %v %v %v", msg.statsErr, msg.overviewErr, msg.profileErr)
	}

	m.dashboard = dashboardState{mode: settings.ModeMock, loading: true}
	updated, _ := m.Update(msg)
	m = updated.(Model)
	if m.dashboard.loading || !m.dashboard.hasProfile {
		t.Fatalf("dashboard = %#v, want loaded with profile", m.dashboard)
	}
	if out := m.renderDashboard(); !strings.Contains(out, m.dashboard.overview.Name) {
		t.Fatalf("dashboard missing marina name %q", m.dashboard.overview.Name)
	}
}

func TestDashboardProductionUnavailable(t *testing.T) {
	m, _ := newTestModel(t)
	factory := provider.NewFactory(nil, nil)

	msg := loadDashboardCmd(context.Background(), factory.New(settings.ModeDatabase), settings.ModeDatabase)().(dashboardMsg)
	if !provider.IsUnavailable(msg.statsErr) {
		t.Fatalf("statsErr = %v, want unavailable", msg.statsErr)
	}

	m.dashboard = dashboardState{mode: settings.ModeDatabase}
	m.dashboard.apply(msg)
	if out := m.renderDashboard(); !strings.Contains(out, "Press m for demo data") {
		t.Fatalf("dashboard should offer demo data:\n%s", out)
	}
}

func TestStaleDashboardResultIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	m.dashboard = dashboardState{mode: settings.ModeDatabase, loading: true}

	updated, _ := m.Update(dashboardMsg{mode: settings.ModeMock})
	if !updated.(Model).dashboard.loading {
		t.Fatalf("a result for the previous mode must not replace the pending load")
	}
}

func TestSettingsEventReloadsDashboardAndTheme(t *testing.T) {
	m, _ := newTestModel(t)
	ev := settings.Event{Kind: settings.ModeChanged, Values: settings.Values{Mode: settings.ModeDatabase, Theme: "Slate"}}

	updated, cmd := m.Update(settingsMsg(ev))
	m = updated.(Model)
	if cmd == nil {
		t.Fatalf("settings event should schedule follow-up commands")
	}
	if m.theme.Name != "Slate" {
		t.Fatalf("theme = %q, want Slate", m.theme.Name)
	}
	if m.dashboard.mode != settings.ModeDatabase || !m.dashboard.loading {
		t.Fatalf("dashboard = %#v, want loading database", m.dashboard)
	}
}

func TestProfileEditorSavesChangedFields(t *testing.T) {
	m, _ := newTestModel(t)
	m.dashboard = dashboardState{mode: settings.ModeMock, hasProfile: true, profile: api.Profile{Name: "Morgan Reyes", Email: "morgan@marina.test"}}

	m, _ = press(t, m, "p")
	ed, ok := m.modal.(*profileEditor)
	if !ok {
		t.Fatalf("p should open the profile editor, modal = %T", m.modal)
	}
	ed.inputs[fieldEmail].SetValue("harbour@marina.test")

	patch := ed.patch()
	if patch.Name != nil || patch.Email == nil || *patch.Email != "harbour@marina.test" {
		t.Fatalf("patch = %#v, want email only", patch)
	}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if cmd == nil {
		t.Fatalf("enter should start saving")
	}
	updated, _ = m.Update(cmd())
	m = updated.(Model)
	if m.modal != nil {
		t.Fatalf("modal should close after a successful save")
	}
	if m.dashboard.profile.Email != "harbour@marina.test" {
		t.Fatalf("profile = %#v, want updated email", m.dashboard.profile)
	}
}

func TestProfileEditorRejectsInvalidEmail(t *testing.T) {
	m, _ := newTestModel(t)
	m.dashboard = dashboardState{mode: settings.ModeMock, hasProfile: true, profile: api.Profile{Name: "Morgan Reyes"}}

	m, _ = press(t, m, "p")
	ed := m.modal.(*profileEditor)
	ed.inputs[fieldEmail].SetValue("not-an-email")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if cmd != nil {
		t.Fatalf("invalid patch must not be sent")
	}
	if m.modal == nil || m.modal.(*profileEditor).err == "" {
		t.Fatalf("editor should stay open with an error")
	}
}

func TestClassifyConnectionError(t *testing.T) {
	tests := map[string]string{
		"":                             "OFFLINE",
		"dial tcp: connection refused": "REFUSED",
		"context deadline exceeded":    "TIMEOUT",
		"lookup x: no such host":       "HOST NOT FOUND",
		"simulated offline":            "OFFLINE",
	}
	for in, want := range tests {
		if got := classifyConnectionError(in); got != want {
			t.Fatalf("classifyConnectionError(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHeaderShowsConsoleSyncSchedule(t *testing.T) {
	m, _ := newTestModel(t)
	now := time.Now()
	m.now = now
	last := now.Add(-2 * time.Second)
	m.snapshot = state.Snapshot{
		HasConnectivity: true,
		Connectivity: connectivity.Snapshot{
			State:    connectivity.StateOnline,
			LastSync: now.Add(-time.Hour),
			NextSync: now.Add(time.Hour),
		},
		LastSync:  last,
		NextSync:  now.Add(3 * time.Second),
		Frequency: 5 * time.Second,
	}

	header := m.renderHeader()
	if !strings.Contains(header, formatClock(last)) {
		t.Fatalf("header missing last tick time %s:\n%s", formatClock(last), header)
	}
	if !strings.Contains(header, formatRelative(3*time.Second)) {
		t.Fatalf("header missing next tick %q:\n%s", formatRelative(3*time.Second), header)
	}
	if strings.Contains(header, formatRelative(time.Hour)) {
		t.Fatalf("header shows the back office's schedule:\n%s", header)
	}
}

func TestEscapeDismissesRestoredNotice(t *testing.T) {
	m, _ := newTestModel(t)
	m.store.PublishObservation(connectivity.Observation{
		Snapshot: connectivity.Snapshot{Online: true, State: connectivity.StateOnline},
		Restored: true,
	})
	m.snapshot = m.store.Snapshot()
	m.now = time.Now()
	m.currentView = ViewFeeds

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if m.snapshot.ShowRestored(m.now) || m.store.Snapshot().ShowRestored(m.now) {
		t.Fatal("restored notice still visible after esc")
	}
	if m.currentView != ViewFeeds {
		t.Fatalf("view = %s, esc should only dismiss the notice", m.currentView)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if got := updated.(Model).currentView; got != ViewDashboard {
		t.Fatalf("view = %s, want dashboard on second esc", got)
	}
}
