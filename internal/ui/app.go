package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/harborline/harbormaster/internal/logging"
	"github.com/harborline/harbormaster/internal/provider"
	"github.com/harborline/harbormaster/internal/settings"
	"github.com/harborline/harbormaster/internal/state"
	"github.com/harborline/harbormaster/internal/syncer"
)

// View represents the current active view.
type View int

const (
	ViewDashboard View = iota
	ViewFeeds
	ViewLogs
	viewCount
)

func (v View) String() string {
	switch v {
	case ViewFeeds:
		return "Feeds"
	case ViewLogs:
		return "Logs"
	default:
		return "Dashboard"
	}
}

// Providers builds the data provider for a mode.
type Providers interface {
	New(mode settings.Mode) provider.Provider
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Settings  *settings.Store
	Store     *state.Store
	Providers Providers
	// SyncNow runs a manual tick. The bool is false when a tick was
	// already in flight and the request was dropped.
	SyncNow  func(ctx context.Context) (syncer.TickResult, bool)
	LogPath  string
	PollTick time.Duration
	Logger   zerolog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	settings  *settings.Store
	store     *state.Store
	providers Providers
	syncNow   func(ctx context.Context) (syncer.TickResult, bool)
	logPath   string
	pollTick  time.Duration
	log       zerolog.Logger
	events    <-chan settings.Event

	// UI state
	keys        keyMap
	help        help.Model
	spinner     spinner.Model
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	modal       Modal

	// Data state
	snapshot state.Snapshot
	now      time.Time
	notice   notice

	dashboard dashboardState

	feedsViewport viewport.Model
	logViewport   viewport.Model
	logLines      []string
	logErr        error
}

// notice is a transient footer message.
type notice struct {
	text  string
	err   bool
	until time.Time
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}

	themeName := ""
	var events <-chan settings.Event
	if opts.Settings != nil {
		themeName = opts.Settings.Theme()
		events, _ = opts.Settings.Subscribe(settingsBuffer)
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := Model{
		ctx:         ctx,
		settings:    opts.Settings,
		store:       store,
		providers:   opts.Providers,
		syncNow:     opts.SyncNow,
		logPath:     opts.LogPath,
		pollTick:    pollTick,
		log:         logging.Component(opts.Logger, "ui"),
		events:      events,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		spinner:     sp,
		theme:       GetTheme(themeName),
		currentView: ViewDashboard,
		snapshot:    store.Snapshot(),
		now:         time.Now(),
	}
	m.dashboard = dashboardState{mode: m.currentMode(), loading: opts.Providers != nil}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
		fetchSnapshotCmd(m.store),
		m.spinner.Tick,
	}
	if m.events != nil {
		cmds = append(cmds, waitForSettingsCmd(m.events))
	}
	if m.providers != nil {
		cmds = append(cmds, loadDashboardCmd(m.ctx, m.providers.New(m.dashboard.mode), m.dashboard.mode))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.feedsViewport = viewport.New(msg.Width, m.contentHeight())
			m.logViewport = viewport.New(msg.Width, m.contentHeight())
		}
		m.ready = true
		m.help.Width = msg.Width
		m.resizeViewports()
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		cmds := []tea.Cmd{fetchSnapshotCmd(m.store), tickCmd(m.pollTick)}
		if m.currentView == ViewLogs {
			cmds = append(cmds, readLogsCmd(m.logPath))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		return m.handleSnapshot(state.Snapshot(msg))

	case settingsMsg:
		return m.handleSettings(settings.Event(msg))

	case dashboardMsg:
		if msg.mode == m.dashboard.mode {
			m.dashboard.apply(msg)
		}
		return m, nil

	case syncDoneMsg:
		if !msg.started {
			m.setNotice("Sync already in progress", false)
		} else if msg.result.Err != nil {
			m.setNotice("Sync failed: "+msg.result.Err.Error(), true)
		} else {
			m.setNotice("Sync complete", false)
		}
		return m, fetchSnapshotCmd(m.store)

	case profileSavedMsg:
		if m.modal == nil {
			return m, nil
		}
		var closed bool
		m.modal, _, closed = m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
			m.dashboard.profile = msg.profile
			m.dashboard.hasProfile = true
			m.setNotice("Profile saved", false)
		}
		return m, nil

	case logLinesMsg:
		m.logLines = msg.lines
		m.logErr = msg.err
		m.updateLogViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.modal != nil {
		var cmd tea.Cmd
		var closed bool
		m.modal, cmd, closed = m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

func (m Model) handleSnapshot(snap state.Snapshot) (tea.Model, tea.Cmd) {
	prevMode := m.snapshot.Mode
	m.snapshot = snap
	m.updateFeedsViewport()
	if snap.Mode != "" && snap.Mode != prevMode && snap.Mode != m.dashboard.mode {
		return m, m.loadDashboard(snap.Mode)
	}
	return m, nil
}

func (m Model) handleSettings(ev settings.Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{waitForSettingsCmd(m.events)}
	if ev.Values.Theme != m.theme.Name {
		m.theme = GetTheme(ev.Values.Theme)
	}
	switch ev.Kind {
	case settings.ModeChanged, settings.ForcedModeChanged, settings.Reset:
		if ev.Values.Mode != m.dashboard.mode {
			cmds = append(cmds, m.loadDashboard(ev.Values.Mode))
		}
	}
	cmds = append(cmds, fetchSnapshotCmd(m.store))
	return m, tea.Batch(cmds...)
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.modal != nil {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		var closed bool
		m.modal, cmd, closed = m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		next := NextTheme(m.theme.Name)
		m.theme = GetTheme(next)
		m.apply("theme", func(s *settings.Store) error { return s.SetTheme(next) })
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchView((m.currentView + 1) % viewCount)

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView((m.currentView + viewCount - 1) % viewCount)

	case key.Matches(msg, m.keys.Escape) && m.snapshot.ShowRestored(m.now):
		m.store.DismissRestored()
		m.snapshot.RestoredUntil = time.Time{}
		return m, nil

	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.ViewDashboard):
		return m.switchView(ViewDashboard)

	case key.Matches(msg, m.keys.ViewFeeds):
		return m.switchView(ViewFeeds)

	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(ViewLogs)

	case key.Matches(msg, m.keys.ToggleMode):
		m.toggleMode()
		return m, nil

	case key.Matches(msg, m.keys.CycleLock):
		m.cycleLock()
		return m, nil

	case key.Matches(msg, m.keys.ToggleOffline):
		m.toggleSimulation()
		return m, nil

	case key.Matches(msg, m.keys.CycleFrequency):
		m.cycleFrequency()
		return m, nil

	case key.Matches(msg, m.keys.ResetSettings):
		if m.apply("reset", (*settings.Store).Reset) {
			m.setNotice("Settings reset to defaults", false)
		}
		return m, nil

	case key.Matches(msg, m.keys.SyncNow):
		if m.syncNow == nil {
			return m, nil
		}
		m.setNotice("Syncing...", false)
		return m, syncNowCmd(m.ctx, m.syncNow)

	case key.Matches(msg, m.keys.Reload):
		return m, m.loadDashboard(m.currentMode())

	case key.Matches(msg, m.keys.EditProfile):
		return m.openProfileEditor()
	}

	return m.handleScrollKey(msg)
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	m.currentView = v
	if v == ViewLogs {
		return m, readLogsCmd(m.logPath)
	}
	return m, nil
}

func (m Model) handleScrollKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var vp *viewport.Model
	switch m.currentView {
	case ViewFeeds:
		vp = &m.feedsViewport
	case ViewLogs:
		vp = &m.logViewport
	default:
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		vp.LineUp(1)
	case key.Matches(msg, m.keys.Down):
		vp.LineDown(1)
	case key.Matches(msg, m.keys.Top):
		vp.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		vp.GotoBottom()
	case key.Matches(msg, m.keys.HalfPageUp):
		vp.HalfViewUp()
	case key.Matches(msg, m.keys.HalfPageDown):
		vp.HalfViewDown()
	}
	return m, nil
}

// apply runs a settings mutation and surfaces its error as a notice.
func (m *Model) apply(what string, fn func(*settings.Store) error) bool {
	if m.settings == nil {
		return false
	}
	if err := fn(m.settings); err != nil {
		m.log.Warn().Err(err).Str("setting", what).Msg("settings change rejected")
		m.setNotice(describeSettingsError(err), true)
		return false
	}
	return true
}

func (m *Model) toggleMode() {
	if m.settings == nil {
		return
	}
	next := m.settings.Mode().Toggle()
	if m.apply("mode", func(s *settings.Store) error { return s.SetMode(next) }) {
		m.setNotice("Data source: "+next.Label(), false)
	}
}

func (m *Model) cycleLock() {
	if m.settings == nil {
		return
	}
	next := m.settings.Forced().Next()
	if !m.apply("forced_mode", func(s *settings.Store) error { return s.SetForced(next) }) {
		return
	}
	if mode, ok := next.Mode(); ok {
		m.setNotice("Mode locked to "+mode.Label(), false)
	} else {
		m.setNotice("Mode unlocked", false)
	}
}

func (m *Model) toggleSimulation() {
	if m.settings == nil {
		return
	}
	on := !m.settings.SimulatedOffline()
	if !m.apply("simulation", func(s *settings.Store) error { return s.SetSimulatedOffline(on) }) {
		return
	}
	if on {
		m.setNotice("Offline simulation on", false)
	} else {
		m.setNotice("Offline simulation off", false)
	}
}

func (m *Model) cycleFrequency() {
	if m.settings == nil {
		return
	}
	next := settings.NextFrequency(m.settings.Values().FrequencySeconds)
	if m.apply("frequency", func(s *settings.Store) error { return s.SetFrequency(next) }) {
		m.setNotice(fmt.Sprintf("Checking every %s", formatFrequency(time.Duration(next)*time.Second)), false)
	}
}

func (m Model) openProfileEditor() (tea.Model, tea.Cmd) {
	if m.providers == nil {
		return m, nil
	}
	if !m.dashboard.hasProfile {
		m.setNotice("Profile not loaded", true)
		return m, nil
	}
	p := m.providers.New(m.currentMode())
	m.modal = newProfileEditor(m.ctx, p, m.dashboard.profile)
	return m, nil
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = notice{text: text, err: isErr, until: m.now.Add(NoticeDuration)}
}

// currentMode is the mode the next provider lookup would use.
func (m Model) currentMode() settings.Mode {
	if m.settings != nil {
		return m.settings.Mode()
	}
	if m.snapshot.Mode != "" {
		return m.snapshot.Mode
	}
	return settings.ModeMock
}

func describeSettingsError(err error) string {
	var locked *settings.LockedError
	if errors.As(err, &locked) {
		mode, _ := locked.Forced.Mode()
		return fmt.Sprintf("Mode is locked to %s, press L to change the lock", mode.Label())
	}
	return "Settings: " + err.Error()
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if banner := m.renderBanner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	return b.String()
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewFeeds:
		return m.renderFeeds()
	case ViewLogs:
		return m.renderLogs()
	default:
		return m.renderDashboard()
	}
}

// contentHeight is the space left under the header, banner and command bar.
func (m Model) contentHeight() int {
	return max(m.height-4, 3)
}

func (m *Model) resizeViewports() {
	h := max(m.contentHeight()-2, 1)
	w := max(m.width-2, 1)
	m.feedsViewport.Width, m.feedsViewport.Height = w, h
	m.logViewport.Width, m.logViewport.Height = w, h
	m.updateFeedsViewport()
	m.updateLogViewport()
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type settingsMsg settings.Event

type syncDoneMsg struct {
	result  syncer.TickResult
	started bool
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func waitForSettingsCmd(events <-chan settings.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return settingsMsg(ev)
	}
}

func syncNowCmd(ctx context.Context, run func(context.Context) (syncer.TickResult, bool)) tea.Cmd {
	return func() tea.Msg {
		result, started := run(ctx)
		return syncDoneMsg{result: result, started: started}
	}
}

// Run starts the Bubble Tea program and blocks until the operator quits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
