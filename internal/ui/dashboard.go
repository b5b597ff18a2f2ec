package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/harborline/harbormaster/internal/api"
	"github.com/harborline/harbormaster/internal/provider"
	"github.com/harborline/harbormaster/internal/settings"
)

// dashboardState holds the last dashboard load for one mode. Each section
// keeps its own error so one unavailable endpoint does not blank the rest.
type dashboardState struct {
	mode     settings.Mode
	loading  bool
	loadedAt time.Time

	stats      api.DashboardStats
	overview   api.MarinaOverview
	profile    api.Profile
	hasProfile bool

	statsErr    error
	overviewErr error
	profileErr  error
}

type dashboardMsg struct {
	mode        settings.Mode
	stats       api.DashboardStats
	overview    api.MarinaOverview
	profile     api.Profile
	statsErr    error
	overviewErr error
	profileErr  error
	loadedAt    time.Time
}

func (d *dashboardState) apply(msg dashboardMsg) {
	d.loading = false
	d.loadedAt = msg.loadedAt
	d.stats, d.statsErr = msg.stats, msg.statsErr
	d.overview, d.overviewErr = msg.overview, msg.overviewErr
	d.profile, d.profileErr = msg.profile, msg.profileErr
	d.hasProfile = msg.profileErr == nil
}

// loadDashboard marks mode as loading and returns the command fetching it.
func (m *Model) loadDashboard(mode settings.Mode) tea.Cmd {
	if m.providers == nil {
		return nil
	}
	m.dashboard = dashboardState{mode: mode, loading: true}
	return loadDashboardCmd(m.ctx, m.providers.New(mode), mode)
}

func loadDashboardCmd(ctx context.Context, p provider.Provider, mode settings.Mode) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, DashboardTimeout)
		defer cancel()

		msg := dashboardMsg{mode: mode}
		var g errgroup.Group
		g.Go(func() error {
			msg.stats, msg.statsErr = p.DashboardStats(ctx)
			return nil
		})
		g.Go(func() error {
			msg.overview, msg.overviewErr = p.MarinaOverview(ctx)
			return nil
		})
		g.Go(func() error {
			msg.profile, msg.profileErr = p.UserProfile(ctx)
			return nil
		})
		_ = g.Wait()
		msg.loadedAt = time.Now()
		return msg
	}
}

func (m Model) renderDashboard() string {
	height := m.contentHeight()
	if m.dashboard.loading {
		return m.renderBox("Dashboard", m.spinner.View()+" Loading "+m.dashboard.mode.Label()+" data...", m.width, height, true)
	}

	stats := m.renderStats()
	overview := m.renderOverview()
	profile := m.renderProfile()

	if m.width < LayoutSplitWidth {
		body := lipgloss.JoinVertical(lipgloss.Left, stats, "", overview, "", profile)
		return m.renderBox("Dashboard · "+m.dashboard.mode.Label(), body, m.width, height, true)
	}

	leftW := m.width / 2
	rightW := m.width - leftW
	left := m.renderBox("Dashboard · "+m.dashboard.mode.Label(), stats+"\n\n"+profile, leftW, height, true)
	right := m.renderBox("Marina", overview, rightW, height, false)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) renderStats() string {
	styles := m.theme.Styles()
	if err := m.dashboard.statsErr; err != nil {
		return m.renderLoadError("Statistics", err)
	}
	s := m.dashboard.stats
	rows := []struct {
		label string
		value string
		style lipgloss.Style
	}{
		{"Active contracts", fmt.Sprintf("%d", s.ActiveContracts), styles.Text},
		{"Open invoices", fmt.Sprintf("%d", s.OpenInvoices), styles.Text},
		{"Overdue invoices", fmt.Sprintf("%d", s.OverdueInvoices), overdueStyle(styles, s.OverdueInvoices)},
		{"Outstanding", fmt.Sprintf("%.2f", s.OutstandingBalance), styles.Text},
		{"Boats", fmt.Sprintf("%d", s.Boats), styles.Text},
		{"Berths occupied", fmt.Sprintf("%d/%d (%.0f%%)", s.OccupiedBerths, s.TotalBerths, s.Occupancy()*100), styles.Text},
		{"Open work orders", fmt.Sprintf("%d", s.OpenWorkOrders), styles.Text},
	}
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(styles.MutedText.Width(20).Render(r.label))
		b.WriteString(r.style.Render(r.value))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func overdueStyle(styles Styles, overdue int) lipgloss.Style {
	if overdue > 0 {
		return styles.WarningText
	}
	return styles.Text
}

func (m Model) renderOverview() string {
	styles := m.theme.Styles()
	if err := m.dashboard.overviewErr; err != nil {
		return m.renderLoadError("Marina overview", err)
	}
	o := m.dashboard.overview
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(o.Name))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("Arrivals today %d · Departures today %d", o.ArrivalsToday, o.DeparturesToday)))
	b.WriteString("\n\n")
	for _, dock := range o.Docks {
		b.WriteString(styles.Text.Width(12).Render(truncate(dock.Name, 11)))
		b.WriteString(m.occupancyBar(dock.Occupied, dock.Berths, 20))
		b.WriteString(styles.MutedText.Render(fmt.Sprintf(" %d/%d", dock.Occupied, dock.Berths)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) occupancyBar(used, total, width int) string {
	filled := 0
	if total > 0 {
		filled = min(width, used*width/total)
	}
	on := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)).Render(strings.Repeat("█", filled))
	off := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.BorderMuted)).Render(strings.Repeat("░", width-filled))
	return on + off
}

func (m Model) renderProfile() string {
	styles := m.theme.Styles()
	if err := m.dashboard.profileErr; err != nil {
		return m.renderLoadError("Profile", err)
	}
	p := m.dashboard.profile
	lines := []string{
		styles.AccentText.Bold(true).Render(p.Name) + "  " + styles.FaintText.Render(p.Role),
		styles.MutedText.Render(strings.Join(nonEmpty(p.Email, p.Phone, p.Timezone), " · ")),
	}
	return strings.Join(lines, "\n")
}

// renderLoadError explains a failed section. Unavailable in production mode
// points the operator at the demo data instead of showing stale numbers.
func (m Model) renderLoadError(section string, err error) string {
	styles := m.theme.Styles()
	line := styles.DangerText.Render(section+" unavailable") + "  " + styles.MutedText.Render(truncate(err.Error(), 60))
	if provider.IsUnavailable(err) && m.dashboard.mode == settings.ModeDatabase {
		line += "\n" + styles.FaintText.Render("Back office unreachable. Press m for demo data or r to retry.")
	}
	return line
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
