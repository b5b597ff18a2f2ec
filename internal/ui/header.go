package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/harborline/harbormaster/internal/connectivity"
	"github.com/harborline/harbormaster/internal/settings"
	"github.com/harborline/harbormaster/internal/state"
)

const logoText = "harbormaster"

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if !m.snapshot.HasConnectivity {
		return styles.Header.Width(m.width).Render(
			bg.Render(logoText, styles.Logo) + bg.Spaces(2) +
				bg.Render("Checking back office...", styles.WarningText.Bold(true)),
		)
	}
	return styles.Header.Width(m.width).Render(m.buildStatusContent(styles, bg))
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(styles Styles, bg BgStyle) string {
	compact := m.width < LayoutCompactWidth
	snap := m.snapshot
	conn := snap.Connectivity

	parts := []string{bg.Render(logoText, styles.Logo)}

	// Connectivity indicator
	switch {
	case conn.Simulated && conn.State == connectivity.StateOffline:
		parts = append(parts, bg.Render("● SIMULATED", styles.WarningText.Bold(true)))
	case conn.State == connectivity.StateOnline:
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	case conn.State == connectivity.StateOffline:
		parts = append(parts, bg.Render("● "+classifyConnectionError(conn.Err), styles.DangerText))
	default:
		parts = append(parts, bg.Render("● UNKNOWN", styles.MutedText))
	}

	// Mode with lock marker
	mode := snap.Mode
	if mode == "" {
		mode = settings.ModeMock
	}
	modePart := bg.Render("Mode:", styles.MutedText) + bg.Space() + bg.Render(mode.Label(), styles.Text)
	if snap.Locked() {
		modePart += bg.Space() + bg.Render("LOCKED", styles.WarningText.Bold(true))
	}
	parts = append(parts, modePart)

	if snap.Syncing {
		parts = append(parts, bg.Render(m.spinner.View(), styles.AccentText)+bg.Space()+
			bg.Render("Syncing", styles.AccentText))
	} else {
		parts = append(parts, bg.Render("Last:", styles.MutedText)+bg.Space()+
			bg.Render(formatClock(snap.LastSync), styles.Text))
	}

	if !compact {
		if !snap.NextSync.IsZero() {
			parts = append(parts, bg.Render("Next:", styles.MutedText)+bg.Space()+
				bg.Render(formatRelative(snap.NextSync.Sub(m.now)), styles.InfoText))
		}
		parts = append(parts, bg.Render("Every:", styles.MutedText)+bg.Space()+
			bg.Render(formatFrequency(snap.Frequency), styles.Text))
		parts = append(parts, bg.Render("Latency:", styles.MutedText)+bg.Space()+
			bg.Render(formatLatency(conn.Latency), styles.Text)+
			bg.Render(" p95 "+formatLatency(conn.P95Latency), styles.FaintText))
	}

	if conn.ConsecutiveFailures > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("Failures: %d", conn.ConsecutiveFailures), styles.DangerText))
	}

	return bg.Join(parts, "  ")
}

// renderBanner renders the restored notice or the persistent connectivity
// banner. The restored notice wins while it is visible.
func (m Model) renderBanner() string {
	snap := m.snapshot
	var text, color string
	switch {
	case snap.ShowRestored(m.now):
		text, color = "✓ Connectivity restored", m.theme.Success
	default:
		switch b := snap.Banner(); b {
		case state.BannerSimulated:
			text, color = "⚠ "+b.String()+" · press o to reconnect", m.theme.Warning
		case state.BannerOffline:
			text, color = "✗ "+b.String()+" · retrying every "+formatFrequency(m.offlineCadence()), m.theme.Danger
		case state.BannerAggregate:
			text, color = "✗ "+b.String(), m.theme.Danger
		case state.BannerDegraded:
			failed := make([]string, 0, 3)
			if snap.Tick != nil {
				for _, f := range snap.Tick.Failed() {
					failed = append(failed, string(f))
				}
			}
			text, color = "⚠ "+b.String()+" ("+strings.Join(failed, ", ")+")", m.theme.Warning
		default:
			return ""
		}
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(color)).
		Foreground(lipgloss.Color(m.theme.Background)).
		Bold(true).
		Width(m.width).
		Padding(0, 1).
		Render(text)
}

// offlineCadence mirrors the prober's back-off while offline.
func (m Model) offlineCadence() time.Duration {
	return max(m.snapshot.Frequency, connectivity.DefaultOfflineInterval)
}

// renderCommandBar renders key hints and the transient notice.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	lockLabel := "Lock"
	if m.snapshot.Locked() {
		lockLabel = "Unlock"
	}
	offlineLabel := "Offline"
	if m.snapshot.SimulatedOffline {
		offlineLabel = "Online"
	}

	type cmd struct{ key, desc string }
	commands := []cmd{
		{"m", "Mode"},
		{"L", lockLabel},
		{"o", offlineLabel},
		{"s", "Sync"},
		{"f", "Every " + formatFrequency(m.snapshot.Frequency)},
	}
	switch m.currentView {
	case ViewDashboard:
		commands = append(commands, cmd{"r", "Reload"}, cmd{"p", "Profile"})
	default:
		commands = append(commands, cmd{"j/k", "Scroll"})
	}
	commands = append(commands, cmd{"Tab", m.nextViewLabel()}, cmd{"?", "More"})

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	if m.notice.text != "" && m.now.Before(m.notice.until) {
		style := styles.InfoText
		if m.notice.err {
			style = styles.DangerText
		}
		segments = append(segments, bg.Render(truncate(m.notice.text, 60), style))
	}

	return styles.Header.Width(m.width).Render(bg.Join(segments, "  "))
}

func (m Model) nextViewLabel() string {
	return ((m.currentView + 1) % viewCount).String()
}

// classifyConnectionError shortens a probe error for the status bar.
func classifyConnectionError(msg string) string {
	switch {
	case msg == "":
		return "OFFLINE"
	case strings.Contains(msg, "connection refused"):
		return "REFUSED"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "deadline exceeded"), strings.Contains(msg, "timeout"):
		return "TIMEOUT"
	default:
		return "OFFLINE"
	}
}
