package ui

import (
	"fmt"
	"strings"

	"github.com/harborline/harbormaster/internal/api"
	"github.com/harborline/harbormaster/internal/syncer"
)

func (m Model) renderFeeds() string {
	title := "Feeds"
	if tick := m.snapshot.Tick; tick != nil {
		title = fmt.Sprintf("Feeds · %s tick at %s", tick.Trigger, formatClock(tick.CompletedAt))
	}
	return m.renderBox(title, m.feedsViewport.View(), m.width, m.contentHeight(), true)
}

func (m *Model) updateFeedsViewport() {
	m.feedsViewport.SetContent(m.formatFeeds())
}

func (m Model) formatFeeds() string {
	styles := m.theme.Styles()
	tick := m.snapshot.Tick
	if tick == nil {
		if m.snapshot.Syncing {
			return m.spinner.View() + " First sync in progress..."
		}
		return styles.MutedText.Render("No sync has completed yet. Press s to sync now.")
	}

	var b strings.Builder
	for _, feed := range syncer.Feeds {
		b.WriteString(m.feedLine(*tick, feed))
		b.WriteString("\n")
	}
	if tick.Err != nil {
		b.WriteString(styles.DangerText.Render(tick.Err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.sectionTitle("Pending operations", tick.Operations.Stub, len(tick.Operations.Payload)))
	b.WriteString("\n")
	if len(tick.Operations.Payload) == 0 {
		b.WriteString(styles.FaintText.Render("  none"))
		b.WriteString("\n")
	}
	for _, op := range tick.Operations.Payload {
		b.WriteString(m.operationLine(op))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.sectionTitle("Notifications", tick.Notifications.Stub, len(tick.Notifications.Payload)))
	b.WriteString("\n")
	if len(tick.Notifications.Payload) == 0 {
		b.WriteString(styles.FaintText.Render("  none"))
		b.WriteString("\n")
	}
	for _, n := range tick.Notifications.Payload {
		b.WriteString(m.notificationLine(n))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) feedLine(tick syncer.TickResult, feed syncer.Feed) string {
	styles := m.theme.Styles()
	outcome := tick.Outcome(feed).String()
	line := styles.Text.Width(16).Render(string(feed)) + styles.Chip(outcome, strings.ReplaceAll(outcome, "_", " "))

	var err error
	switch feed {
	case syncer.FeedStatus:
		err = tick.Status.Err
	case syncer.FeedOperations:
		err = tick.Operations.Err
	case syncer.FeedNotifications:
		err = tick.Notifications.Err
	}
	if err != nil {
		line += "  " + styles.MutedText.Render(truncate(err.Error(), 70))
	}
	return line
}

func (m Model) sectionTitle(title string, stub bool, count int) string {
	styles := m.theme.Styles()
	out := styles.AccentText.Bold(true).Render(fmt.Sprintf("%s (%d)", title, count))
	if stub {
		out += " " + styles.Chip("stub", "placeholder")
	}
	return out
}

func (m Model) operationLine(op api.Operation) string {
	styles := m.theme.Styles()
	created := ""
	if t := op.ParsedCreatedAt(); !t.IsZero() {
		created = formatClock(t)
	}
	return "  " + styles.Chip(op.Status, fmt.Sprintf("%-7s", op.Status)) + " " +
		styles.Text.Width(14).Render(truncate(op.Kind, 13)) +
		styles.MutedText.Render(truncate(op.Description, 60)) + " " +
		styles.FaintText.Render(created)
}

func (m Model) notificationLine(n api.Notification) string {
	styles := m.theme.Styles()
	title := styles.Text.Render(n.Title)
	if n.IsUrgent() {
		title = styles.DangerText.Render(n.Title)
	}
	if !n.Read {
		title = "• " + title
	} else {
		title = "  " + title
	}
	return "  " + styles.Chip(n.Level, fmt.Sprintf("%-8s", n.Level)) + " " + title + " " +
		styles.MutedText.Render(truncate(n.Message, 60))
}
